package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testdata(name string) string {
	return filepath.Join("testdata", name)
}

func TestTablesCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"tables", testdata("reddit.yaml")}, &stdout, &stderr)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "tables", stdout.Bytes())
}

func TestTablesCommand_YAMLSingleBase(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"tables", testdata("reddit.yaml"), "--format", "yaml", "--base", "USERS"}, &stdout, &stderr)
	require.NoError(t, err)

	assert.Equal(t, "USERS:\n  FETCH:\n    END: USERS_FETCH_END\n    ERROR: USERS_FETCH_ERROR\n    START: USERS_FETCH_START\n", stdout.String())
}

func TestTablesCommand_UnknownBase(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"tables", testdata("reddit.yaml"), "--base", "NOPE"}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table NOPE not found")
}

func TestReplayCommand(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		golden string
	}{
		{
			name:   "empty initial state",
			args:   []string{"replay", testdata("reddit.yaml"), testdata("actions.jsonl")},
			golden: "replay",
		},
		{
			name:   "with initial state",
			args:   []string{"replay", testdata("reddit.yaml"), testdata("actions.jsonl"), "--initial", testdata("initial.json")},
			golden: "replay_initial",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(tt.args, &stdout, &stderr)
			require.NoError(t, err)

			g := goldie.New(t)
			g.Assert(t, tt.golden, stdout.Bytes())
		})
	}
}

func TestReplayCommand_LogsForeignActions(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"--log-level", "error", "replay", testdata("reddit.yaml"), testdata("actions.jsonl")}, &stdout, &stderr)
	require.NoError(t, err)

	// each reducer reports actions outside its group
	assert.Contains(t, stderr.String(), "REDDIT_DELETE_START")
	assert.Contains(t, stderr.String(), "REDDIT_LOAD_NEW_END")
}

func TestReplayCommand_BadConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"replay", testdata("invalid.yaml"), testdata("actions.jsonl")}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown table")
}
