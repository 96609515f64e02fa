package reducer

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/goliatone/go-reducer/actiontype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logEntry struct {
	level  string
	msg    string
	args   []any
	fields map[string]any
}

type recordingLogger struct {
	mu      *sync.Mutex
	entries *[]logEntry
	fields  map[string]any
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{mu: &sync.Mutex{}, entries: &[]logEntry{}}
}

func (l *recordingLogger) record(level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, logEntry{level: level, msg: msg, args: args, fields: l.fields})
}

func (l *recordingLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *recordingLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *recordingLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *recordingLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *recordingLogger) WithContext(context.Context) Logger { return l }

func (l *recordingLogger) WithFields(fields map[string]any) Logger {
	cp := *l
	cp.fields = mergeFields(l.fields, fields)
	return &cp
}

func (l *recordingLogger) byLevel(level string) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range *l.entries {
		if e.level == level {
			out = append(out, e)
		}
	}
	return out
}

func sameMap(a, b map[string]any) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func redditTable() actiontype.Table {
	return actiontype.DefaultSetup().Creator("REDDIT").
		AddAsync("LOAD_NEW").
		AddAsync("DELETE", "OTHER_ACTION").
		Add("READ", "ARTICLE", "BY_USER").
		AddBasic("MARK_ALL").
		Build()
}

func loadNewTypes(t *testing.T) actiontype.Types {
	t.Helper()
	types, err := redditTable().Group("LOAD_NEW")
	require.NoError(t, err)
	return types
}

func TestReducer_EndToEndStart(t *testing.T) {
	r, err := NewBuilder[any](loadNewTypes(t), nil).Build()
	require.NoError(t, err)

	next, err := r.Update(State{}, Action{Type: "REDDIT_LOAD_NEW_START"})
	require.NoError(t, err)
	assert.Equal(t, State{"loading": true, "error": false}, next)
}

func TestReducer_ForeignActionIsNoop(t *testing.T) {
	logger := newRecordingLogger()
	r, err := NewBuilder[any](loadNewTypes(t), FixedPath("reddit"), WithLogger(logger)).
		Debug(DebugAll()).
		Build()
	require.NoError(t, err)

	state := State{"reddit": State{"loading": false}}
	next, err := r.Update(state, Action{Type: "OTHER_LOAD_NEW_START"})

	require.NoError(t, err)
	assert.True(t, sameMap(state, next))

	errs := logger.byLevel("error")
	require.Len(t, errs, 1)
	assert.Equal(t, []any{"OTHER_LOAD_NEW_START"}, errs[0].args)
	assert.Empty(t, logger.byLevel("info"), "unmatched actions are never traced")
	assert.False(t, r.Handles("OTHER_LOAD_NEW_START"))
	assert.True(t, r.Handles("REDDIT_LOAD_NEW_END"))
}

func TestReducer_PathIsolation(t *testing.T) {
	r, err := NewBuilder[any](loadNewTypes(t), FixedPath("reddit", "posts")).Build()
	require.NoError(t, err)

	users := State{"alice": State{"id": "alice"}}
	comments := State{"items": []any{1, 2}}
	state := State{
		"users": users,
		"reddit": State{
			"posts":    State{"items": State{}, "page": 2},
			"comments": comments,
		},
	}

	next, err := r.Update(state, Action{Type: "REDDIT_LOAD_NEW_START"})
	require.NoError(t, err)

	assert.True(t, sameMap(users, next["users"].(State)))
	reddit := next["reddit"].(State)
	assert.True(t, sameMap(comments, reddit["comments"].(State)))
	assert.Equal(t, State{"items": State{}, "page": 2, "loading": true, "error": false}, reddit["posts"])

	// input is untouched
	assert.Equal(t, State{"items": State{}, "page": 2}, state["reddit"].(State)["posts"])
}

func TestReducer_MissingSliceDefaultsToEmptyRecord(t *testing.T) {
	r, err := NewBuilder[any](loadNewTypes(t), FixedPath("a", "b")).Build()
	require.NoError(t, err)

	next, err := r.Update(State{"a": "scalar", "c": 1}, Action{Type: "REDDIT_LOAD_NEW_ERROR"})
	require.NoError(t, err)
	assert.Equal(t, State{
		"a": State{"b": State{"loading": false, "error": true}},
		"c": 1,
	}, next)
}

func TestReducer_DefaultFlags(t *testing.T) {
	r, err := NewBuilder[any](loadNewTypes(t), nil).Build()
	require.NoError(t, err)

	tests := []struct {
		name   string
		action string
		prior  State
		want   State
	}{
		{"start clears error", "REDDIT_LOAD_NEW_START", State{"error": true, "x": 1}, State{"loading": true, "error": false, "x": 1}},
		{"start from loading", "REDDIT_LOAD_NEW_START", State{"loading": true}, State{"loading": true, "error": false}},
		{"error stops loading", "REDDIT_LOAD_NEW_ERROR", State{"loading": true, "x": 1}, State{"loading": false, "error": true, "x": 1}},
		{"error from empty", "REDDIT_LOAD_NEW_ERROR", State{}, State{"loading": false, "error": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Update(tt.prior, Action{Type: tt.action})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReducer_EndMergesInSelfMode(t *testing.T) {
	r, err := NewBuilder[any](loadNewTypes(t), nil, WithUpdateMode(UpdateSelf)).Build()
	require.NoError(t, err)

	next, err := r.Update(
		State{"a": 0, "b": 2, "nested": State{"keep": true, "over": 1}},
		NewAction("REDDIT_LOAD_NEW_END", State{"a": 1, "nested": State{"over": 2}}),
	)
	require.NoError(t, err)
	assert.Equal(t, State{
		"a":       1,
		"b":       2,
		"nested":  State{"keep": true, "over": 2},
		"loading": false,
		"error":   false,
	}, next)
}

func TestReducer_EndMergesStructEntity(t *testing.T) {
	type profile struct {
		Name   string `json:"name"`
		Visits int    `json:"visits"`
	}
	r, err := NewBuilder[any](loadNewTypes(t), nil, WithUpdateMode(UpdateSelf)).Build()
	require.NoError(t, err)

	next, err := r.Update(State{"name": "old", "age": 3}, NewAction("REDDIT_LOAD_NEW_END", profile{Name: "new", Visits: 1500000}))
	require.NoError(t, err)
	assert.Equal(t, State{"name": "new", "age": 3, "visits": int64(1500000), "loading": false, "error": false}, next)
}

func TestReducer_EndReplacesItems(t *testing.T) {
	for _, mode := range []UpdateMode{UpdateMap, UpdateArray} {
		t.Run(mode.String(), func(t *testing.T) {
			r, err := NewBuilder[any](loadNewTypes(t), nil, WithUpdateMode(mode)).Build()
			require.NoError(t, err)

			entity := []any{State{"id": 1}}
			next, err := r.Update(State{"items": []any{}, "other": 5}, NewAction("REDDIT_LOAD_NEW_END", entity))
			require.NoError(t, err)
			assert.Equal(t, State{"items": entity, "other": 5, "loading": false, "error": false}, next)
		})
	}
}

func TestReducer_DefaultUpdateModeIsMap(t *testing.T) {
	r, err := NewBuilder[any](loadNewTypes(t), nil).Build()
	require.NoError(t, err)
	assert.Equal(t, UpdateMap, r.UpdateMode())
}

func TestReducer_NormalizerApplied(t *testing.T) {
	var seen any
	r, err := NewBuilder[any](loadNewTypes(t), nil).
		IndexEntity("id").
		AddRule(actiontype.End, func(slice State, _ Action, entity any, _ UpdateMode) (State, error) {
			seen = entity
			return slice, nil
		}).
		Build()
	require.NoError(t, err)

	_, err = r.Update(State{}, NewAction("REDDIT_LOAD_NEW_END", []any{State{"id": "x", "v": 1}}))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": State{"id": "x", "v": 1}}, seen)
}

func TestReducer_NormalizerSkippedWithoutEntity(t *testing.T) {
	calls := 0
	r, err := NewBuilder[any](loadNewTypes(t), nil).
		SetEntityNormalizer(func(raw any) (any, error) {
			calls++
			return raw, nil
		}).
		Build()
	require.NoError(t, err)

	_, err = r.Update(State{}, Action{Type: "REDDIT_LOAD_NEW_START"})
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestReducer_NormalizerErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	r, err := NewBuilder[any](loadNewTypes(t), nil).
		SetEntityNormalizer(func(any) (any, error) { return nil, boom }).
		Build()
	require.NoError(t, err)

	state := State{"x": 1}
	next, err := r.Update(state, NewAction("REDDIT_LOAD_NEW_END", []any{}))
	assert.Same(t, boom, err)
	assert.True(t, sameMap(state, next))
}

func TestReducer_MissingRule(t *testing.T) {
	r, err := NewBuilder[any](loadNewTypes(t), nil).OmitDefaults(actiontype.Error).Build()
	require.NoError(t, err)

	_, err = r.Update(State{}, Action{Type: "REDDIT_LOAD_NEW_ERROR"})
	var missing *MissingRuleError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, actiontype.Error, missing.Name)
	assert.Equal(t, "REDDIT_LOAD_NEW_ERROR", missing.ActionType)

	// other defaults still apply
	_, err = r.Update(State{}, Action{Type: "REDDIT_LOAD_NEW_START"})
	assert.NoError(t, err)
}

func TestReducer_CustomRuleForExtraSub(t *testing.T) {
	types, err := redditTable().Group("DELETE")
	require.NoError(t, err)

	r, err := NewBuilder[any](types, FixedPath("posts")).
		AddRule("OTHER_ACTION", func(slice State, action Action, _ any, _ UpdateMode) (State, error) {
			return AssocIn(slice, []string{"last"}, action.Payload.String("id")), nil
		}).
		Build()
	require.NoError(t, err)

	next, err := r.Update(State{}, Action{Type: "REDDIT_DELETE_OTHER_ACTION", Payload: Payload{"id": "p1"}})
	require.NoError(t, err)
	assert.Equal(t, State{"posts": State{"last": "p1"}}, next)
}

func TestReducer_RuleForUnknownNameRejected(t *testing.T) {
	_, err := NewBuilder[any](loadNewTypes(t), nil).
		AddRule("NOPE", func(s State, _ Action, _ any, _ UpdateMode) (State, error) { return s, nil }).
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action name")
	assert.Panics(t, func() {
		NewBuilder[any](loadNewTypes(t), nil).
			AddRule("NOPE", func(s State, _ Action, _ any, _ UpdateMode) (State, error) { return s, nil }).
			MustBuild()
	})
}

func TestReducer_UnreachableRulesRejected(t *testing.T) {
	flat, err := redditTable().Flatten()
	require.NoError(t, err)

	_, err = NewBuilder[any](flat, nil).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rule matches")

	_, err = NewBuilder[any](loadNewTypes(t), nil).
		OmitDefaults(actiontype.Start, actiontype.End, actiontype.Error).
		Build()
	assert.Error(t, err)

	r := NewBuilder[any](flat, nil).
		AddRule("MARK_ALL", func(s State, _ Action, _ any, _ UpdateMode) (State, error) { return s, nil }).
		MustBuild()
	assert.True(t, r.Handles("REDDIT_MARK_ALL"))
}

func TestReducer_RuleErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	r, err := NewBuilder[any](loadNewTypes(t), nil).
		AddRule(actiontype.Start, func(State, Action, any, UpdateMode) (State, error) { return nil, boom }).
		Build()
	require.NoError(t, err)

	_, err = r.Update(State{}, Action{Type: "REDDIT_LOAD_NEW_START"})
	var ruleErr *RuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, actiontype.Start, ruleErr.Name)
	assert.ErrorIs(t, err, boom)
}

func TestReducer_ResolvedPath(t *testing.T) {
	r, err := NewBuilder[any](loadNewTypes(t), ResolvedPath(PayloadPath([]string{"subs"}, "sub"))).Build()
	require.NoError(t, err)

	next, err := r.Update(State{}, Action{Type: "REDDIT_LOAD_NEW_START", Payload: Payload{"sub": "golang"}})
	require.NoError(t, err)
	assert.Equal(t, State{"subs": State{"golang": State{"loading": true, "error": false}}}, next)
}

func TestReducer_ResolvedPathFailure(t *testing.T) {
	t.Run("resolver error", func(t *testing.T) {
		r, err := NewBuilder[any](loadNewTypes(t), ResolvedPath(PayloadPath(nil, "sub"))).Build()
		require.NoError(t, err)

		state := State{"x": 1}
		next, err := r.Update(state, Action{Type: "REDDIT_LOAD_NEW_START"})
		var pathErr *PathError
		require.ErrorAs(t, err, &pathErr)
		assert.Equal(t, "REDDIT_LOAD_NEW_START", pathErr.ActionType)
		assert.True(t, sameMap(state, next))
	})

	t.Run("nil resolver", func(t *testing.T) {
		r, err := NewBuilder[any](loadNewTypes(t), ResolvedPath(nil)).Build()
		require.NoError(t, err)

		_, err = r.Update(State{}, Action{Type: "REDDIT_LOAD_NEW_START"})
		var pathErr *PathError
		assert.ErrorAs(t, err, &pathErr)
	})
}

func TestReducer_DebugGating(t *testing.T) {
	flat, err := redditTable().Flatten()
	require.NoError(t, err)

	passthrough := func(s State, _ Action, _ any, _ UpdateMode) (State, error) { return s, nil }

	tests := []struct {
		name   string
		debug  Debug
		traced []string
	}{
		{"off", DebugOff(), nil},
		{"all", DebugAll(), []string{"REDDIT_LOAD_NEW_START", "REDDIT_LOAD_NEW_END", "REDDIT_MARK_ALL"}},
		{"single", DebugActions("LOAD_NEW_START"), []string{"REDDIT_LOAD_NEW_START"}},
		{"set", DebugActions("LOAD_NEW_END", "MARK_ALL"), []string{"REDDIT_LOAD_NEW_END", "REDDIT_MARK_ALL"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := newRecordingLogger()
			r, err := NewBuilder[any](flat, nil, WithLogger(logger)).
				AddRule("LOAD_NEW_START", passthrough).
				AddRule("LOAD_NEW_END", passthrough).
				AddRule("MARK_ALL", passthrough).
				Debug(tt.debug).
				Build()
			require.NoError(t, err)

			state := State{"k": "v"}
			for _, typ := range []string{"REDDIT_LOAD_NEW_START", "REDDIT_LOAD_NEW_END", "REDDIT_MARK_ALL", "UNKNOWN"} {
				_, err := r.Update(state, Action{Type: typ})
				require.NoError(t, err)
			}

			var traced []string
			for _, e := range logger.byLevel("info") {
				traced = append(traced, e.msg)
				assert.Equal(t, state, e.fields["state"])
				assert.Equal(t, e.msg, e.fields["action"].(Action).Type)
			}
			assert.Equal(t, tt.traced, traced)
		})
	}
}

// plainLogger hides WithFields so the reducer sees a Logger only.
type plainLogger struct {
	Logger
}

func TestReducer_TraceWithoutFieldsLogger(t *testing.T) {
	logger := newRecordingLogger()
	r, err := NewBuilder[any](loadNewTypes(t), FixedPath("posts"), WithLogger(plainLogger{logger})).
		Debug(DebugAll()).
		Build()
	require.NoError(t, err)

	prior := State{"prior": 1}
	action := Action{Type: "REDDIT_LOAD_NEW_START"}
	_, err = r.Update(prior, action)
	require.NoError(t, err)

	traces := logger.byLevel("info")
	require.Len(t, traces, 1)
	assert.Equal(t, "%s %v", traces[0].msg)
	assert.Nil(t, traces[0].fields)
	require.Len(t, traces[0].args, 2)
	assert.Equal(t, "REDDIT_LOAD_NEW_START", traces[0].args[0])
	assert.Equal(t, map[string]any{"state": prior, "action": action}, traces[0].args[1])
}

func TestReducer_BuildFreezesRules(t *testing.T) {
	b := NewBuilder[any](loadNewTypes(t), nil)
	r, err := b.Build()
	require.NoError(t, err)

	b.OmitDefaults(actiontype.Start)

	next, err := r.Update(State{}, Action{Type: "REDDIT_LOAD_NEW_START"})
	require.NoError(t, err)
	assert.Equal(t, true, next["loading"])
}

func TestReducer_TypedEntity(t *testing.T) {
	type post struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}

	r, err := NewBuilder[[]post](loadNewTypes(t), FixedPath("posts")).Build()
	require.NoError(t, err)

	posts := []post{{ID: "1", Title: "hello"}}
	next, err := r.Update(State{}, NewAction("REDDIT_LOAD_NEW_END", posts))
	require.NoError(t, err)
	assert.Equal(t, posts, next["posts"].(State)["items"])

	_, err = r.Update(State{}, NewAction("REDDIT_LOAD_NEW_END", "not posts"))
	var typeErr *EntityTypeError
	assert.ErrorAs(t, err, &typeErr)
}

func TestReducer_ConcurrentUpdates(t *testing.T) {
	r, err := NewBuilder[any](loadNewTypes(t), FixedPath("posts"), WithUpdateMode(UpdateSelf)).Build()
	require.NoError(t, err)

	base := State{"posts": State{"count": 0}}
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			next, err := r.Update(base, NewAction("REDDIT_LOAD_NEW_END", State{"count": i}))
			assert.NoError(t, err)
			assert.Equal(t, i, next["posts"].(State)["count"])
		}(i)
	}
	wg.Wait()
	assert.Equal(t, State{"posts": State{"count": 0}}, base)
}
