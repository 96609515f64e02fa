package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goliatone/go-reducer"
	"github.com/goliatone/go-reducer/config"
	"github.com/goliatone/go-reducer/store"
	"gopkg.in/yaml.v3"
)

type cli struct {
	LogLevel string `name:"log-level" default:"warn" enum:"trace,debug,info,warn,error" help:"Log level for reducer diagnostics."`

	Tables tablesCmd `cmd:"" help:"Print the action tables declared in a config file."`
	Replay replayCmd `cmd:"" help:"Replay a JSON lines action log through the configured reducers."`
}

type env struct {
	out    io.Writer
	logger reducer.Logger
}

type tablesCmd struct {
	Config string `arg:"" type:"existingfile" help:"Reducer config (YAML or JSON)."`
	Format string `default:"json" enum:"json,yaml" help:"Output format."`
	Base   string `help:"Only print the table with this base name."`
}

func (c *tablesCmd) Run(e *env) error {
	doc, err := config.Load(c.Config)
	if err != nil {
		return err
	}

	out := make(map[string]any)
	for base, table := range config.BuildTables(doc) {
		if c.Base != "" && c.Base != base {
			continue
		}
		out[base] = table.Map()
	}
	if c.Base != "" && len(out) == 0 {
		return fmt.Errorf("table %s not found in %s", c.Base, c.Config)
	}

	return write(e.out, c.Format, out)
}

type replayCmd struct {
	Config  string `arg:"" type:"existingfile" help:"Reducer config (YAML or JSON)."`
	Actions string `arg:"" type:"existingfile" help:"Actions, one JSON object per line."`
	Initial string `type:"existingfile" help:"Initial state as a JSON object."`
	Format  string `default:"json" enum:"json,yaml" help:"Output format."`
}

func (c *replayCmd) Run(e *env) error {
	doc, err := config.Load(c.Config)
	if err != nil {
		return err
	}

	set, err := config.Build(doc, config.BuildContext{
		Rules:       config.NewRuleRegistry(),
		Normalizers: config.NewNormalizerRegistry(),
		Paths:       config.NewPathRegistry(),
		Logger:      e.logger,
	})
	if err != nil {
		return err
	}

	initial := reducer.State{}
	if c.Initial != "" {
		raw, err := os.ReadFile(c.Initial)
		if err != nil {
			return fmt.Errorf("read initial state: %w", err)
		}
		if err := json.Unmarshal(raw, &initial); err != nil {
			return fmt.Errorf("decode initial state: %w", err)
		}
	}

	st := store.New(store.WithInitialState(initial), store.WithExitOnError())
	for _, entry := range set.Reducers {
		if err := st.Register(entry.ID, entry.Reducer.Func()); err != nil {
			return err
		}
	}

	actions, err := readActions(c.Actions)
	if err != nil {
		return err
	}
	for idx, action := range actions {
		if err := st.Dispatch(action); err != nil {
			return fmt.Errorf("action %d (%s): %w", idx+1, action.Type, err)
		}
	}

	return write(e.out, c.Format, st.State())
}

func readActions(path string) ([]reducer.Action, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open actions: %w", err)
	}
	defer f.Close()

	var actions []reducer.Action
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var action reducer.Action
		if err := json.Unmarshal([]byte(text), &action); err != nil {
			return nil, fmt.Errorf("actions line %d: %w", line, err)
		}
		actions = append(actions, action)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read actions: %w", err)
	}
	return actions, nil
}

func write(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		raw, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(raw))
		return err
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var c cli
	parser, err := kong.New(&c,
		kong.Name("reducer-tables"),
		kong.Description("Inspect action tables and replay actions through configured reducers."),
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	return ctx.Run(&env{
		out:    stdout,
		logger: newLogger(stderr, c.LogLevel),
	})
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

