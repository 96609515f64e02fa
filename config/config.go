package config

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-reducer"
	"github.com/goliatone/go-reducer/actiontype"
	"gopkg.in/yaml.v3"
)

// Action kinds accepted in table definitions.
const (
	KindBasic = "basic"
	KindGroup = "group"
	KindAsync = "async"
)

// Document describes action tables and the reducers built on them.
type Document struct {
	Version  int             `json:"version" yaml:"version"`
	Async    []string        `json:"async,omitempty" yaml:"async,omitempty"`
	Tables   []TableConfig   `json:"tables" yaml:"tables"`
	Reducers []ReducerConfig `json:"reducers,omitempty" yaml:"reducers,omitempty"`
	Meta     map[string]any  `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// Lifecycle returns the async suffixes, defaulting to START, END and ERROR.
func (d Document) Lifecycle() []string {
	if len(d.Async) == 0 {
		return []string{actiontype.Start, actiontype.End, actiontype.Error}
	}
	return d.Async
}

// Validate performs structural validation.
func (d Document) Validate() error {
	bases := make(map[string]struct{}, len(d.Tables))
	for idx, table := range d.Tables {
		if err := table.Validate(); err != nil {
			return fmt.Errorf("table[%d]: %w", idx, err)
		}
		if _, dup := bases[table.Base]; dup {
			return fmt.Errorf("table[%d]: base %s declared twice", idx, table.Base)
		}
		bases[table.Base] = struct{}{}
	}

	ids := make(map[string]struct{}, len(d.Reducers))
	for idx, r := range d.Reducers {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("reducer[%d]: %w", idx, err)
		}
		if _, ok := bases[r.Table]; !ok {
			return fmt.Errorf("reducer %s references unknown table %s", r.ID, r.Table)
		}
		if _, dup := ids[r.ID]; dup {
			return fmt.Errorf("reducer id %s declared twice", r.ID)
		}
		ids[r.ID] = struct{}{}
	}
	return nil
}

// TableConfig declares the actions of one base name.
type TableConfig struct {
	Base    string         `json:"base" yaml:"base"`
	Actions []ActionConfig `json:"actions" yaml:"actions"`
}

func (t TableConfig) Validate() error {
	if strings.TrimSpace(t.Base) == "" {
		return fmt.Errorf("base is required")
	}
	for idx, a := range t.Actions {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("%s action[%d]: %w", t.Base, idx, err)
		}
	}
	return nil
}

// ActionConfig declares one table entry.
type ActionConfig struct {
	Name string   `json:"name" yaml:"name"`
	Kind string   `json:"kind,omitempty" yaml:"kind,omitempty"`
	Subs []string `json:"subs,omitempty" yaml:"subs,omitempty"`
}

func (a ActionConfig) kind() string {
	if a.Kind == "" {
		return KindBasic
	}
	return strings.ToLower(a.Kind)
}

func (a ActionConfig) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("name is required")
	}
	switch a.kind() {
	case KindBasic:
		if len(a.Subs) > 0 {
			return fmt.Errorf("basic action %s cannot declare subs", a.Name)
		}
	case KindGroup:
		if len(a.Subs) == 0 {
			return fmt.Errorf("group action %s requires subs", a.Name)
		}
	case KindAsync:
	default:
		return fmt.Errorf("action %s has unknown kind %s (%s|%s|%s)", a.Name, a.Kind, KindBasic, KindGroup, KindAsync)
	}
	return nil
}

// ReducerConfig declares a reducer over a whole table or one of its groups.
//
// With a group, action names are the group's subs (START, END, ...) and the
// default rules apply. Without one, the reducer sees the flattened table,
// whose names are prefixed (LOAD_NEW_START, MARK_ALL). The seeded defaults
// never match those, so omit and update_mode only matter to the rules listed
// here, and building fails when Rules is empty.
type ReducerConfig struct {
	ID           string            `json:"id" yaml:"id"`
	Table        string            `json:"table" yaml:"table"`
	Group        string            `json:"group,omitempty" yaml:"group,omitempty"`
	Path         []string          `json:"path,omitempty" yaml:"path,omitempty"`
	PathResolver string            `json:"path_resolver,omitempty" yaml:"path_resolver,omitempty"`
	UpdateMode   string            `json:"update_mode,omitempty" yaml:"update_mode,omitempty"`
	IndexBy      string            `json:"index_by,omitempty" yaml:"index_by,omitempty"`
	Normalizer   string            `json:"normalizer,omitempty" yaml:"normalizer,omitempty"`
	Omit         []string          `json:"omit,omitempty" yaml:"omit,omitempty"`
	Rules        map[string]string `json:"rules,omitempty" yaml:"rules,omitempty"`
	Debug        DebugConfig       `json:"debug,omitempty" yaml:"debug,omitempty"`
}

func (r ReducerConfig) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(r.Table) == "" {
		return fmt.Errorf("reducer %s requires table", r.ID)
	}
	if len(r.Path) > 0 && r.PathResolver != "" {
		return fmt.Errorf("reducer %s sets both path and path_resolver", r.ID)
	}
	if r.IndexBy != "" && r.Normalizer != "" {
		return fmt.Errorf("reducer %s sets both index_by and normalizer", r.ID)
	}
	if r.UpdateMode != "" {
		if _, err := reducer.ParseUpdateMode(r.UpdateMode); err != nil {
			return fmt.Errorf("reducer %s: %w", r.ID, err)
		}
	}
	return nil
}

// DebugConfig accepts a bool, a single logical name or a list of names.
type DebugConfig struct {
	All   bool
	Names []string
}

// UnmarshalYAML decodes the bool, string and list forms.
func (d *DebugConfig) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.ShortTag() == "!!bool" {
			return value.Decode(&d.All)
		}
		var name string
		if err := value.Decode(&name); err != nil {
			return err
		}
		if name != "" {
			d.Names = []string{name}
		}
		return nil
	case yaml.SequenceNode:
		return value.Decode(&d.Names)
	}
	return fmt.Errorf("debug must be a bool, a name or a list of names")
}

// Setting converts the config into a reducer.Debug.
func (d DebugConfig) Setting() reducer.Debug {
	if d.All {
		return reducer.DebugAll()
	}
	return reducer.DebugActions(d.Names...)
}
