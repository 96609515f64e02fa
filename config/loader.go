package config

import (
	"fmt"
	"os"

	"github.com/goliatone/go-reducer"
	"github.com/goliatone/go-reducer/actiontype"
	"gopkg.in/yaml.v3"
)

// BuildContext bundles the registries and logger used to build reducers.
type BuildContext struct {
	Rules       *Registry[reducer.Rule[any]]
	Normalizers *Registry[reducer.Normalizer[any]]
	Paths       *Registry[reducer.PathResolver]
	Logger      reducer.Logger
}

// Entry is a built reducer with its configured id.
type Entry struct {
	ID      string
	Reducer *reducer.Reducer[any]
}

// Set is the result of building a Document.
type Set struct {
	Tables   map[string]actiontype.Table
	Reducers []Entry
}

// Reducer returns a built reducer by id.
func (s *Set) Reducer(id string) (*reducer.Reducer[any], bool) {
	for _, e := range s.Reducers {
		if e.ID == id {
			return e.Reducer, true
		}
	}
	return nil, false
}

// Parse decodes YAML or JSON into a Document and validates it.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		// yaml can handle JSON too, so a single attempt is fine
		return doc, err
	}
	return doc, doc.Validate()
}

// Load reads and parses a document from path.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read config: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return doc, fmt.Errorf("parse config %s: %w", path, err)
	}
	return doc, nil
}

// BuildTables builds every table in the document.
func BuildTables(doc Document) map[string]actiontype.Table {
	setup := actiontype.NewSetup(doc.Lifecycle()...)
	tables := make(map[string]actiontype.Table, len(doc.Tables))
	for _, tc := range doc.Tables {
		c := setup.Creator(tc.Base)
		for _, a := range tc.Actions {
			switch a.kind() {
			case KindBasic:
				c.AddBasic(a.Name)
			case KindGroup:
				c.Add(a.Name, a.Subs...)
			case KindAsync:
				c.AddAsync(a.Name, a.Subs...)
			}
		}
		tables[tc.Base] = c.Build()
	}
	return tables
}

// Build constructs tables and reducers from a validated document.
func Build(doc Document, bctx BuildContext) (*Set, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	set := &Set{Tables: BuildTables(doc)}
	for _, rc := range doc.Reducers {
		r, err := buildReducer(set.Tables[rc.Table], rc, bctx)
		if err != nil {
			return nil, fmt.Errorf("build reducer %s: %w", rc.ID, err)
		}
		set.Reducers = append(set.Reducers, Entry{ID: rc.ID, Reducer: r})
	}
	return set, nil
}

func buildReducer(table actiontype.Table, rc ReducerConfig, bctx BuildContext) (*reducer.Reducer[any], error) {
	types, err := reducerTypes(table, rc)
	if err != nil {
		return nil, err
	}

	path := reducer.FixedPath(rc.Path...)
	if rc.PathResolver != "" {
		fn, err := bctx.Paths.resolve(rc.PathResolver)
		if err != nil {
			return nil, err
		}
		path = reducer.ResolvedPath(fn)
	}

	opts := []reducer.Option{reducer.WithLogger(bctx.Logger)}
	if rc.UpdateMode != "" {
		mode, err := reducer.ParseUpdateMode(rc.UpdateMode)
		if err != nil {
			return nil, err
		}
		opts = append(opts, reducer.WithUpdateMode(mode))
	}

	b := reducer.NewBuilder[any](types, path, opts...).
		OmitDefaults(rc.Omit...).
		Debug(rc.Debug.Setting())

	switch {
	case rc.IndexBy != "":
		b.IndexEntity(rc.IndexBy)
	case rc.Normalizer != "":
		n, err := bctx.Normalizers.resolve(rc.Normalizer)
		if err != nil {
			return nil, err
		}
		b.SetEntityNormalizer(n)
	}

	for name, ruleID := range rc.Rules {
		rule, err := bctx.Rules.resolve(ruleID)
		if err != nil {
			return nil, err
		}
		b.AddRule(name, rule)
	}

	return b.Build()
}

func reducerTypes(table actiontype.Table, rc ReducerConfig) (actiontype.Types, error) {
	if rc.Group != "" {
		return table.Group(rc.Group)
	}
	return table.Flatten()
}
