package reducer

import (
	"sort"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-reducer/actiontype"
)

// Option configures a Builder at construction time.
type Option func(*options)

type options struct {
	updateMode UpdateMode
	logger     Logger
}

// WithUpdateMode sets how the END rule stores entities. Defaults to UpdateMap.
func WithUpdateMode(mode UpdateMode) Option {
	return func(o *options) {
		o.updateMode = mode
	}
}

// WithLogger sets the sink for unmatched actions and traces.
func WithLogger(l Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Builder assembles the rule set, normalizer, path and tracing of a reducer.
type Builder[E any] struct {
	types      actiontype.Types
	path       Path
	opts       options
	rules      map[string]Rule[E]
	normalizer Normalizer[E]
	debug      Debug
}

// NewBuilder starts a reducer for types, operating on the slice at path. A
// nil path governs the whole state.
func NewBuilder[E any](types actiontype.Types, path Path, opts ...Option) *Builder[E] {
	o := options{updateMode: UpdateMap}
	for _, opt := range opts {
		opt(&o)
	}
	if path == nil {
		path = FixedPath()
	}
	return &Builder[E]{
		types: types,
		path:  path,
		opts:  o,
		rules: DefaultRules[E](),
	}
}

// OmitDefaults removes seeded rules by name. An action that later matches an
// omitted name fails with MissingRuleError.
func (b *Builder[E]) OmitDefaults(names ...string) *Builder[E] {
	for _, name := range names {
		delete(b.rules, name)
	}
	return b
}

// AddRule adds or replaces the rule for a logical name.
func (b *Builder[E]) AddRule(name string, rule Rule[E]) *Builder[E] {
	b.rules[name] = rule
	return b
}

// SetEntityNormalizer sets the function applied to payload entities.
func (b *Builder[E]) SetEntityNormalizer(n Normalizer[E]) *Builder[E] {
	b.normalizer = n
	return b
}

// IndexEntity normalizes list entities into a record keyed by field.
func (b *Builder[E]) IndexEntity(field string) *Builder[E] {
	b.normalizer = As[E](IndexBy(field))
	return b
}

// Debug sets which matched actions are traced.
func (b *Builder[E]) Debug(d Debug) *Builder[E] {
	b.debug = d
	return b
}

// Build freezes the configuration into a Reducer. The rule set is copied, so
// later builder calls do not affect the result. Build fails when a rule names
// an unknown action, or when no rule can match any action in the Types.
func (b *Builder[E]) Build() (*Reducer[E], error) {
	rules := make(map[string]Rule[E], len(b.rules))
	for name, rule := range b.rules {
		if rule == nil {
			continue
		}
		if _, ok := b.types.Identifier(name); !ok && !IsDefaultRule(name) {
			return nil, errors.New("rule registered for unknown action name", errors.CategoryBadInput).
				WithTextCode("UNKNOWN_ACTION_NAME").
				WithMetadata(map[string]any{"name": name, "known": b.types.Names()})
		}
		rules[name] = rule
	}

	if !b.reachable(rules) {
		return nil, errors.New("no rule matches any action name", errors.CategoryBadInput).
			WithTextCode("NO_REACHABLE_RULES").
			WithMetadata(map[string]any{"rules": sortedRuleNames(rules), "known": b.types.Names()})
	}

	return &Reducer[E]{
		types:      b.types,
		path:       b.path,
		rules:      rules,
		normalizer: b.normalizer,
		mode:       b.opts.updateMode,
		debug:      b.debug,
		logger:     normalizeLogger(b.opts.logger),
	}, nil
}

// reachable reports whether some rule is keyed by a name in the Types. Seeded
// defaults never match a flattened table, whose names carry the group prefix.
func (b *Builder[E]) reachable(rules map[string]Rule[E]) bool {
	for name := range rules {
		if _, ok := b.types.Identifier(name); ok {
			return true
		}
	}
	return false
}

func sortedRuleNames[E any](rules map[string]Rule[E]) []string {
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MustBuild is Build for statically configured reducers; it panics on error.
func (b *Builder[E]) MustBuild() *Reducer[E] {
	r, err := b.Build()
	if err != nil {
		panic(err)
	}
	return r
}
