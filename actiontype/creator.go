package actiontype

import "strings"

// Separator joins base name, action name and sub name into an identifier.
const Separator = "_"

// Default lifecycle suffixes for async actions.
const (
	Start = "START"
	End   = "END"
	Error = "ERROR"
)

// Logger is the sink Creator.Debug writes to.
type Logger interface {
	Debug(msg string, args ...any)
}

// Setup holds the lifecycle suffixes shared by every creator made from it.
type Setup struct {
	lifecycle []string
}

// NewSetup returns a Setup whose async actions expand to the given suffixes.
func NewSetup(lifecycle ...string) *Setup {
	return &Setup{lifecycle: dedupe(lifecycle)}
}

// DefaultSetup expands async actions to START, END and ERROR.
func DefaultSetup() *Setup {
	return NewSetup(Start, End, Error)
}

// Lifecycle returns a copy of the configured suffixes.
func (s *Setup) Lifecycle() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.lifecycle...)
}

// Creator returns a table creator for baseName bound to this setup.
func (s *Setup) Creator(baseName string) *Creator {
	c := NewCreator(baseName)
	c.setup = s
	return c
}

// Creator accumulates table entries for one base name.
type Creator struct {
	baseName string
	setup    *Setup
	entries  map[string]entry
}

type entry struct {
	id   string
	subs map[string]string
	// order keeps sub names in declaration order for printing.
	order []string
}

// NewCreator returns a creator without lifecycle suffixes; AddAsync then only
// uses the suffixes passed to it.
func NewCreator(baseName string) *Creator {
	return &Creator{
		baseName: baseName,
		entries:  make(map[string]entry),
	}
}

// BaseName returns the prefix used for every identifier.
func (c *Creator) BaseName() string {
	return c.baseName
}

// AddBasic adds name -> BASE_name.
func (c *Creator) AddBasic(name string) *Creator {
	c.entries[name] = entry{id: join(c.baseName, name)}
	return c
}

// Add adds name -> {sub -> BASE_name_sub} for the given sub names.
func (c *Creator) Add(name string, subs ...string) *Creator {
	c.entries[name] = c.group(name, subs)
	return c
}

// AddAsync adds a group made of the setup lifecycle suffixes followed by extra.
func (c *Creator) AddAsync(name string, extra ...string) *Creator {
	subs := append(c.setup.Lifecycle(), extra...)
	c.entries[name] = c.group(name, subs)
	return c
}

// Debug writes the accumulated table to logger.
func (c *Creator) Debug(logger Logger) *Creator {
	if logger != nil {
		logger.Debug("%s %v", c.baseName, c.snapshot().Map())
	}
	return c
}

// Build freezes the accumulated entries into a Table. Later calls on the
// creator do not affect tables already built.
func (c *Creator) Build() Table {
	return c.snapshot()
}

func (c *Creator) snapshot() Table {
	entries := make(map[string]entry, len(c.entries))
	for name, e := range c.entries {
		cp := entry{id: e.id, order: append([]string(nil), e.order...)}
		if e.subs != nil {
			cp.subs = make(map[string]string, len(e.subs))
			for k, v := range e.subs {
				cp.subs[k] = v
			}
		}
		entries[name] = cp
	}
	return Table{baseName: c.baseName, entries: entries}
}

func (c *Creator) group(name string, subs []string) entry {
	subs = dedupe(subs)
	e := entry{
		subs:  make(map[string]string, len(subs)),
		order: subs,
	}
	for _, sub := range subs {
		e.subs[sub] = join(c.baseName, name, sub)
	}
	return e
}

func join(parts ...string) string {
	return strings.Join(parts, Separator)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
