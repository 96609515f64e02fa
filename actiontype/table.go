package actiontype

import "github.com/goliatone/go-errors"

// Table is the frozen result of Creator.Build.
type Table struct {
	baseName string
	entries  map[string]entry
}

func (t Table) BaseName() string {
	return t.baseName
}

// Names returns every top level action name in sorted order.
func (t Table) Names() []string {
	return sortedKeys(t.entries)
}

// Basic returns the identifier of a basic entry.
func (t Table) Basic(name string) (string, bool) {
	e, ok := t.entries[name]
	if !ok || e.subs != nil {
		return "", false
	}
	return e.id, true
}

// Type returns the identifier for name and sub name of a grouped entry.
func (t Table) Type(name, sub string) (string, bool) {
	e, ok := t.entries[name]
	if !ok || e.subs == nil {
		return "", false
	}
	id, ok := e.subs[sub]
	return id, ok
}

// Subs returns the sub names of a grouped entry in declaration order.
func (t Table) Subs(name string) []string {
	e, ok := t.entries[name]
	if !ok {
		return nil
	}
	return append([]string(nil), e.order...)
}

// Group returns the sub table of a grouped entry, keyed by sub name. This is
// the view a reducer for one async action consumes: START, END and ERROR map
// directly onto the default rules.
func (t Table) Group(name string) (Types, error) {
	e, ok := t.entries[name]
	if !ok {
		return Types{}, errors.New("action not found in table", errors.CategoryBadInput).
			WithTextCode("ACTION_NOT_FOUND").
			WithMetadata(map[string]any{"base": t.baseName, "name": name})
	}
	if e.subs == nil {
		return Types{}, errors.New("action is not a group", errors.CategoryBadInput).
			WithTextCode("ACTION_NOT_GROUP").
			WithMetadata(map[string]any{"base": t.baseName, "name": name})
	}
	return NewTypes(e.subs)
}

// Flatten returns every identifier in the table keyed by name for basic
// entries and name_sub for grouped ones.
func (t Table) Flatten() (Types, error) {
	flat := make(map[string]string)
	for name, e := range t.entries {
		if e.subs == nil {
			flat[name] = e.id
			continue
		}
		for sub, id := range e.subs {
			flat[join(name, sub)] = id
		}
	}
	return NewTypes(flat)
}

// Map returns the table as plain nested maps: basic entries map to their
// identifier and grouped entries to a map of sub name to identifier.
func (t Table) Map() map[string]any {
	out := make(map[string]any, len(t.entries))
	for name, e := range t.entries {
		if e.subs == nil {
			out[name] = e.id
			continue
		}
		subs := make(map[string]any, len(e.subs))
		for k, v := range e.subs {
			subs[k] = v
		}
		out[name] = subs
	}
	return out
}
