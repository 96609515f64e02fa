package actiontype

import (
	"sort"

	"github.com/goliatone/go-errors"
)

// Types is the flat logical name to identifier view a single reducer consumes.
// It carries a reverse index so an incoming action type resolves to its logical
// name without scanning. A Types value is immutable once built.
type Types struct {
	byName map[string]string
	byID   map[string]string
}

// NewTypes builds a Types from a logical name to identifier map. Two names that
// share one identifier are rejected.
func NewTypes(entries map[string]string) (Types, error) {
	t := Types{
		byName: make(map[string]string, len(entries)),
		byID:   make(map[string]string, len(entries)),
	}

	for _, name := range sortedKeys(entries) {
		id := entries[name]
		if name == "" || id == "" {
			return Types{}, errors.New("action name and identifier are required", errors.CategoryBadInput).
				WithTextCode("EMPTY_ACTION_TYPE").
				WithMetadata(map[string]any{"name": name, "identifier": id})
		}
		if other, exists := t.byID[id]; exists {
			return Types{}, errors.New("identifier shared by two action names", errors.CategoryConflict).
				WithTextCode("DUPLICATE_ACTION_TYPE").
				WithMetadata(map[string]any{"identifier": id, "names": []string{other, name}})
		}
		t.byName[name] = id
		t.byID[id] = name
	}

	return t, nil
}

// MustTypes is NewTypes for static tables; it panics on conflicts.
func MustTypes(entries map[string]string) Types {
	t, err := NewTypes(entries)
	if err != nil {
		panic(err)
	}
	return t
}

// Identifier returns the identifier registered for a logical name.
func (t Types) Identifier(name string) (string, bool) {
	id, ok := t.byName[name]
	return id, ok
}

// Name resolves an identifier back to its logical name.
func (t Types) Name(identifier string) (string, bool) {
	name, ok := t.byID[identifier]
	return name, ok
}

// Has reports whether the identifier belongs to this set.
func (t Types) Has(identifier string) bool {
	_, ok := t.byID[identifier]
	return ok
}

// Names returns the logical names in sorted order.
func (t Types) Names() []string {
	return sortedKeys(t.byName)
}

func (t Types) Len() int {
	return len(t.byName)
}

// Map returns a copy of the logical name to identifier entries.
func (t Types) Map() map[string]string {
	out := make(map[string]string, len(t.byName))
	for k, v := range t.byName {
		out[k] = v
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
