package reducer

import (
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-reducer/actiontype"
)

// Slice flags maintained by the default rules.
const (
	LoadingKey = "loading"
	ErrorKey   = "error"
	ItemsKey   = "items"
)

// UpdateMode selects how the END rule stores a completed entity.
type UpdateMode int

const (
	// UpdateSelf deep-merges the entity into the slice.
	UpdateSelf UpdateMode = iota
	// UpdateMap replaces the slice items with the entity.
	UpdateMap
	// UpdateArray replaces the slice items with the entity.
	UpdateArray
)

func (m UpdateMode) String() string {
	switch m {
	case UpdateSelf:
		return "self"
	case UpdateMap:
		return "map"
	case UpdateArray:
		return "array"
	default:
		return "unknown"
	}
}

// ParseUpdateMode accepts self, map or array, case insensitive.
func ParseUpdateMode(s string) (UpdateMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "self":
		return UpdateSelf, nil
	case "map":
		return UpdateMap, nil
	case "array":
		return UpdateArray, nil
	}
	return UpdateSelf, errors.New("unknown update mode", errors.CategoryBadInput).
		WithTextCode("INVALID_UPDATE_MODE").
		WithMetadata(map[string]any{"mode": s})
}

func (m UpdateMode) replacesItems() bool {
	return m == UpdateMap || m == UpdateArray
}

// Rule computes the next slice for one logical action.
type Rule[E any] func(slice State, action Action, entity E, mode UpdateMode) (State, error)

// SetLoading marks a slice as loading and clears its error flag.
func SetLoading(slice State) State {
	out := cloneRecord(slice)
	out[LoadingKey] = true
	out[ErrorKey] = false
	return out
}

// SetLoadingError marks a slice as failed.
func SetLoadingError(slice State) State {
	out := cloneRecord(slice)
	out[LoadingKey] = false
	out[ErrorKey] = true
	return out
}

// SetLoaded marks a slice as loaded without error.
func SetLoaded(slice State) State {
	out := cloneRecord(slice)
	out[LoadingKey] = false
	out[ErrorKey] = false
	return out
}

// StartRule is the default START rule.
func StartRule[E any](slice State, _ Action, _ E, _ UpdateMode) (State, error) {
	return SetLoading(slice), nil
}

// ErrorRule is the default ERROR rule.
func ErrorRule[E any](slice State, _ Action, _ E, _ UpdateMode) (State, error) {
	return SetLoadingError(slice), nil
}

// EndRule is the default END rule: the slice is marked loaded, then the
// entity either replaces the items field or is deep-merged into the slice.
func EndRule[E any](slice State, action Action, entity E, mode UpdateMode) (State, error) {
	slice = SetLoaded(slice)
	if mode.replacesItems() {
		slice[ItemsKey] = entity
		return slice, nil
	}

	rec, ok := ToRecord(entity)
	if !ok {
		return nil, &EntityTypeError{ActionType: action.Type, Want: "a record", Got: entity}
	}
	return MergeDeep(slice, rec), nil
}

// DefaultRules returns a fresh START, ERROR and END rule set.
func DefaultRules[E any]() map[string]Rule[E] {
	return map[string]Rule[E]{
		actiontype.Start: StartRule[E],
		actiontype.Error: ErrorRule[E],
		actiontype.End:   EndRule[E],
	}
}

// IsDefaultRule reports whether name is one of the seeded rule names.
func IsDefaultRule(name string) bool {
	switch name {
	case actiontype.Start, actiontype.Error, actiontype.End:
		return true
	}
	return false
}
