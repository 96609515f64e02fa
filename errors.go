package reducer

import (
	"fmt"
)

// MissingRuleError is returned when an action matches a logical name that has
// no processing rule, usually because a default was omitted.
type MissingRuleError struct {
	Name       string
	ActionType string
}

func (e *MissingRuleError) Error() string {
	return fmt.Sprintf("no rule registered for %s (action %s)", e.Name, e.ActionType)
}

// PathError wraps a path resolver failure.
type PathError struct {
	ActionType string
	Err        error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("resolve path for %s: %v", e.ActionType, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// EntityTypeError reports an entity that cannot be used as the reducer's
// entity type, or merged into a slice.
type EntityTypeError struct {
	ActionType string
	Want       string
	Got        any
}

func (e *EntityTypeError) Error() string {
	return fmt.Sprintf("%s: entity of type %T is not %s", e.ActionType, e.Got, e.Want)
}

// RuleError wraps a failure returned by a processing rule.
type RuleError struct {
	Name       string
	ActionType string
	Err        error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %s failed for %s: %v", e.Name, e.ActionType, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}
