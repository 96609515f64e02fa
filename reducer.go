package reducer

import (
	"fmt"

	"github.com/goliatone/go-reducer/actiontype"
)

// Reducer updates the slice of state it governs in response to actions of
// its Types. It holds no mutable state; Update is safe to call concurrently
// with distinct state snapshots.
type Reducer[E any] struct {
	types      actiontype.Types
	path       Path
	rules      map[string]Rule[E]
	normalizer Normalizer[E]
	mode       UpdateMode
	debug      Debug
	logger     Logger
}

// Func is the plain reducer signature stores compose.
type Func func(state State, action Action) (State, error)

// Handles reports whether actionType belongs to this reducer's Types.
func (r *Reducer[E]) Handles(actionType string) bool {
	return r.types.Has(actionType)
}

func (r *Reducer[E]) Types() actiontype.Types {
	return r.types
}

func (r *Reducer[E]) UpdateMode() UpdateMode {
	return r.mode
}

// Func returns Update as a Func.
func (r *Reducer[E]) Func() Func {
	return r.Update
}

// Update returns the next state for action. Actions outside the reducer's
// Types are logged and return state unchanged. An action matching a name
// without a rule fails with MissingRuleError.
func (r *Reducer[E]) Update(state State, action Action) (State, error) {
	name, ok := r.types.Name(action.Type)
	if !ok {
		r.logger.Error("unable to find action for %s", action.Type)
		return state, nil
	}

	if r.debug.Enabled(name) {
		r.trace(state, action)
	}

	rule, ok := r.rules[name]
	if !ok {
		return state, &MissingRuleError{Name: name, ActionType: action.Type}
	}

	entity, err := r.entity(action)
	if err != nil {
		return state, err
	}

	path, err := resolvePath(r.path, action)
	if err != nil {
		return state, err
	}

	if len(path) == 0 {
		next, err := rule(state, action, entity, r.mode)
		if err != nil {
			return state, &RuleError{Name: name, ActionType: action.Type, Err: err}
		}
		return next, nil
	}

	slice, _ := GetIn(state, path).(map[string]any)
	if slice == nil {
		slice = State{}
	}
	next, err := rule(slice, action, entity, r.mode)
	if err != nil {
		return state, &RuleError{Name: name, ActionType: action.Type, Err: err}
	}
	return AssocIn(state, path, next), nil
}

func (r *Reducer[E]) entity(action Action) (E, error) {
	var zero E
	raw, ok := action.Payload.Entity()
	if !ok {
		return zero, nil
	}
	if r.normalizer != nil {
		return r.normalizer(raw)
	}
	e, ok := raw.(E)
	if !ok {
		return zero, &EntityTypeError{ActionType: action.Type, Want: fmt.Sprintf("%T", zero), Got: raw}
	}
	return e, nil
}

// trace logs the action type with the prior state and the action, as fields
// when the logger supports them and inline otherwise.
func (r *Reducer[E]) trace(state State, action Action) {
	fields := map[string]any{
		"state":  state,
		"action": action,
	}
	if fl, ok := r.logger.(FieldsLogger); ok {
		fl.WithFields(fields).Info(action.Type)
		return
	}
	r.logger.Info("%s %v", action.Type, fields)
}
