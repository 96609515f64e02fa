package reducer

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// EntityKey is the payload field holding the entity a rule merges into state.
const EntityKey = "entity"

// State is the keyed tree reducers operate on. Nested records are
// map[string]any; values are treated as immutable once published.
type State = map[string]any

// Payload carries the optional entity plus any fields path resolvers read.
type Payload map[string]any

// Entity returns the raw payload entity, if any.
func (p Payload) Entity() (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p[EntityKey]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String returns a payload field as a string.
func (p Payload) String(key string) string {
	if p == nil {
		return ""
	}
	s, _ := p[key].(string)
	return s
}

// ErrInvalidAction marks actions without a type.
var ErrInvalidAction = errors.New("action type is required", errors.CategoryValidation).
	WithTextCode("INVALID_ACTION")

// Action is the message a store dispatches to reducers.
type Action struct {
	Type    string  `json:"type" yaml:"type"`
	Payload Payload `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// NewAction builds an action, setting the entity when one is given.
func NewAction(actionType string, entity any) Action {
	a := Action{Type: actionType}
	if entity != nil {
		a.Payload = Payload{EntityKey: entity}
	}
	return a
}

// WithPayload returns a copy of the action with key set in its payload.
func (a Action) WithPayload(key string, value any) Action {
	payload := make(Payload, len(a.Payload)+1)
	for k, v := range a.Payload {
		payload[k] = v
	}
	payload[key] = value
	a.Payload = payload
	return a
}

func (a Action) Validate() error {
	if strings.TrimSpace(a.Type) == "" {
		return ErrInvalidAction
	}
	return nil
}
