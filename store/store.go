package store

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-reducer"
)

// Listener is notified with the action and the state it produced.
type Listener func(state reducer.State, action reducer.Action)

// Store holds the current state tree and serializes dispatch over its
// reducers. Reducers run in registration order, each receiving the state
// produced by the previous one.
type Store struct {
	mu        sync.Mutex
	state     reducer.State
	reducers  []entry
	listeners []*subs
	ExitOnErr bool
}

type entry struct {
	id string
	fn reducer.Func
}

// Option defines the functional option signature.
type Option func(*Store)

// WithInitialState seeds the store state.
func WithInitialState(state reducer.State) Option {
	return func(s *Store) {
		s.state = state
	}
}

// WithExitOnError stops a dispatch at the first reducer error. Without it
// the remaining reducers still run and errors are joined.
func WithExitOnError() Option {
	return func(s *Store) {
		s.ExitOnErr = true
	}
}

// New applies the given options to a new store.
func New(opts ...Option) *Store {
	s := &Store{state: reducer.State{}}
	for _, opt := range opts {
		opt(s)
	}
	if s.state == nil {
		s.state = reducer.State{}
	}
	return s
}

// Register appends a reducer under id.
func (s *Store) Register(id string, fn reducer.Func) error {
	if fn == nil {
		return errors.New("reducer cannot be nil", errors.CategoryBadInput).
			WithTextCode("NIL_REDUCER")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.reducers {
		if e.id == id {
			return errors.New("reducer already registered", errors.CategoryConflict).
				WithTextCode("REDUCER_ALREADY_REGISTERED").
				WithMetadata(map[string]any{"id": id})
		}
	}
	s.reducers = append(s.reducers, entry{id: id, fn: fn})
	return nil
}

// State returns the current snapshot. Callers must not modify it.
func (s *Store) State() reducer.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch runs action through every reducer and publishes the new state.
// The state is committed even when some reducers fail, unless ExitOnErr is
// set, in which case nothing is committed.
func (s *Store) Dispatch(action reducer.Action) error {
	if err := action.Validate(); err != nil {
		return err
	}

	state, listeners, changed, err := s.reduce(action)
	if changed {
		for _, l := range listeners {
			l.fn(state, action)
		}
	}
	return err
}

func (s *Store) reduce(action reducer.Action) (reducer.State, []*subs, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state
	var errs error
	for _, e := range s.reducers {
		next, err := e.fn(state, action)
		if err != nil {
			wrapped := errors.Wrap(err, errors.CategoryHandler, fmt.Sprintf("reducer %s failed for %s", e.id, action.Type)).
				WithTextCode("REDUCER_FAILED")
			if s.ExitOnErr {
				return nil, nil, false, wrapped
			}
			errs = errors.Join(errs, wrapped)
			continue
		}
		state = next
	}

	changed := !sameState(s.state, state)
	s.state = state
	return state, append([]*subs(nil), s.listeners...), changed, errs
}

// Subscribe registers a listener called after every dispatch that changed
// the state.
func (s *Store) Subscribe(fn Listener) Subscription {
	sub := &subs{store: s, fn: fn}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, sub)
	return sub
}

func sameState(a, b reducer.State) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
