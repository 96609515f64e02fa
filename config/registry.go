package config

import (
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-reducer"
)

// Registry stores named values referenced from configuration documents.
type Registry[T any] struct {
	kind  string
	items map[string]T
}

// NewRegistry creates an empty registry; kind names the entries in errors.
func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:  kind,
		items: make(map[string]T),
	}
}

// Register stores v under name. Names must be unique.
func (r *Registry[T]) Register(name string, v T) error {
	if name == "" {
		return errors.New(r.kind+" name cannot be empty", errors.CategoryBadInput).
			WithTextCode("REGISTRY_EMPTY_NAME")
	}
	if r.items == nil {
		r.items = make(map[string]T)
	}
	if _, exists := r.items[name]; exists {
		return errors.New(r.kind+" already registered", errors.CategoryConflict).
			WithTextCode("REGISTRY_DUPLICATE").
			WithMetadata(map[string]any{"name": name})
	}
	r.items[name] = v
	return nil
}

// Lookup retrieves a value by name.
func (r *Registry[T]) Lookup(name string) (T, bool) {
	if r == nil {
		var zero T
		return zero, false
	}
	v, ok := r.items[name]
	return v, ok
}

func (r *Registry[T]) resolve(name string) (T, error) {
	v, ok := r.Lookup(name)
	if !ok {
		kind := "entry"
		if r != nil {
			kind = r.kind
		}
		return v, errors.New(kind+" not registered", errors.CategoryBadInput).
			WithTextCode("REGISTRY_NOT_FOUND").
			WithMetadata(map[string]any{"name": name})
	}
	return v, nil
}

// NewRuleRegistry returns a registry for processing rules.
func NewRuleRegistry() *Registry[reducer.Rule[any]] {
	return NewRegistry[reducer.Rule[any]]("rule")
}

// NewNormalizerRegistry returns a registry for entity normalizers.
func NewNormalizerRegistry() *Registry[reducer.Normalizer[any]] {
	return NewRegistry[reducer.Normalizer[any]]("normalizer")
}

// NewPathRegistry returns a registry for path resolvers.
func NewPathRegistry() *Registry[reducer.PathResolver] {
	return NewRegistry[reducer.PathResolver]("path resolver")
}
