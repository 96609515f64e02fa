package reducer

import (
	"github.com/goliatone/go-errors"
)

// Path locates the slice a reducer governs inside the state tree. It is
// either a FixedPath or a ResolvedPath.
type Path interface {
	resolve(payload Payload) ([]string, error)
}

type fixedPath []string

// FixedPath is a constant path. No keys means the whole state.
func FixedPath(keys ...string) Path {
	return fixedPath(append([]string(nil), keys...))
}

func (p fixedPath) resolve(Payload) ([]string, error) {
	return p, nil
}

// PathResolver computes a path from an action payload.
type PathResolver func(payload Payload) ([]string, error)

type resolvedPath struct {
	fn PathResolver
}

// ResolvedPath computes the path per action.
func ResolvedPath(fn PathResolver) Path {
	return resolvedPath{fn: fn}
}

func (p resolvedPath) resolve(payload Payload) ([]string, error) {
	if p.fn == nil {
		return nil, errors.New("path resolver is nil", errors.CategoryBadInput).
			WithTextCode("NIL_PATH_RESOLVER")
	}
	return p.fn(payload)
}

// PayloadPath returns a resolver building the path from fixed prefix keys
// followed by the string payload fields named in fields.
func PayloadPath(prefix []string, fields ...string) PathResolver {
	prefix = append([]string(nil), prefix...)
	return func(payload Payload) ([]string, error) {
		path := append(make([]string, 0, len(prefix)+len(fields)), prefix...)
		for _, f := range fields {
			v := payload.String(f)
			if v == "" {
				return nil, errors.New("payload field required by path is empty", errors.CategoryBadInput).
					WithTextCode("PATH_FIELD_MISSING").
					WithMetadata(map[string]any{"field": f})
			}
			path = append(path, v)
		}
		return path, nil
	}
}

func resolvePath(p Path, action Action) ([]string, error) {
	if p == nil {
		return nil, nil
	}
	path, err := p.resolve(action.Payload)
	if err != nil {
		return nil, &PathError{ActionType: action.Type, Err: err}
	}
	return path, nil
}
