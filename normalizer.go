package reducer

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/goliatone/go-errors"
)

// Normalizer reshapes a raw payload entity before rules see it.
type Normalizer[E any] func(raw any) (E, error)

// IndexBy returns a normalizer turning a list of records into a record keyed
// by the string form of each element's field value.
func IndexBy(field string) Normalizer[map[string]any] {
	return func(raw any) (map[string]any, error) {
		list := reflect.ValueOf(raw)
		if list.Kind() != reflect.Slice && list.Kind() != reflect.Array {
			return nil, errors.New("entity is not a list", errors.CategoryValidation).
				WithTextCode("ENTITY_NOT_LIST").
				WithMetadata(map[string]any{"field": field, "type": fmt.Sprintf("%T", raw)})
		}

		out := make(map[string]any, list.Len())
		for i := 0; i < list.Len(); i++ {
			item := list.Index(i).Interface()
			rec, ok := ToRecord(item)
			if !ok || rec == nil {
				return nil, errors.New("list element is not a record", errors.CategoryValidation).
					WithTextCode("ENTITY_NOT_RECORD").
					WithMetadata(map[string]any{"field": field, "index": i})
			}
			key, ok := rec[field]
			if !ok {
				return nil, errors.New("list element is missing index field", errors.CategoryValidation).
					WithTextCode("INDEX_FIELD_MISSING").
					WithMetadata(map[string]any{"field": field, "index": i})
			}
			out[indexKey(key)] = rec
		}
		return out, nil
	}
}

// indexKey renders an index value the way it reads in JSON, so 1000000 is
// keyed "1000000" rather than "1e+06".
func indexKey(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	}
	return fmt.Sprint(v)
}

// As adapts a normalizer to a reducer whose entity type is E.
func As[E any, T any](n Normalizer[T]) Normalizer[E] {
	if n == nil {
		return nil
	}
	return func(raw any) (E, error) {
		v, err := n(raw)
		if err != nil {
			var zero E
			return zero, err
		}
		e, ok := any(v).(E)
		if !ok {
			var zero E
			return zero, &EntityTypeError{Want: fmt.Sprintf("%T", zero), Got: v}
		}
		return e, nil
	}
}
