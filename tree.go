package reducer

import (
	"bytes"
	"encoding/json"
)

// GetIn returns the value at path, or nil when any segment is missing or not
// a record.
func GetIn(state State, path []string) any {
	var cur any = state
	for _, key := range path {
		rec, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = rec[key]
		if !ok {
			return nil
		}
	}
	return cur
}

// AssocIn returns a copy of state with value stored at path. Only the records
// along path are copied; every other branch is shared with the input. Missing
// or non-record segments are replaced by new records.
func AssocIn(state State, path []string, value any) State {
	if len(path) == 0 {
		if rec, ok := value.(map[string]any); ok {
			return rec
		}
		return State{}
	}

	out := cloneRecord(state)
	key := path[0]
	if len(path) == 1 {
		out[key] = value
		return out
	}

	child, _ := out[key].(map[string]any)
	out[key] = AssocIn(child, path[1:], value)
	return out
}

// MergeDeep merges src into dst recursively: records are merged key by key,
// any other src value replaces the dst value. dst is not modified.
func MergeDeep(dst, src State) State {
	out := cloneRecord(dst)
	for k, v := range src {
		srcRec, srcIsRec := v.(map[string]any)
		dstRec, dstIsRec := out[k].(map[string]any)
		if srcIsRec && dstIsRec {
			out[k] = MergeDeep(dstRec, srcRec)
			continue
		}
		out[k] = v
	}
	return out
}

// ToRecord converts an entity into a record. Records are returned as is,
// anything else goes through its JSON encoding so struct tags apply. Integral
// numbers come back as int64, the rest as float64. A nil entity yields a nil
// record.
func ToRecord(entity any) (map[string]any, bool) {
	switch v := entity.(type) {
	case nil:
		return nil, true
	case map[string]any:
		return v, true
	case Payload:
		return map[string]any(v), true
	}

	raw, err := json.Marshal(entity)
	if err != nil {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var rec map[string]any
	if err := dec.Decode(&rec); err != nil {
		return nil, false
	}
	if rec == nil {
		return nil, true
	}
	return restoreNumbers(rec).(map[string]any), true
}

// restoreNumbers turns decoded json.Number values back into int64 when they
// are integral and float64 otherwise.
func restoreNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, item := range t {
			t[k] = restoreNumbers(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = restoreNumbers(item)
		}
		return t
	}
	return v
}

func cloneRecord(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec)+1)
	for k, v := range rec {
		out[k] = v
	}
	return out
}
