package formio

import (
	"maps"
	"slices"
	"strings"
)

// Data maps component keys to submitted values. Keys containing dots address nested
// objects ("parent.child"), the way nested component keys are stored.
type Data map[string]any

// Get returns the value stored under key. A literal top-level key wins over the
// dotted path.
func (d Data) Get(key string) (any, bool) {
	if v, ok := d[key]; ok {
		return v, true
	}
	if !strings.Contains(key, ".") {
		return nil, false
	}
	var current any = map[string]any(d)
	for _, part := range strings.Split(key, ".") {
		m, ok := asObject(current)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Value is Get without the presence flag.
func (d Data) Value(key string) any {
	v, _ := d.Get(key)
	return v
}

// Has reports whether key holds a value, including an explicit nil.
func (d Data) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Set stores value under key, creating intermediate objects for dotted keys.
func (d Data) Set(key string, value any) {
	if _, ok := d[key]; ok || !strings.Contains(key, ".") {
		d[key] = value
		return
	}
	parts := strings.Split(key, ".")
	current := map[string]any(d)
	for _, part := range parts[:len(parts)-1] {
		next, ok := asObject(current[part])
		if !ok {
			next = map[string]any{}
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

// Update copies every entry of other into d.
func (d Data) Update(other Data) {
	for k, v := range other {
		d.Set(k, v)
	}
}

// Keys returns the top-level keys in sorted order.
func (d Data) Keys() []string {
	return slices.Sorted(maps.Keys(d))
}

// Clone returns a deep copy of nested objects and lists.
func (d Data) Clone() Data {
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = cloneValue(inner)
		}
		return m
	case Data:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, inner := range t {
			s[i] = cloneValue(inner)
		}
		return s
	default:
		return v
	}
}

func asObject(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Data:
		return t, true
	default:
		return nil, false
	}
}
