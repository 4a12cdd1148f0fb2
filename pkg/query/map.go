package query

import (
	"iter"
	"slices"
)

// Map maps a string key to a Value.
// Unlike a plain Go map it remembers the order in which keys were first set,
// which is the order used when encoding without stable sorting.
// A nil *Map reads as empty.
type Map struct {
	keys   []string
	values map[string]Value
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{values: map[string]Value{}}
}

// Of builds a Map of scalar values from alternating key, value arguments.
// A trailing key without a value is stored with the empty string.
func Of(pairs ...string) *Map {
	m := NewMap()
	for i := 0; i < len(pairs); i += 2 {
		value := ""
		if i+1 < len(pairs) {
			value = pairs[i+1]
		}
		m.Set(pairs[i], Scalar(value))
	}
	return m
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Get retrieves the Value for key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set assigns v to key. An existing key keeps its position.
func (m *Map) Set(key string, v Value) {
	if m.values == nil {
		m.values = map[string]Value{}
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Delete removes key, leaving the other keys in place.
func (m *Map) Delete(key string) {
	if m == nil {
		return
	}
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	m.keys = slices.DeleteFunc(m.keys, func(k string) bool { return k == key })
}

// Keys returns the keys in the order they were first set.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// All iterates over the entries in the order they were first set.
func (m *Map) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if m == nil {
			return
		}
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// Clone returns an independent copy of m. Cloning nil yields an empty Map.
func (m *Map) Clone() *Map {
	out := NewMap()
	for k, v := range m.All() {
		switch v.kind {
		case KindList:
			out.Set(k, List(v.list...))
		case KindIndexed:
			out.Set(k, Indexed(v.indexed))
		default:
			out.Set(k, v)
		}
	}
	return out
}

// Equal reports whether both maps hold the same keys and values.
// Key order is ignored.
func (m *Map) Equal(other *Map) bool {
	if m.Len() != other.Len() {
		return false
	}
	for k, v := range m.All() {
		ov, ok := other.Get(k)
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
