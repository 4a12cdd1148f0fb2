package query

import (
	"maps"
	"slices"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	// KindScalar is a single string value: ?a=b
	KindScalar Kind = iota

	// KindList is an ordered sequence of values: ?a[]=b&a[]=c
	KindList

	// KindIndexed maps index text to a value: ?a[1]=b&a[2]=c
	KindIndexed
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindIndexed:
		return "indexed"
	default:
		return "unknown"
	}
}

// Value is the value stored for a single query key.
// The zero Value is the empty scalar.
type Value struct {
	kind    Kind
	scalar  string
	list    []string
	indexed map[string]string
}

// Scalar returns a single-string Value.
func Scalar(s string) Value {
	return Value{kind: KindScalar, scalar: s}
}

// List returns a list Value holding a copy of items.
func List(items ...string) Value {
	return Value{kind: KindList, list: slices.Clone(items)}
}

// Indexed returns an indexed Value holding a copy of m.
// Keys are the literal index text, usually decimal digits.
func Indexed(m map[string]string) Value {
	if m == nil {
		m = map[string]string{}
	}
	return Value{kind: KindIndexed, indexed: maps.Clone(m)}
}

// Kind reports the active variant.
func (v Value) Kind() Kind {
	return v.kind
}

// String returns the scalar text. Lists are joined with ",", indexed values
// are joined with "," in index order.
func (v Value) String() string {
	switch v.kind {
	case KindList:
		return strings.Join(v.list, ",")
	case KindIndexed:
		return strings.Join(v.Strings(), ",")
	default:
		return v.scalar
	}
}

// Strings returns the values as a slice: the single scalar, the list items,
// or the indexed values in index order.
func (v Value) Strings() []string {
	switch v.kind {
	case KindList:
		return slices.Clone(v.list)
	case KindIndexed:
		out := make([]string, 0, len(v.indexed))
		for _, idx := range sortedIndices(v.indexed) {
			out = append(out, v.indexed[idx])
		}
		return out
	default:
		return []string{v.scalar}
	}
}

// Index returns a copy of the indexed entries, or nil for other kinds.
func (v Value) Index() map[string]string {
	if v.kind != KindIndexed {
		return nil
	}
	return maps.Clone(v.indexed)
}

// Equal reports whether both values hold the same variant and content.
// Lists compare in order, indexed values compare by index.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindList:
		return slices.Equal(v.list, other.list)
	case KindIndexed:
		return maps.Equal(v.indexed, other.indexed)
	default:
		return v.scalar == other.scalar
	}
}

// appended returns a list Value with s added, never sharing the backing array.
func (v Value) appended(s string) Value {
	switch v.kind {
	case KindList:
		return Value{kind: KindList, list: append(slices.Clip(v.list), s)}
	case KindScalar:
		return List(v.scalar, s)
	default:
		return List(s)
	}
}

// withIndex returns an indexed Value with idx set to s.
func (v Value) withIndex(idx, s string) Value {
	next := map[string]string{}
	if v.kind == KindIndexed {
		next = maps.Clone(v.indexed)
	}
	next[idx] = s
	return Value{kind: KindIndexed, indexed: next}
}

// sortedIndices orders index text numerically: shorter digit strings first,
// then lexically, which matches integer order for canonical decimal text.
func sortedIndices(m map[string]string) []string {
	keys := slices.Collect(maps.Keys(m))
	slices.SortFunc(keys, func(a, b string) int {
		if len(a) != len(b) {
			return len(a) - len(b)
		}
		return strings.Compare(a, b)
	})
	return keys
}
