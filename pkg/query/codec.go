package query

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/jaxron/urlview/pkg/errors"
)

// arrayCodec reads and writes the values of one key under a single Format.
type arrayCodec interface {
	decode(m *Map, key, rawValue string)
	encode(w *pairWriter, key string, v Value, stable bool)
}

// codecFor returns the codec for f. Unknown formats fall back to FormatNone.
func codecFor(f Format) arrayCodec {
	switch f {
	case FormatBracket:
		return bracketCodec{}
	case FormatIndex:
		return indexCodec{}
	case FormatComma:
		return commaCodec{}
	case FormatNone:
		return noneCodec{}
	default:
		return noneCodec{}
	}
}

// Decode parses a query string (with or without its leading "?") into a Map.
// In strict mode it fails with errors.ErrQueryFormat on "key[]" parameters,
// repeated keys and malformed percent-escapes.
func Decode(search string, opts Options) (*Map, error) {
	search = strings.TrimPrefix(search, "?")
	m := NewMap()

	codec := codecFor(opts.Format)
	for search != "" {
		var pair string
		pair, search, _ = strings.Cut(search, "&")
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")

		if !opts.Strict {
			codec.decode(m, unescapeLenient(rawKey), rawValue)
			continue
		}

		key, err := unescapeStrict(rawKey)
		if err != nil {
			return nil, err
		}
		value, err := unescapeStrict(rawValue)
		if err != nil {
			return nil, err
		}
		if strings.HasSuffix(key, "[]") {
			return nil, fmt.Errorf("%w: arrays in queries are not supported (parameter %q)", errors.ErrQueryFormat, key)
		}
		if m.Has(key) {
			return nil, fmt.Errorf("%w: the query parameter %q is duplicated", errors.ErrQueryFormat, key)
		}
		m.Set(key, Scalar(value))
	}

	return m, nil
}

// Encode converts the Map into a query string without the leading "?".
// An empty Map encodes to the empty string. In strict mode any non-scalar
// value fails with errors.ErrQueryFormat.
func Encode(m *Map, opts Options) (string, error) {
	if m.Len() == 0 {
		return "", nil
	}

	keys := m.Keys()
	if opts.Stable {
		slices.Sort(keys)
	}

	codec := codecFor(opts.Format)
	if opts.Strict {
		codec = noneCodec{}
	}

	var w pairWriter
	for _, k := range keys {
		v, _ := m.Get(k)
		if opts.Strict && v.Kind() != KindScalar {
			return "", fmt.Errorf("%w: arrays in queries are not supported (parameter %q)", errors.ErrQueryFormat, k)
		}
		codec.encode(&w, k, v, opts.Stable)
	}
	return w.String(), nil
}

// pairWriter joins key=value pairs with "&".
type pairWriter struct {
	buf strings.Builder
}

// write appends an already escaped key and value.
func (w *pairWriter) write(key, value string) {
	if w.buf.Len() > 0 {
		w.buf.WriteByte('&')
	}
	w.buf.WriteString(key)
	w.buf.WriteByte('=')
	w.buf.WriteString(value)
}

func (w *pairWriter) String() string {
	return w.buf.String()
}

// componentMarks undoes the escapes url.QueryEscape adds beyond those of a
// URI component: spaces are %20 and !'()* stay literal.
var componentMarks = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// Escape percent-encodes s as a URI component. Letters, digits and
// -_.!~*'() are kept; everything else, spaces included, becomes %XX.
func Escape(s string) string {
	return componentMarks.Replace(url.QueryEscape(s))
}

// Unescape decodes a percent-encoded URI component. "+" decodes to a space.
// Malformed escapes fail with errors.ErrQueryFormat.
func Unescape(s string) (string, error) {
	return unescapeStrict(s)
}

func unescapeStrict(s string) (string, error) {
	out, err := url.QueryUnescape(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrQueryFormat, err)
	}
	return out, nil
}

// unescapeLenient keeps the raw text when it is not a valid escape sequence.
func unescapeLenient(s string) string {
	out, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return out
}

// orderedIndices returns the indices of an indexed value, sorted when stable.
func orderedIndices(m map[string]string, stable bool) []string {
	if stable {
		return sortedIndices(m)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

type noneCodec struct{}

func (noneCodec) decode(m *Map, key, rawValue string) {
	value := unescapeLenient(rawValue)
	if existing, ok := m.Get(key); ok {
		m.Set(key, existing.appended(value))
		return
	}
	m.Set(key, Scalar(value))
}

func (noneCodec) encode(w *pairWriter, key string, v Value, stable bool) {
	k := Escape(key)
	switch v.Kind() {
	case KindList:
		for _, item := range v.list {
			w.write(k, Escape(item))
		}
	case KindIndexed:
		for _, idx := range orderedIndices(v.indexed, stable) {
			w.write(k, Escape(v.indexed[idx]))
		}
	default:
		w.write(k, Escape(v.scalar))
	}
}

type bracketCodec struct{}

func (bracketCodec) decode(m *Map, key, rawValue string) {
	value := unescapeLenient(rawValue)
	base, isArray := strings.CutSuffix(key, "[]")
	if !isArray {
		m.Set(key, Scalar(value))
		return
	}
	existing, ok := m.Get(base)
	if !ok {
		m.Set(base, List(value))
		return
	}
	m.Set(base, existing.appended(value))
}

func (bracketCodec) encode(w *pairWriter, key string, v Value, stable bool) {
	k := Escape(key) + "[]"
	switch v.Kind() {
	case KindList:
		for _, item := range v.list {
			w.write(k, Escape(item))
		}
	case KindIndexed:
		for _, idx := range orderedIndices(v.indexed, stable) {
			w.write(k, Escape(v.indexed[idx]))
		}
	default:
		w.write(Escape(key), Escape(v.scalar))
	}
}

type indexCodec struct{}

// splitIndex splits "key[12]" into "key" and "12". The index may be empty.
func splitIndex(key string) (base, idx string, ok bool) {
	if !strings.HasSuffix(key, "]") {
		return key, "", false
	}
	open := strings.LastIndexByte(key, '[')
	if open < 0 {
		return key, "", false
	}
	idx = key[open+1 : len(key)-1]
	for _, r := range idx {
		if r < '0' || r > '9' {
			return key, "", false
		}
	}
	return key[:open], idx, true
}

func (indexCodec) decode(m *Map, key, rawValue string) {
	value := unescapeLenient(rawValue)
	base, idx, ok := splitIndex(key)
	if !ok {
		m.Set(key, Scalar(value))
		return
	}
	existing, _ := m.Get(base)
	m.Set(base, existing.withIndex(idx, value))
}

func (indexCodec) encode(w *pairWriter, key string, v Value, stable bool) {
	k := Escape(key)
	switch v.Kind() {
	case KindList:
		for i, item := range v.list {
			w.write(fmt.Sprintf("%s[%d]", k, i), Escape(item))
		}
	case KindIndexed:
		for _, idx := range orderedIndices(v.indexed, stable) {
			w.write(k+"["+Escape(idx)+"]", Escape(v.indexed[idx]))
		}
	default:
		w.write(k, Escape(v.scalar))
	}
}

type commaCodec struct{}

// decode splits on literal commas before unescaping, so an escaped %2C
// stays inside its element.
func (commaCodec) decode(m *Map, key, rawValue string) {
	if !strings.Contains(rawValue, ",") {
		m.Set(key, Scalar(unescapeLenient(rawValue)))
		return
	}
	parts := strings.Split(rawValue, ",")
	for i, part := range parts {
		parts[i] = unescapeLenient(part)
	}
	m.Set(key, List(parts...))
}

func (commaCodec) encode(w *pairWriter, key string, v Value, _ bool) {
	if v.Kind() == KindScalar {
		w.write(Escape(key), Escape(v.scalar))
		return
	}
	items := v.Strings()
	if len(items) == 0 {
		return
	}
	for i, item := range items {
		items[i] = Escape(item)
	}
	w.write(Escape(key), strings.Join(items, ","))
}
