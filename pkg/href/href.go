// Package href splits addresses into their parts and puts them back together.
//
// A Location is the raw split form an address provider hands out. Components
// is the same address with its query decoded into a query.Map. Compose is the
// inverse of Decompose and always produces the canonical string form: no
// doubled "?" or "#", no empty query or hash separators, sorted keys when the
// options are stable.
package href

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jaxron/urlview/pkg/errors"
	"github.com/jaxron/urlview/pkg/query"
)

// Location is an address split into origin, path, search and hash.
// Search and Hash are stored without their "?" and "#" prefixes.
type Location struct {
	Origin string
	Path   string
	Search string
	Hash   string
}

// String joins the location back into an href. Its parts are written as
// they are, so Split(l.String()) returns l for any location Split produced.
func (l Location) String() string {
	var b strings.Builder
	b.WriteString(l.Origin)
	b.WriteString(l.Path)
	if l.Search != "" {
		b.WriteByte('?')
		b.WriteString(l.Search)
	}
	if l.Hash != "" {
		b.WriteByte('#')
		b.WriteString(l.Hash)
	}
	return b.String()
}

// Components is an address with its query decoded.
type Components struct {
	// Origin is "scheme://host[:port]" and is never parsed further.
	Origin string
	// Path always starts with "/".
	Path string
	// Query is never nil after Decompose.
	Query *query.Map
	// Hash is written after a single "#" and kept as it is otherwise.
	Hash string
}

// Location re-encodes the components into their raw split form.
func (c Components) Location(opts query.Options) (Location, error) {
	path, err := NormalizePath(c.Path)
	if err != nil {
		return Location{}, err
	}
	search, err := query.Encode(c.Query, opts)
	if err != nil {
		return Location{}, err
	}
	return Location{
		Origin: c.Origin,
		Path:   path,
		Search: search,
		Hash:   c.Hash,
	}, nil
}

// Split parses an absolute address into its Location.
//
// Only the origin goes through url.Parse. The hash is everything after the
// first "#", the search everything between the first "?" and the hash, and
// the path is kept exactly as written, so any string that Join produced
// splits back into the same parts. It fails with errors.ErrURLParse when s
// has no scheme or its authority cannot be parsed.
func Split(s string) (Location, error) {
	rest, hash, _ := strings.Cut(s, "#")
	rest, search, _ := strings.Cut(rest, "?")

	scheme, hier, ok := strings.Cut(rest, "://")
	if !ok || !validScheme(scheme) {
		return Location{}, fmt.Errorf("%w: %q is not an absolute hierarchical url", errors.ErrURLParse, s)
	}

	authority, path := hier, "/"
	if i := strings.IndexByte(hier, '/'); i >= 0 {
		authority, path = hier[:i], hier[i:]
	}

	u, err := url.Parse(scheme + "://" + authority)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %w", errors.ErrURLParse, err)
	}

	return Location{
		Origin: u.Scheme + "://" + u.Host,
		Path:   path,
		Search: search,
		Hash:   hash,
	}, nil
}

// validScheme reports whether s is a URL scheme: a letter followed by
// letters, digits, "+", "-" or ".".
func validScheme(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		case i > 0 && ('0' <= r && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// Join builds an href from raw parts. A leading "?" on search or "#" on hash
// is dropped before the separator is added, and empty parts add nothing.
func Join(origin, path, search, hash string) string {
	return Location{
		Origin: origin,
		Path:   path,
		Search: strings.TrimPrefix(search, "?"),
		Hash:   NormalizeHash(hash),
	}.String()
}

// Decompose decodes the query of loc with opts.
func Decompose(loc Location, opts query.Options) (Components, error) {
	q, err := query.Decode(loc.Search, opts)
	if err != nil {
		return Components{}, err
	}
	path := loc.Path
	if path == "" {
		path = "/"
	}
	return Components{
		Origin: loc.Origin,
		Path:   path,
		Query:  q,
		Hash:   loc.Hash,
	}, nil
}

// Parse splits and decomposes s.
func Parse(s string, opts query.Options) (Components, error) {
	loc, err := Split(s)
	if err != nil {
		return Components{}, err
	}
	return Decompose(loc, opts)
}

// Compose builds the canonical href for c.
func Compose(c Components, opts query.Options) (string, error) {
	loc, err := c.Location(opts)
	if err != nil {
		return "", err
	}
	return loc.String(), nil
}

// NormalizePath returns p with a leading "/". The empty path becomes "/".
// A path holding "?" or "#" would change the meaning of the href and fails
// with errors.ErrInvalidComponent.
func NormalizePath(p string) (string, error) {
	if strings.ContainsAny(p, "?#") {
		return "", fmt.Errorf("%w: path %q contains a query or hash separator", errors.ErrInvalidComponent, p)
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p, nil
}

// NormalizeHash strips a single leading "#".
func NormalizeHash(h string) string {
	return strings.TrimPrefix(h, "#")
}
