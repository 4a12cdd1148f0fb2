// Package view exposes an address as an object whose path, query and hash can
// be read and written one at a time.
//
// A live View follows the shared address of an address.Provider: every read
// sees the provider's current address, including navigations made without
// the view, and every write pushes a new history entry. A detached View owns
// a snapshot parsed once from a string; its writes change only that snapshot
// and nothing outside can change it.
//
// Nothing is cached between calls. Each read decodes the current address
// again and each write reads, merges, re-composes and commits while holding
// the view's lock.
//
// Example:
//
//	history, _ := address.NewHistory(address.DefaultStart)
//	live, _ := view.Live(ctx, history)
//	_ = live.SetPath(ctx, "/users")
//	_ = live.Params().SetString(ctx, "page", "2")
//	href, _ := live.Href(ctx) // http://localhost/users?page=2
package view

import (
	"context"
	"fmt"
	"sync"

	"github.com/jaxron/urlview/pkg/address"
	"github.com/jaxron/urlview/pkg/address/middleware"
	"github.com/jaxron/urlview/pkg/errors"
	"github.com/jaxron/urlview/pkg/href"
	"github.com/jaxron/urlview/pkg/logger"
	"github.com/jaxron/urlview/pkg/query"
)

// Field names a property of a View.
type Field string

const (
	FieldHref     Field = "href"
	FieldPath     Field = "path"
	FieldPathname Field = "pathname"
	FieldHash     Field = "hash"
	FieldQuery    Field = "query"
)

// ParseField validates a field name.
func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldHref, FieldPath, FieldPathname, FieldHash, FieldQuery:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", errors.ErrUnknownField, s)
	}
}

// View is a readable and writable address.
type View struct {
	mu          sync.Mutex
	src         source
	codec       query.Options
	logger      logger.Logger
	middlewares []middleware.Middleware
}

func newView(opts []Option) *View {
	v := &View{
		codec:  query.StrictOptions,
		logger: &logger.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Live creates a View bound to the shared address of provider.
// It fails with errors.ErrQueryFormat when the current address does not
// decode under the configured codec.
func Live(ctx context.Context, provider address.Provider, opts ...Option) (*View, error) {
	v := newView(opts)
	v.src = &liveSource{
		provider: provider,
		chain:    middleware.NewChain(v.logger, v.middlewares...),
	}

	if _, err := v.Components(ctx); err != nil {
		return nil, err
	}
	return v, nil
}

// Detached creates a View over a private snapshot of s.
// It fails with errors.ErrURLParse when s is not an absolute address and with
// errors.ErrQueryFormat when its query does not decode.
func Detached(s string, opts ...Option) (*View, error) {
	v := newView(opts)

	loc, err := href.Split(s)
	if err != nil {
		return nil, err
	}
	v.src = &detachedSource{snapshot: loc}

	if _, err := v.Components(context.Background()); err != nil {
		return nil, err
	}
	return v, nil
}

// IsLive reports whether the view follows a provider.
func (v *View) IsLive() bool {
	return v.src.live()
}

// Codec returns the query options the view decodes and encodes with.
func (v *View) Codec() query.Options {
	return v.codec
}

// Components returns the current address decoded into its parts.
func (v *View) Components(ctx context.Context) (href.Components, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.read(ctx)
}

func (v *View) read(ctx context.Context) (href.Components, error) {
	loc, err := v.src.location(ctx)
	if err != nil {
		return href.Components{}, err
	}
	return href.Decompose(loc, v.codec)
}

// update runs one read-merge-compose-commit cycle. A live view over a
// provider implementing address.Updater runs the whole cycle inside the
// provider's exclusive write.
func (v *View) update(ctx context.Context, apply func(c *href.Components)) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	from, to, err := v.src.commit(ctx, func(current href.Location) (href.Location, error) {
		c, err := href.Decompose(current, v.codec)
		if err != nil {
			return href.Location{}, err
		}
		apply(&c)
		return c.Location(v.codec)
	})
	if err != nil {
		return err
	}

	v.logger.WithFields(
		logger.String("from", from),
		logger.String("to", to),
		logger.Bool("live", v.src.live()),
	).Debug("Committed view write")
	return nil
}

// Href returns the canonical form of the current address.
func (v *View) Href(ctx context.Context) (string, error) {
	c, err := v.Components(ctx)
	if err != nil {
		return "", err
	}
	return href.Compose(c, v.codec)
}

// String returns the canonical href, or the empty string when the address
// cannot be read. Use Href to see the error.
func (v *View) String() string {
	s, err := v.Href(context.Background())
	if err != nil {
		v.logger.WithFields(logger.Err(err)).Error("Failed to read view href")
		return ""
	}
	return s
}

// Path returns the current path. It always starts with "/".
func (v *View) Path(ctx context.Context) (string, error) {
	c, err := v.Components(ctx)
	if err != nil {
		return "", err
	}
	return c.Path, nil
}

// SetPath replaces the path. A missing leading "/" is added.
func (v *View) SetPath(ctx context.Context, path string) error {
	return v.update(ctx, func(c *href.Components) {
		c.Path = path
	})
}

// DeletePath resets the path to "/".
func (v *View) DeletePath(ctx context.Context) error {
	return v.Remove(ctx, FieldPath)
}

// Pathname is an alias of Path.
func (v *View) Pathname(ctx context.Context) (string, error) {
	return v.Path(ctx)
}

// SetPathname is an alias of SetPath.
func (v *View) SetPathname(ctx context.Context, path string) error {
	return v.SetPath(ctx, path)
}

// DeletePathname is an alias of DeletePath.
func (v *View) DeletePathname(ctx context.Context) error {
	return v.DeletePath(ctx)
}

// Hash returns the current hash without its "#".
func (v *View) Hash(ctx context.Context) (string, error) {
	c, err := v.Components(ctx)
	if err != nil {
		return "", err
	}
	return c.Hash, nil
}

// SetHash replaces the hash. A leading "#" is dropped.
func (v *View) SetHash(ctx context.Context, hash string) error {
	return v.update(ctx, func(c *href.Components) {
		c.Hash = href.NormalizeHash(hash)
	})
}

// DeleteHash resets the hash to "".
func (v *View) DeleteHash(ctx context.Context) error {
	return v.Remove(ctx, FieldHash)
}

// Query returns a freshly decoded copy of the current query.
func (v *View) Query(ctx context.Context) (*query.Map, error) {
	c, err := v.Components(ctx)
	if err != nil {
		return nil, err
	}
	return c.Query, nil
}

// SetQuery replaces the whole query with m. It does not merge with the
// previous query; read it with Query and extend the copy to do that.
func (v *View) SetQuery(ctx context.Context, m *query.Map) error {
	replacement := m.Clone()
	return v.update(ctx, func(c *href.Components) {
		c.Query = replacement
	})
}

// DeleteQuery resets the query to empty.
func (v *View) DeleteQuery(ctx context.Context) error {
	return v.Remove(ctx, FieldQuery)
}

// Params returns the per-key accessor of the query.
func (v *View) Params() *Params {
	return &Params{view: v}
}

// Get returns a field as a string. The query is returned encoded, without "?".
func (v *View) Get(ctx context.Context, field Field) (string, error) {
	switch field {
	case FieldHref:
		return v.Href(ctx)
	case FieldPath, FieldPathname:
		return v.Path(ctx)
	case FieldHash:
		return v.Hash(ctx)
	case FieldQuery:
		m, err := v.Query(ctx)
		if err != nil {
			return "", err
		}
		return query.Encode(m, v.codec)
	default:
		return "", fmt.Errorf("%w: %q", errors.ErrUnknownField, field)
	}
}

// Set writes a field from its string form. A query string replaces the whole
// query after being decoded with the view's codec.
func (v *View) Set(ctx context.Context, field Field, value string) error {
	switch field {
	case FieldPath, FieldPathname:
		return v.SetPath(ctx, value)
	case FieldHash:
		return v.SetHash(ctx, value)
	case FieldQuery:
		m, err := query.Decode(value, v.codec)
		if err != nil {
			return err
		}
		return v.SetQuery(ctx, m)
	case FieldHref:
		return fmt.Errorf("%w: %q", errors.ErrReadOnlyField, field)
	default:
		return fmt.Errorf("%w: %q", errors.ErrUnknownField, field)
	}
}

// Remove resets a field to its default: "/" for the path, "" for the hash
// and an empty query.
func (v *View) Remove(ctx context.Context, field Field) error {
	var reset func(c *href.Components)
	switch field {
	case FieldPath, FieldPathname:
		reset = func(c *href.Components) { c.Path = "/" }
	case FieldHash:
		reset = func(c *href.Components) { c.Hash = "" }
	case FieldQuery:
		reset = func(c *href.Components) { c.Query = query.NewMap() }
	case FieldHref:
		return fmt.Errorf("%w: %q", errors.ErrReadOnlyField, field)
	default:
		return fmt.Errorf("%w: %q", errors.ErrUnknownField, field)
	}
	return v.update(ctx, reset)
}
