package view

import (
	"context"

	"github.com/jaxron/urlview/pkg/href"
	"github.com/jaxron/urlview/pkg/query"
)

// Params reads and writes single query keys of a View.
// Each call goes back to the view's current address.
type Params struct {
	view *View
}

// Get returns the value stored for key.
func (p *Params) Get(ctx context.Context, key string) (query.Value, bool, error) {
	m, err := p.view.Query(ctx)
	if err != nil {
		return query.Value{}, false, err
	}
	v, ok := m.Get(key)
	return v, ok, nil
}

// Has reports whether key is present.
func (p *Params) Has(ctx context.Context, key string) (bool, error) {
	_, ok, err := p.Get(ctx, key)
	return ok, err
}

// Keys returns the keys of the current query in address order.
func (p *Params) Keys(ctx context.Context) ([]string, error) {
	m, err := p.view.Query(ctx)
	if err != nil {
		return nil, err
	}
	return m.Keys(), nil
}

// Set merges key into the current query, keeping every other key.
func (p *Params) Set(ctx context.Context, key string, value query.Value) error {
	return p.view.update(ctx, func(c *href.Components) {
		c.Query.Set(key, value)
	})
}

// SetString merges a scalar value for key.
func (p *Params) SetString(ctx context.Context, key, value string) error {
	return p.Set(ctx, key, query.Scalar(value))
}

// Delete removes key from the current query, keeping every other key.
func (p *Params) Delete(ctx context.Context, key string) error {
	return p.view.update(ctx, func(c *href.Components) {
		c.Query.Delete(key)
	})
}
