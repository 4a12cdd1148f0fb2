package middleware

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jaxron/urlview/pkg/address"
	"github.com/jaxron/urlview/pkg/errors"
	"github.com/jaxron/urlview/pkg/logger"
)

// Replacer is implemented by providers that can overwrite the current entry.
type Replacer interface {
	Replace(ctx context.Context, target string) error
}

// Chain represents a chain of middleware.
type Chain struct {
	middlewares []Middleware
	logger      logger.Logger
}

// NewChain creates a new middleware chain.
func NewChain(logger logger.Logger, middlewares ...Middleware) *Chain {
	c := &Chain{logger: logger}
	c.Then(middlewares...)
	return c
}

// Len returns the number of middlewares in the chain.
func (c *Chain) Len() int {
	return len(c.middlewares)
}

// Then adds middleware to the chain. A middleware of a type already in the
// chain replaces it in place; new types are appended.
func (c *Chain) Then(middlewares ...Middleware) {
	for _, m := range middlewares {
		m.SetLogger(c.logger)

		replaced := false
		for i, existing := range c.middlewares {
			if reflect.TypeOf(existing) == reflect.TypeOf(m) {
				c.middlewares[i] = m
				replaced = true
				break
			}
		}
		if !replaced {
			c.middlewares = append(c.middlewares, m)
		}
	}
}

// Process runs the navigation through all middleware in the chain and then
// commits it to the provider.
func (c *Chain) Process(ctx context.Context, provider address.Provider, nav *Navigation) error {
	// If no middlewares are defined, commit immediately
	if len(c.middlewares) == 0 {
		return c.commit(ctx, provider, nav)
	}

	c.logMiddlewareChain()
	return c.processMiddleware(ctx, provider, nav, 0)
}

// logMiddlewareChain logs the available middleware in the chain.
func (c *Chain) logMiddlewareChain() {
	for i, m := range c.middlewares {
		c.logger.WithFields(
			logger.Int("index", i),
			logger.String("type", reflect.TypeOf(m).String()),
		).Debug("Middleware in chain")
	}
}

// processMiddleware recursively applies each middleware in the chain.
func (c *Chain) processMiddleware(ctx context.Context, provider address.Provider, nav *Navigation, index int) error {
	// If we've reached the end of the middleware chain, commit the navigation
	if index == len(c.middlewares) {
		return c.commit(ctx, provider, nav)
	}

	// Otherwise, apply the middleware and continue
	return c.middlewares[index].Process(ctx, provider, nav, func(ctx context.Context, provider address.Provider, nav *Navigation) error {
		return c.processMiddleware(ctx, provider, nav, index+1)
	})
}

// commit hands the navigation to the provider.
func (c *Chain) commit(ctx context.Context, provider address.Provider, nav *Navigation) error {
	var err error
	switch {
	case nav.Mode == ModePush && nav.Merge != nil:
		err = c.merge(ctx, provider, nav)
	case nav.Mode == ModePush:
		err = provider.Navigate(ctx, nav.To)
	case nav.Mode == ModeReplace:
		replacer, ok := provider.(Replacer)
		if !ok {
			return fmt.Errorf("%w: %T cannot replace history entries", errors.ErrNavigation, provider)
		}
		err = replacer.Replace(ctx, nav.To)
	default:
		return errors.ErrUnreachable
	}
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", errors.ErrTimeout, err)
		}
		return err
	}

	c.logger.WithFields(
		logger.String("from", nav.From),
		logger.String("to", nav.To),
		logger.String("mode", nav.Mode.String()),
	).Debug("Navigation")
	return nil
}

// merge pushes the result of nav.Merge. Providers implementing
// address.Updater run the read and the push as one exclusive write; others
// are read first and then pushed to.
func (c *Chain) merge(ctx context.Context, provider address.Provider, nav *Navigation) error {
	if updater, ok := provider.(address.Updater); ok {
		from, to, err := updater.Update(ctx, nav.Merge)
		if err != nil {
			return err
		}
		nav.From, nav.To = from, to
		return nil
	}

	current, err := provider.Location(ctx)
	if err != nil {
		return err
	}
	next, err := nav.Merge(current)
	if err != nil {
		return err
	}
	if err := provider.Navigate(ctx, next.String()); err != nil {
		return err
	}
	nav.From, nav.To = current.String(), next.String()
	return nil
}

// SetLogger updates the logger for all middleware in the chain.
func (c *Chain) SetLogger(l logger.Logger) {
	for _, m := range c.middlewares {
		m.SetLogger(l)
	}
	c.logger = l
}
