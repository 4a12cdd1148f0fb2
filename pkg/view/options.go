package view

import (
	"github.com/jaxron/urlview/pkg/address/middleware"
	"github.com/jaxron/urlview/pkg/logger"
	"github.com/jaxron/urlview/pkg/query"
)

// Option is a function type that modifies the View configuration.
type Option func(*View)

// WithArrayFormat accepts multi-valued query keys written in format f.
// Without it a view is strict and rejects arrays and repeated keys.
func WithArrayFormat(f query.Format) Option {
	return func(v *View) {
		v.codec.Format = f
		v.codec.Strict = false
	}
}

// WithCodec replaces the whole query codec configuration.
func WithCodec(opts query.Options) Option {
	return func(v *View) {
		v.codec = opts
	}
}

// WithStable controls whether query keys are written in sorted order.
// Views are stable by default.
func WithStable(stable bool) Option {
	return func(v *View) {
		v.codec.Stable = stable
	}
}

// WithLogger sets the logger for the View and its navigation chain.
func WithLogger(l logger.Logger) Option {
	return func(v *View) {
		v.logger = l
	}
}

// WithMiddleware adds navigation middleware to a live View.
// Detached views never navigate and ignore it.
func WithMiddleware(middlewares ...middleware.Middleware) Option {
	return func(v *View) {
		v.middlewares = append(v.middlewares, middlewares...)
	}
}
