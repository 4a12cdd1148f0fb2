package ratelimit

import (
	"context"
	"fmt"

	"github.com/jaxron/urlview/pkg/address"
	"github.com/jaxron/urlview/pkg/address/middleware"
	"github.com/jaxron/urlview/pkg/errors"
	"github.com/jaxron/urlview/pkg/logger"
	"golang.org/x/time/rate"
)

// RateLimiterMiddleware throttles navigations committed to the shared address.
type RateLimiterMiddleware struct {
	limiter *rate.Limiter
	logger  logger.Logger
}

// New creates a new RateLimiterMiddleware instance.
func New(navigationsPerSecond float64, burst int) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		limiter: rate.NewLimiter(rate.Limit(navigationsPerSecond), burst),
		logger:  &logger.NoOpLogger{},
	}
}

// Process waits for the limiter before passing the navigation to the next middleware.
func (m *RateLimiterMiddleware) Process(ctx context.Context, provider address.Provider, nav *middleware.Navigation, next middleware.NextFunc) error {
	m.logger.Debug("Processing navigation with rate limiter middleware")

	// Wait for rate limiter permission
	if err := m.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", errors.ErrTimeout, err)
		}
		// Wait fails early when the reservation would outlast the deadline
		return fmt.Errorf("%w: %w", errors.ErrRateLimitExceeded, err)
	}

	return next(ctx, provider, nav)
}

// SetLogger sets the logger for the middleware.
func (m *RateLimiterMiddleware) SetLogger(l logger.Logger) {
	m.logger = l
}
