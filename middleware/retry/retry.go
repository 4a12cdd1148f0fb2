package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jaxron/urlview/pkg/address"
	"github.com/jaxron/urlview/pkg/address/middleware"
	"github.com/jaxron/urlview/pkg/errors"
	"github.com/jaxron/urlview/pkg/logger"
)

// RetryMiddleware retries navigations that fail with a temporary provider
// error, backing off exponentially between attempts.
type RetryMiddleware struct {
	maxAttempts     uint64
	initialInterval time.Duration
	maxInterval     time.Duration
	logger          logger.Logger
}

// New creates a new RetryMiddleware instance.
func New(maxAttempts uint64, initialInterval, maxInterval time.Duration) *RetryMiddleware {
	return &RetryMiddleware{
		maxAttempts:     maxAttempts,
		initialInterval: initialInterval,
		maxInterval:     maxInterval,
		logger:          &logger.NoOpLogger{},
	}
}

// Process applies retry logic around the rest of the chain.
func (m *RetryMiddleware) Process(ctx context.Context, provider address.Provider, nav *middleware.Navigation, next middleware.NextFunc) error {
	m.logger.Debug("Processing navigation with retry middleware")

	// Create an exponential backoff strategy with a maximum number of retries
	expBackoff := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(m.initialInterval),
		backoff.WithMaxInterval(m.maxInterval),
	), m.maxAttempts)
	backoffStrategy := backoff.WithContext(expBackoff, ctx)

	retryErr := backoff.RetryNotify(
		func() error {
			return m.handleRetryError(next(ctx, provider, nav))
		},
		backoffStrategy,
		func(err error, duration time.Duration) {
			m.logger.WithFields(
				logger.Err(err),
				logger.String("to", nav.To),
				logger.Duration("retry_in", duration),
			).Warn("Retrying navigation")
		},
	)
	if retryErr != nil {
		return fmt.Errorf("%w: %w", errors.ErrRetryFailed, retryErr)
	}

	return nil
}

// handleRetryError determines whether to retry the navigation based on the error type.
func (m *RetryMiddleware) handleRetryError(err error) error {
	if err != nil {
		if errors.IsTemporary(err) {
			return err // This will trigger a retry for temporary errors
		}
		return backoff.Permanent(err) // This will stop retries for permanent errors
	}
	return nil
}

// SetLogger sets the logger for the middleware.
func (m *RetryMiddleware) SetLogger(l logger.Logger) {
	m.logger = l
}
