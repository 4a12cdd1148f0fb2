package circuitbreaker

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jaxron/urlview/pkg/address"
	"github.com/jaxron/urlview/pkg/address/middleware"
	"github.com/jaxron/urlview/pkg/errors"
	"github.com/jaxron/urlview/pkg/logger"
	"github.com/sony/gobreaker"
)

// CircuitBreakerMiddleware stops navigating a provider that keeps failing.
type CircuitBreakerMiddleware struct {
	breaker *gobreaker.CircuitBreaker
	logger  logger.Logger
}

// New creates a new CircuitBreakerMiddleware instance.
func New(maxRequests uint32, interval, timeout time.Duration) *CircuitBreakerMiddleware {
	m := &CircuitBreakerMiddleware{
		breaker: nil,
		logger:  &logger.NoOpLogger{},
	}

	m.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "NavigationCircuitBreaker",
		MaxRequests: maxRequests,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			m.logger.WithFields(
				logger.String("name", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			).Warn("Circuit breaker state changed")
		},
		// Rejected input says nothing about the health of the provider
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, errors.ErrURLParse) ||
				errors.Is(err, errors.ErrQueryFormat) ||
				errors.Is(err, errors.ErrInvalidComponent)
		},
	})

	return m
}

// Process runs the rest of the chain inside the circuit breaker.
func (m *CircuitBreakerMiddleware) Process(ctx context.Context, provider address.Provider, nav *middleware.Navigation, next middleware.NextFunc) error {
	m.logger.Debug("Processing navigation with circuit breaker middleware")

	_, err := m.breaker.Execute(func() (interface{}, error) {
		return nil, next(ctx, provider, nav)
	})
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, gobreaker.ErrOpenState):
		return fmt.Errorf("%w: %w", errors.ErrCircuitOpen, err)
	case stderrors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: %w", errors.ErrCircuitExhausted, err)
	default:
		return err
	}
}

// State returns the current state of the breaker.
func (m *CircuitBreakerMiddleware) State() gobreaker.State {
	return m.breaker.State()
}

// SetLogger sets the logger for the middleware.
func (m *CircuitBreakerMiddleware) SetLogger(l logger.Logger) {
	m.logger = l
}
