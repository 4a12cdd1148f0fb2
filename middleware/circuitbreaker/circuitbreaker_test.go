package circuitbreaker_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jaxron/urlview/middleware/circuitbreaker"
	"github.com/jaxron/urlview/pkg/address"
	"github.com/jaxron/urlview/pkg/address/middleware"
	urlErrors "github.com/jaxron/urlview/pkg/errors"
	"github.com/jaxron/urlview/pkg/logger"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ErrFailed = errors.New("simulated failure")

func failingNext(context.Context, address.Provider, *middleware.Navigation) error {
	return fmt.Errorf("%w: %w", urlErrors.ErrTemporary, ErrFailed)
}

func succeedingNext(ctx context.Context, p address.Provider, nav *middleware.Navigation) error {
	return p.Navigate(ctx, nav.To)
}

func newNavigation(to string) *middleware.Navigation {
	return &middleware.Navigation{From: address.DefaultStart, To: to, Mode: middleware.ModePush}
}

func TestCircuitBreakerMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("Success scenario", func(t *testing.T) {
		t.Parallel()

		h, err := address.NewHistory(address.DefaultStart)
		require.NoError(t, err)

		cb := circuitbreaker.New(5, 10*time.Second, 30*time.Second)
		cb.SetLogger(logger.NewBasicLogger())

		require.NoError(t, cb.Process(context.Background(), h, newNavigation("/a"), succeedingNext))
		assert.Equal(t, gobreaker.StateClosed, cb.State())
		assert.Equal(t, 2, h.Len())
	})

	t.Run("Circuit opens after multiple failures", func(t *testing.T) {
		t.Parallel()

		cb := circuitbreaker.New(3, 10*time.Second, 1*time.Second)
		cb.SetLogger(logger.NewBasicLogger())

		// Fail 3 times to open the circuit
		for range 3 {
			err := cb.Process(context.Background(), nil, newNavigation("/a"), failingNext)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrFailed)
		}

		// The next call should return ErrCircuitOpen
		err := cb.Process(context.Background(), nil, newNavigation("/a"), failingNext)
		require.Error(t, err)
		assert.ErrorIs(t, err, urlErrors.ErrCircuitOpen)
		assert.Equal(t, gobreaker.StateOpen, cb.State())
	})

	t.Run("Rejected input does not trip the circuit", func(t *testing.T) {
		t.Parallel()

		cb := circuitbreaker.New(3, 10*time.Second, 1*time.Second)
		for _, rejected := range []error{urlErrors.ErrURLParse, urlErrors.ErrQueryFormat, urlErrors.ErrInvalidComponent} {
			for range 3 {
				err := cb.Process(context.Background(), nil, newNavigation("nope"), func(context.Context, address.Provider, *middleware.Navigation) error {
					return rejected
				})
				assert.ErrorIs(t, err, rejected)
			}
		}
		assert.Equal(t, gobreaker.StateClosed, cb.State())
	})

	t.Run("Circuit half-open state", func(t *testing.T) {
		t.Parallel()

		h, err := address.NewHistory(address.DefaultStart)
		require.NoError(t, err)

		cb := circuitbreaker.New(3, 10*time.Second, 100*time.Millisecond)
		cb.SetLogger(logger.NewBasicLogger())

		for range 3 {
			require.Error(t, cb.Process(context.Background(), h, newNavigation("/a"), failingNext))
		}

		// Wait for the circuit to enter half-open state
		time.Sleep(200 * time.Millisecond)
		assert.Equal(t, gobreaker.StateHalfOpen, cb.State())

		// The circuit should now be half-open and allow navigations through
		require.NoError(t, cb.Process(context.Background(), h, newNavigation("/b"), succeedingNext))
		require.NoError(t, cb.Process(context.Background(), h, newNavigation("/c"), succeedingNext))

		current, err := h.Href(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "http://localhost/c", current)
	})
}
