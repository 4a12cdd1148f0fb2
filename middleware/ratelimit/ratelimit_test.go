package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/jaxron/urlview/middleware/ratelimit"
	"github.com/jaxron/urlview/pkg/address"
	"github.com/jaxron/urlview/pkg/address/middleware"
	"github.com/jaxron/urlview/pkg/errors"
	"github.com/jaxron/urlview/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("Respect rate limit", func(t *testing.T) {
		t.Parallel()

		navigationsPerSecond := 10.0
		burst := 1
		rl := ratelimit.New(navigationsPerSecond, burst)
		rl.SetLogger(logger.NewBasicLogger())

		h, err := address.NewHistory(address.DefaultStart)
		require.NoError(t, err)
		chain := middleware.NewChain(&logger.NoOpLogger{}, rl)

		navigate := func(ctx context.Context, to string) error {
			return chain.Process(ctx, h, &middleware.Navigation{From: address.DefaultStart, To: to, Mode: middleware.ModePush})
		}

		// The first navigation uses the burst
		require.NoError(t, navigate(context.Background(), "/a"))

		// The next navigation cannot be granted before the deadline
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err = navigate(ctx, "/b")
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrRateLimitExceeded)
		assert.Equal(t, 2, h.Len())

		// After waiting, we should be able to navigate again
		time.Sleep(time.Second / time.Duration(navigationsPerSecond))
		require.NoError(t, navigate(context.Background(), "/c"))

		current, err := h.Href(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "http://localhost/c", current)
	})

	t.Run("Burst allows multiple navigations", func(t *testing.T) {
		t.Parallel()

		burst := 3
		rl := ratelimit.New(1.0, burst)
		rl.SetLogger(logger.NewBasicLogger())

		calls := 0
		next := func(ctx context.Context, p address.Provider, nav *middleware.Navigation) error {
			calls++
			return nil
		}

		// Burst number of navigations should succeed immediately
		for range burst {
			require.NoError(t, rl.Process(context.Background(), nil, &middleware.Navigation{}, next))
		}
		assert.Equal(t, burst, calls)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := rl.Process(ctx, nil, &middleware.Navigation{}, next)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrRateLimitExceeded)
		assert.Equal(t, burst, calls)
	})

	t.Run("Cancelled context is a timeout", func(t *testing.T) {
		t.Parallel()

		rl := ratelimit.New(1.0, 1)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := rl.Process(ctx, nil, &middleware.Navigation{}, func(context.Context, address.Provider, *middleware.Navigation) error {
			return nil
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrTimeout)
	})
}
