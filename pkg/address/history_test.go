package address_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/jaxron/urlview/pkg/address"
	"github.com/jaxron/urlview/pkg/errors"
	"github.com/jaxron/urlview/pkg/href"
	"github.com/jaxron/urlview/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHistory(t *testing.T) *address.History {
	t.Helper()

	h, err := address.NewHistory(address.DefaultStart)
	require.NoError(t, err)
	h.SetLogger(logger.NewBasicLogger())
	return h
}

func TestHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("Starts at the initial address", func(t *testing.T) {
		t.Parallel()

		h := newHistory(t)
		got, err := h.Href(ctx)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost/", got)
		assert.Equal(t, 1, h.Len())
	})

	t.Run("Navigate pushes entries", func(t *testing.T) {
		t.Parallel()

		h := newHistory(t)
		require.NoError(t, h.Navigate(ctx, "http://localhost/users"))
		require.NoError(t, h.Navigate(ctx, "/users?page=2#top"))

		loc, err := h.Location(ctx)
		require.NoError(t, err)
		assert.Equal(t, "/users", loc.Path)
		assert.Equal(t, "page=2", loc.Search)
		assert.Equal(t, "top", loc.Hash)

		entries, index := h.Entries()
		assert.Equal(t, []string{"http://localhost/", "http://localhost/users", "http://localhost/users?page=2#top"}, entries)
		assert.Equal(t, 2, index)
	})

	t.Run("Update merges under the lock", func(t *testing.T) {
		t.Parallel()

		h := newHistory(t)
		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, err := h.Update(ctx, func(cur href.Location) (href.Location, error) {
					cur.Search += fmt.Sprintf("&k%d=v", i)
					return cur, nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		loc, err := h.Location(ctx)
		require.NoError(t, err)
		for i := range 50 {
			assert.Contains(t, loc.Search+"&", fmt.Sprintf("&k%d=v&", i))
		}
		assert.Equal(t, 51, h.Len())
	})

	t.Run("Update keeps history when merge fails", func(t *testing.T) {
		t.Parallel()

		h := newHistory(t)
		_, _, err := h.Update(ctx, func(href.Location) (href.Location, error) {
			return href.Location{}, errors.ErrQueryFormat
		})
		assert.ErrorIs(t, err, errors.ErrQueryFormat)
		assert.Equal(t, 1, h.Len())
	})

	t.Run("Replace keeps the length", func(t *testing.T) {
		t.Parallel()

		h := newHistory(t)
		require.NoError(t, h.Replace(ctx, "/hello"))

		got, err := h.Href(ctx)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost/hello", got)
		assert.Equal(t, 1, h.Len())
	})

	t.Run("Back and forward", func(t *testing.T) {
		t.Parallel()

		h := newHistory(t)
		require.NoError(t, h.Navigate(ctx, "/a"))
		require.NoError(t, h.Navigate(ctx, "/b"))

		require.NoError(t, h.Back(ctx))
		got, _ := h.Href(ctx)
		assert.Equal(t, "http://localhost/a", got)

		require.NoError(t, h.Forward(ctx))
		got, _ = h.Href(ctx)
		assert.Equal(t, "http://localhost/b", got)

		err := h.Forward(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrNoHistoryEntry)
	})

	t.Run("Navigate after back drops forward entries", func(t *testing.T) {
		t.Parallel()

		h := newHistory(t)
		require.NoError(t, h.Navigate(ctx, "/a"))
		require.NoError(t, h.Navigate(ctx, "/b"))
		require.NoError(t, h.Back(ctx))
		require.NoError(t, h.Navigate(ctx, "/c"))

		entries, index := h.Entries()
		assert.Equal(t, []string{"http://localhost/", "http://localhost/a", "http://localhost/c"}, entries)
		assert.Equal(t, 2, index)
	})

	t.Run("Rejects relative targets", func(t *testing.T) {
		t.Parallel()

		h := newHistory(t)
		err := h.Navigate(ctx, "users")
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrNavigation)
		assert.ErrorIs(t, err, errors.ErrURLParse)
	})
}

func TestNewHistoryInvalidStart(t *testing.T) {
	t.Parallel()

	_, err := address.NewHistory("not a url")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrURLParse)
}
