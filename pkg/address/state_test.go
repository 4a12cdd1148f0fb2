package address_test

import (
	"testing"

	"github.com/jaxron/urlview/pkg/address"
	"github.com/jaxron/urlview/pkg/errors"
	"github.com/jaxron/urlview/pkg/href"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState(t *testing.T) {
	t.Parallel()

	t.Run("Push drops forward entries", func(t *testing.T) {
		t.Parallel()

		s, err := address.NewState("http://localhost")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost/", s.Current())

		_, err = s.Push("/a")
		require.NoError(t, err)
		_, err = s.Push("/b")
		require.NoError(t, err)
		require.NoError(t, s.Go(-2))

		loc, err := s.Push("/c")
		require.NoError(t, err)
		assert.Equal(t, "/c", loc.Path)
		assert.Equal(t, []string{"http://localhost/", "http://localhost/c"}, s.Entries)
		assert.Equal(t, 1, s.Index)
	})

	t.Run("Replace keeps the length", func(t *testing.T) {
		t.Parallel()

		s, err := address.NewState(address.DefaultStart)
		require.NoError(t, err)
		_, err = s.Replace("http://example.com/x#y")
		require.NoError(t, err)
		assert.Equal(t, []string{"http://example.com/x#y"}, s.Entries)
	})

	t.Run("Go stays within the entries", func(t *testing.T) {
		t.Parallel()

		s, err := address.NewState(address.DefaultStart)
		require.NoError(t, err)
		assert.ErrorIs(t, s.Go(1), errors.ErrNoHistoryEntry)
		assert.ErrorIs(t, s.Go(-1), errors.ErrNoHistoryEntry)
		assert.Equal(t, 0, s.Index)
	})

	t.Run("Rejects relative targets", func(t *testing.T) {
		t.Parallel()

		s, err := address.NewState(address.DefaultStart)
		require.NoError(t, err)
		_, err = s.Push("users")
		assert.ErrorIs(t, err, errors.ErrNavigation)
		assert.ErrorIs(t, err, errors.ErrURLParse)
	})

	t.Run("Apply pushes the merged entry", func(t *testing.T) {
		t.Parallel()

		s, err := address.NewState("http://localhost/a b#100%")
		require.NoError(t, err)

		from, to, err := s.Apply(func(cur href.Location) (href.Location, error) {
			cur.Hash += "!"
			return cur, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "100%", from.Hash)
		assert.Equal(t, "100%!", to.Hash)
		assert.Equal(t, []string{"http://localhost/a b#100%", "http://localhost/a b#100%!"}, s.Entries)
		assert.Equal(t, 1, s.Index)
	})

	t.Run("Apply keeps the state when merge fails", func(t *testing.T) {
		t.Parallel()

		s, err := address.NewState(address.DefaultStart)
		require.NoError(t, err)

		_, _, err = s.Apply(func(href.Location) (href.Location, error) {
			return href.Location{}, errors.ErrInvalidComponent
		})
		assert.ErrorIs(t, err, errors.ErrInvalidComponent)
		assert.Equal(t, []string{address.DefaultStart}, s.Entries)
	})

	t.Run("Validate", func(t *testing.T) {
		t.Parallel()

		assert.ErrorIs(t, (&address.State{}).Validate(), errors.ErrState)
		assert.ErrorIs(t, (&address.State{Entries: []string{"http://a/"}, Index: 1}).Validate(), errors.ErrState)
		assert.NoError(t, (&address.State{Entries: []string{"http://a/"}}).Validate())
	})
}
