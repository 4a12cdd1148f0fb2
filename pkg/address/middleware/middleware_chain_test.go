package middleware_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jaxron/urlview/pkg/address"
	"github.com/jaxron/urlview/pkg/address/middleware"
	urlErrors "github.com/jaxron/urlview/pkg/errors"
	"github.com/jaxron/urlview/pkg/href"
	"github.com/jaxron/urlview/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var ErrMiddleware = errors.New("middleware error")

// MockMiddleware is a mock implementation of the Middleware interface.
type MockMiddleware struct {
	mock.Mock
}

func (m *MockMiddleware) Process(ctx context.Context, p address.Provider, nav *middleware.Navigation, next middleware.NextFunc) error {
	args := m.Called(ctx, p, nav, next)
	return args.Error(0)
}

func (m *MockMiddleware) SetLogger(l logger.Logger) {
	m.Called(l)
}

// recorder appends its name before calling next.
type recorder struct {
	name  string
	calls *[]string
}

func (r *recorder) Process(ctx context.Context, p address.Provider, nav *middleware.Navigation, next middleware.NextFunc) error {
	*r.calls = append(*r.calls, r.name)
	return next(ctx, p, nav)
}

func (r *recorder) SetLogger(_ logger.Logger) {}

type otherRecorder struct{ recorder }

// pushOnly is a provider that cannot replace entries.
type pushOnly struct{ address.Provider }

func appendHash(hash string) address.MergeFunc {
	return func(current href.Location) (href.Location, error) {
		current.Hash = hash
		return current, nil
	}
}

func newHistory(t *testing.T) *address.History {
	t.Helper()

	h, err := address.NewHistory(address.DefaultStart)
	require.NoError(t, err)
	return h
}

func TestChainProcess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("Commits without middleware", func(t *testing.T) {
		t.Parallel()

		h := newHistory(t)
		chain := middleware.NewChain(logger.NewBasicLogger())

		err := chain.Process(ctx, h, &middleware.Navigation{To: "http://localhost/x"})
		require.NoError(t, err)

		got, _ := h.Href(ctx)
		assert.Equal(t, "http://localhost/x", got)
		assert.Equal(t, 2, h.Len())
	})

	t.Run("Replace mode overwrites the entry", func(t *testing.T) {
		t.Parallel()

		h := newHistory(t)
		chain := middleware.NewChain(&logger.NoOpLogger{})

		err := chain.Process(ctx, h, &middleware.Navigation{To: "http://localhost/y", Mode: middleware.ModeReplace})
		require.NoError(t, err)
		assert.Equal(t, 1, h.Len())
	})

	t.Run("Replace mode needs a replacer", func(t *testing.T) {
		t.Parallel()

		chain := middleware.NewChain(&logger.NoOpLogger{})
		err := chain.Process(ctx, pushOnly{newHistory(t)}, &middleware.Navigation{To: "http://localhost/y", Mode: middleware.ModeReplace})
		require.Error(t, err)
	})

	t.Run("Runs middleware in order", func(t *testing.T) {
		t.Parallel()

		var calls []string
		h := newHistory(t)
		chain := middleware.NewChain(&logger.NoOpLogger{},
			&recorder{name: "first", calls: &calls},
			&otherRecorder{recorder{name: "second", calls: &calls}},
		)

		require.NoError(t, chain.Process(ctx, h, &middleware.Navigation{To: "http://localhost/z"}))
		assert.Equal(t, []string{"first", "second"}, calls)
	})

	t.Run("Same type replaces in place", func(t *testing.T) {
		t.Parallel()

		var calls []string
		chain := middleware.NewChain(&logger.NoOpLogger{},
			&recorder{name: "first", calls: &calls},
			&otherRecorder{recorder{name: "second", calls: &calls}},
		)
		chain.Then(&recorder{name: "replacement", calls: &calls})

		require.Equal(t, 2, chain.Len())
		require.NoError(t, chain.Process(ctx, newHistory(t), &middleware.Navigation{To: "http://localhost/z"}))
		assert.Equal(t, []string{"replacement", "second"}, calls)
	})

	t.Run("Middleware error stops the commit", func(t *testing.T) {
		t.Parallel()

		h := newHistory(t)
		m := &MockMiddleware{}
		m.On("SetLogger", mock.Anything).Return()
		m.On("Process", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(ErrMiddleware)

		chain := middleware.NewChain(logger.NewBasicLogger(), m)
		err := chain.Process(ctx, h, &middleware.Navigation{To: "http://localhost/x"})

		require.ErrorIs(t, err, ErrMiddleware)
		assert.Equal(t, 1, h.Len())
		m.AssertExpectations(t)
	})

	t.Run("Merge runs inside an updating provider", func(t *testing.T) {
		t.Parallel()

		h := newHistory(t)
		chain := middleware.NewChain(logger.NewBasicLogger())
		nav := &middleware.Navigation{Mode: middleware.ModePush, Merge: appendHash("top")}

		require.NoError(t, chain.Process(ctx, h, nav))
		assert.Equal(t, "http://localhost/", nav.From)
		assert.Equal(t, "http://localhost/#top", nav.To)
		assert.Equal(t, 2, h.Len())
	})

	t.Run("Merge falls back to read then push", func(t *testing.T) {
		t.Parallel()

		h := newHistory(t)
		chain := middleware.NewChain(logger.NewBasicLogger())
		nav := &middleware.Navigation{Mode: middleware.ModePush, Merge: appendHash("a b")}

		require.NoError(t, chain.Process(ctx, pushOnly{h}, nav))
		assert.Equal(t, "http://localhost/#a b", nav.To)

		loc, err := h.Location(ctx)
		require.NoError(t, err)
		assert.Equal(t, "a b", loc.Hash)
	})

	t.Run("Merge error stops the push", func(t *testing.T) {
		t.Parallel()

		h := newHistory(t)
		chain := middleware.NewChain(logger.NewBasicLogger())
		nav := &middleware.Navigation{Mode: middleware.ModePush, Merge: func(href.Location) (href.Location, error) {
			return href.Location{}, urlErrors.ErrInvalidComponent
		}}

		for _, p := range []address.Provider{h, pushOnly{h}} {
			require.ErrorIs(t, chain.Process(ctx, p, nav), urlErrors.ErrInvalidComponent)
		}
		assert.Equal(t, 1, h.Len())
		assert.Empty(t, nav.To)
	})

	t.Run("SetLogger reaches every middleware", func(t *testing.T) {
		t.Parallel()

		m := &MockMiddleware{}
		m.On("SetLogger", mock.Anything).Return()

		chain := middleware.NewChain(&logger.NoOpLogger{}, m)
		chain.SetLogger(logger.NewBasicLogger())

		m.AssertNumberOfCalls(t, "SetLogger", 2)
	})
}
