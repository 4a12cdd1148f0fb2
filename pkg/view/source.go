package view

import (
	"context"

	"github.com/jaxron/urlview/pkg/address"
	"github.com/jaxron/urlview/pkg/address/middleware"
	"github.com/jaxron/urlview/pkg/href"
)

// source is where a view reads its address from and commits writes to.
type source interface {
	location(ctx context.Context) (href.Location, error)
	// commit pushes what merge derives from the current address and returns
	// the address before and after.
	commit(ctx context.Context, merge address.MergeFunc) (from, to string, err error)
	live() bool
}

// liveSource tracks the shared address of a provider. Writes are pushed
// through the navigation chain so they add history entries.
type liveSource struct {
	provider address.Provider
	chain    *middleware.Chain
}

func (s *liveSource) location(ctx context.Context) (href.Location, error) {
	return s.provider.Location(ctx)
}

func (s *liveSource) commit(ctx context.Context, merge address.MergeFunc) (string, string, error) {
	nav := &middleware.Navigation{Mode: middleware.ModePush, Merge: merge}
	if err := s.chain.Process(ctx, s.provider, nav); err != nil {
		return "", "", err
	}
	return nav.From, nav.To, nil
}

func (s *liveSource) live() bool { return true }

// detachedSource owns a private snapshot that only its view can change.
type detachedSource struct {
	snapshot href.Location
}

func (s *detachedSource) location(_ context.Context) (href.Location, error) {
	return s.snapshot, nil
}

func (s *detachedSource) commit(_ context.Context, merge address.MergeFunc) (string, string, error) {
	next, err := merge(s.snapshot)
	if err != nil {
		return "", "", err
	}
	from := s.snapshot.String()
	s.snapshot = next
	return from, next.String(), nil
}

func (s *detachedSource) live() bool { return false }
