package middleware

import (
	"context"

	"github.com/jaxron/urlview/pkg/address"
	"github.com/jaxron/urlview/pkg/logger"
)

// Mode tells how a navigation affects history.
type Mode int

const (
	// ModePush adds a new history entry.
	ModePush Mode = iota

	// ModeReplace overwrites the current entry.
	ModeReplace
)

func (m Mode) String() string {
	if m == ModeReplace {
		return "replace"
	}
	return "push"
}

// Navigation describes one commit to the shared address.
//
// A push with Merge set derives To from the provider's current address when
// it is committed, and From and To are filled in once the push succeeded.
type Navigation struct {
	From  string
	To    string
	Mode  Mode
	Merge address.MergeFunc
}

// NextFunc is a function type that represents the next middleware in the chain.
type NextFunc func(ctx context.Context, provider address.Provider, nav *Navigation) error

// Middleware interface for all navigation middleware components.
type Middleware interface {
	Process(ctx context.Context, provider address.Provider, nav *Navigation, next NextFunc) error
	SetLogger(l logger.Logger)
}
