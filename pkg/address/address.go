// Package address defines the source of the shared, process-wide address that
// live views track, and an in-memory implementation of it.
//
// A Provider is created once and injected into every live view that should
// observe it. It lives for the whole process and is mutated in place by
// navigations, whether they come from a view or from elsewhere.
package address

import (
	"context"
	"strings"

	"github.com/jaxron/urlview/pkg/href"
)

// DefaultStart is the address a provider starts at when none is configured.
const DefaultStart = "http://localhost/"

// Provider supplies the current shared address and accepts navigations.
type Provider interface {
	// Href returns the current address.
	Href(ctx context.Context) (string, error)

	// Location returns the current address split into its parts.
	Location(ctx context.Context) (href.Location, error)

	// Navigate pushes target as a new history entry. Earlier entries are kept.
	Navigate(ctx context.Context, target string) error
}

// MergeFunc derives the next address from the current one.
type MergeFunc func(current href.Location) (href.Location, error)

// Updater is implemented by providers that can push the result of a MergeFunc
// with no other navigation committed between reading the current address and
// pushing the new one, including navigations from other processes.
type Updater interface {
	// Update calls merge with the current address and pushes what it returns.
	// merge may be called more than once when the write has to start over.
	// It returns the address before and after the push.
	Update(ctx context.Context, merge MergeFunc) (from, to string, err error)
}

// Resolve turns target into an absolute address. Absolute addresses are
// returned as they are; path-absolute targets such as "/users?a=b" keep the
// origin of current. Anything else fails with errors.ErrURLParse.
func Resolve(current, target string) (href.Location, error) {
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") {
		cur, err := href.Split(current)
		if err != nil {
			return href.Location{}, err
		}
		return href.Split(cur.Origin + target)
	}
	return href.Split(target)
}
