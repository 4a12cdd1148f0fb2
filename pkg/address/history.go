package address

import (
	"context"
	"fmt"
	"sync"

	"github.com/jaxron/urlview/pkg/errors"
	"github.com/jaxron/urlview/pkg/href"
	"github.com/jaxron/urlview/pkg/logger"
)

// History is an in-memory Provider with browser-style session history.
// It is safe for concurrent use.
type History struct {
	mu      sync.Mutex
	entries []href.Location
	index   int
	logger  logger.Logger
}

// NewHistory creates a History whose only entry is start.
func NewHistory(start string) (*History, error) {
	loc, err := href.Split(start)
	if err != nil {
		return nil, err
	}
	return &History{
		entries: []href.Location{loc},
		index:   0,
		logger:  &logger.NoOpLogger{},
	}, nil
}

// SetLogger sets the logger for the history.
func (h *History) SetLogger(l logger.Logger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logger = l
}

// Href returns the current entry.
func (h *History) Href(_ context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index].String(), nil
}

// Location returns the current entry split into its parts.
func (h *History) Location(_ context.Context) (href.Location, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index], nil
}

// Navigate pushes target after the current entry and drops any forward entries.
func (h *History) Navigate(_ context.Context, target string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	loc, err := Resolve(h.entries[h.index].String(), target)
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrNavigation, err)
	}

	h.entries = append(h.entries[:h.index+1], loc)
	h.index++

	h.logger.WithFields(
		logger.String("href", loc.String()),
		logger.Int("length", len(h.entries)),
	).Debug("Pushed history entry")
	return nil
}

// Update pushes the location merge derives from the current entry while
// holding the history lock.
func (h *History) Update(_ context.Context, merge MergeFunc) (string, string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	current := h.entries[h.index]
	next, err := merge(current)
	if err != nil {
		return "", "", err
	}

	h.entries = append(h.entries[:h.index+1], next)
	h.index++

	h.logger.WithFields(
		logger.String("href", next.String()),
		logger.Int("length", len(h.entries)),
	).Debug("Pushed merged history entry")
	return current.String(), next.String(), nil
}

// Replace overwrites the current entry without adding history.
func (h *History) Replace(_ context.Context, target string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	loc, err := Resolve(h.entries[h.index].String(), target)
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrNavigation, err)
	}
	h.entries[h.index] = loc

	h.logger.WithFields(logger.String("href", loc.String())).Debug("Replaced history entry")
	return nil
}

// Go moves delta entries through the history. It fails with
// errors.ErrNoHistoryEntry when the target entry does not exist.
func (h *History) Go(_ context.Context, delta int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	next := h.index + delta
	if next < 0 || next >= len(h.entries) {
		return fmt.Errorf("%w: cannot move %d from entry %d of %d", errors.ErrNoHistoryEntry, delta, h.index, len(h.entries))
	}
	h.index = next
	return nil
}

// Back moves to the previous entry.
func (h *History) Back(ctx context.Context) error {
	return h.Go(ctx, -1)
}

// Forward moves to the next entry.
func (h *History) Forward(ctx context.Context) error {
	return h.Go(ctx, 1)
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Entries returns every entry as an href, oldest first, and the current index.
func (h *History) Entries() ([]string, int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]string, 0, len(h.entries))
	for _, loc := range h.entries {
		out = append(out, loc.String())
	}
	return out, h.index
}
