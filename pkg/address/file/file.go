// Package file provides an address.Provider whose shared address and history
// live in a JSON file, so that separate processes observe each other's
// navigations.
package file

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jaxron/urlview/pkg/address"
	"github.com/jaxron/urlview/pkg/errors"
	"github.com/jaxron/urlview/pkg/href"
	"github.com/jaxron/urlview/pkg/logger"
	"github.com/natefinch/atomic"
)

// Provider is a file-backed address.Provider. Every call reads the file
// again; writes hold an exclusive lock and replace the file atomically.
type Provider struct {
	path        string
	lockTimeout time.Duration
	logger      logger.Logger
}

// New opens the state file at path, creating it with start as its only entry
// when it does not exist yet.
func New(ctx context.Context, path, start string) (*Provider, error) {
	initial, err := address.NewState(start)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		path:        path,
		lockTimeout: LockTimeout,
		logger:      &logger.NoOpLogger{},
	}

	err = p.withLock(ctx, func(s *address.State, exists bool) (bool, error) {
		if exists {
			return false, nil
		}
		*s = *initial
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SetLogger sets the logger for the provider.
func (p *Provider) SetLogger(l logger.Logger) {
	p.logger = l
}

// SetLockTimeout sets how long a write waits for another process to release
// the state file. Waiting longer fails with errors.ErrTimeout.
func (p *Provider) SetLockTimeout(d time.Duration) {
	p.lockTimeout = d
}

// Href returns the current entry.
func (p *Provider) Href(_ context.Context) (string, error) {
	s, err := p.load()
	if err != nil {
		return "", err
	}
	return s.Current(), nil
}

// Location returns the current entry split into its parts.
func (p *Provider) Location(ctx context.Context) (href.Location, error) {
	current, err := p.Href(ctx)
	if err != nil {
		return href.Location{}, err
	}
	return href.Split(current)
}

// Navigate pushes target after the current entry and drops any forward entries.
func (p *Provider) Navigate(ctx context.Context, target string) error {
	return p.mutate(ctx, func(s *address.State) error {
		loc, err := s.Push(target)
		if err != nil {
			return err
		}
		p.logger.WithFields(
			logger.String("href", loc.String()),
			logger.Int("length", len(s.Entries)),
			logger.String("file", p.path),
		).Debug("Pushed history entry")
		return nil
	})
}

// Update pushes the location merge derives from the current entry while
// holding the file lock.
func (p *Provider) Update(ctx context.Context, merge address.MergeFunc) (string, string, error) {
	var from, to href.Location
	err := p.mutate(ctx, func(s *address.State) error {
		var err error
		if from, to, err = s.Apply(merge); err != nil {
			return err
		}
		p.logger.WithFields(
			logger.String("href", to.String()),
			logger.Int("length", len(s.Entries)),
			logger.String("file", p.path),
		).Debug("Pushed merged history entry")
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return from.String(), to.String(), nil
}

// Replace overwrites the current entry without adding history.
func (p *Provider) Replace(ctx context.Context, target string) error {
	return p.mutate(ctx, func(s *address.State) error {
		loc, err := s.Replace(target)
		if err != nil {
			return err
		}
		p.logger.WithFields(
			logger.String("href", loc.String()),
			logger.String("file", p.path),
		).Debug("Replaced history entry")
		return nil
	})
}

// Go moves delta entries through the history. It fails with
// errors.ErrNoHistoryEntry when the target entry does not exist.
func (p *Provider) Go(ctx context.Context, delta int) error {
	return p.mutate(ctx, func(s *address.State) error {
		return s.Go(delta)
	})
}

// Back moves to the previous entry.
func (p *Provider) Back(ctx context.Context) error {
	return p.Go(ctx, -1)
}

// Forward moves to the next entry.
func (p *Provider) Forward(ctx context.Context) error {
	return p.Go(ctx, 1)
}

// Entries returns every entry, oldest first, and the current index.
func (p *Provider) Entries(_ context.Context) ([]string, int, error) {
	s, err := p.load()
	if err != nil {
		return nil, 0, err
	}
	return slices.Clone(s.Entries), s.Index, nil
}

// load reads and validates the state file.
func (p *Provider) load() (*address.State, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrState, err)
	}
	return decodeState(data)
}

func decodeState(data []byte) (*address.State, error) {
	var s address.State
	if err := sonic.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrState, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// mutate applies update to an existing state file and writes it back.
func (p *Provider) mutate(ctx context.Context, update func(s *address.State) error) error {
	return p.withLock(ctx, func(s *address.State, exists bool) (bool, error) {
		if !exists {
			return false, fmt.Errorf("%w: %s does not exist", errors.ErrState, p.path)
		}
		if err := update(s); err != nil {
			return false, err
		}
		return true, nil
	})
}

// withLock runs update on the current state under the file lock and writes
// the state back when update reports a change.
func (p *Provider) withLock(ctx context.Context, update func(s *address.State, exists bool) (bool, error)) error {
	lock, err := acquireLock(ctx, p.path, p.lockTimeout)
	if err != nil {
		return err
	}
	defer lock.release()

	state := &address.State{}
	exists := true
	data, err := os.ReadFile(p.path)
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		exists = false
	case err != nil:
		return fmt.Errorf("%w: %w", errors.ErrState, err)
	default:
		if state, err = decodeState(data); err != nil {
			return err
		}
	}

	changed, err := update(state, exists)
	if err != nil || !changed {
		return err
	}

	out, err := sonic.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrState, err)
	}
	if err := atomic.WriteFile(p.path, bytes.NewReader(out)); err != nil {
		return fmt.Errorf("%w: writing %s: %w", errors.ErrState, p.path, err)
	}
	return nil
}
