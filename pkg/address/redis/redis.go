// Package redis provides an address.Provider that keeps the shared address
// and its history in Redis, so any number of processes can follow and move
// the same address.
package redis

import (
	"context"
	"fmt"
	"slices"

	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash"
	"github.com/jaxron/urlview/pkg/address"
	"github.com/jaxron/urlview/pkg/errors"
	"github.com/jaxron/urlview/pkg/href"
	"github.com/jaxron/urlview/pkg/logger"
	"github.com/redis/rueidis"
	"golang.org/x/sync/singleflight"
)

// maxConflicts bounds the optimistic transaction retries of one write.
const maxConflicts = 8

// Provider is a Redis-backed address.Provider.
type Provider struct {
	client rueidis.Client
	key    string
	group  *singleflight.Group
	logger logger.Logger
}

// Key returns the Redis key holding the history of namespace.
func Key(namespace string) string {
	return fmt.Sprintf("urlview:%x:history", xxhash.Sum64String(namespace))
}

// New returns a Provider for namespace. The history is created with start as
// its only entry unless another process created it first.
func New(ctx context.Context, client rueidis.Client, namespace, start string) (*Provider, error) {
	initial, err := address.NewState(start)
	if err != nil {
		return nil, err
	}
	data, err := sonic.Marshal(initial)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrState, err)
	}

	p := &Provider{
		client: client,
		key:    Key(namespace),
		group:  &singleflight.Group{},
		logger: &logger.NoOpLogger{},
	}

	cmd := client.B().Set().Key(p.key).Value(string(data)).Nx().Build()
	if err := client.Do(ctx, cmd).Error(); err != nil && !rueidis.IsRedisNil(err) {
		return nil, classify(err)
	}
	return p, nil
}

// SetLogger sets the logger for the provider.
func (p *Provider) SetLogger(l logger.Logger) {
	p.logger = l
}

// Href returns the current entry. Concurrent reads share one round trip.
func (p *Provider) Href(ctx context.Context) (string, error) {
	s, err := p.load(ctx)
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
			logger.String("key", p.key),
		).Debug("Pushed history entry")
		return nil
	})
}

// Update pushes the location merge derives from the current entry inside
// one optimistic transaction. When another writer commits first, merge runs
// again on the newer entry.
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
			logger.String("key", p.key),
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
			logger.String("key", p.key),
		).Debug("Replaced history entry")
		return nil
	})
}

// Go moves delta entries through the history.
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
func (p *Provider) Entries(ctx context.Context) ([]string, int, error) {
	s, err := p.load(ctx)
	if err != nil {
		return nil, 0, err
	}
	return slices.Clone(s.Entries), s.Index, nil
}

// load reads the history, coalescing concurrent reads of the same key.
func (p *Provider) load(ctx context.Context) (*address.State, error) {
	result, err, shared := p.group.Do(p.key, func() (interface{}, error) {
		data, err := p.client.Do(ctx, p.client.B().Get().Key(p.key).Build()).AsBytes()
		if err != nil {
			return nil, classify(err)
		}
		return decodeState(data)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		p.logger.Debug("Shared history read")
	}

	s, ok := result.(*address.State)
	if !ok {
		return nil, errors.ErrUnreachable
	}
	return s, nil
}

// mutate applies update inside an optimistic WATCH/MULTI/EXEC transaction,
// starting over when another writer changed the key first.
func (p *Provider) mutate(ctx context.Context, update func(s *address.State) error) error {
	for attempt := range maxConflicts {
		committed := false
		err := p.client.Dedicated(func(c rueidis.DedicatedClient) error {
			if err := c.Do(ctx, c.B().Watch().Key(p.key).Build()).Error(); err != nil {
				return classify(err)
			}

			data, err := c.Do(ctx, c.B().Get().Key(p.key).Build()).AsBytes()
			if err != nil {
				_ = c.Do(ctx, c.B().Unwatch().Build()).Error()
				return classify(err)
			}
			s, err := decodeState(data)
			if err == nil {
				err = update(s)
			}
			if err != nil {
				_ = c.Do(ctx, c.B().Unwatch().Build()).Error()
				return err
			}

			out, err := sonic.Marshal(s)
			if err != nil {
				return fmt.Errorf("%w: %w", errors.ErrState, err)
			}

			results := c.DoMulti(ctx,
				c.B().Multi().Build(),
				c.B().Set().Key(p.key).Value(string(out)).Build(),
				c.B().Exec().Build(),
			)
			err = results[len(results)-1].Error()
			switch {
			case rueidis.IsRedisNil(err):
				return nil
			case err != nil:
				return classify(err)
			}
			committed = true
			return nil
		})
		if err != nil {
			return err
		}
		if committed {
			return nil
		}

		p.logger.WithFields(
			logger.String("key", p.key),
			logger.Int("attempt", attempt+1),
		).Warn("History changed during write, retrying")
	}
	return fmt.Errorf("%w: %s kept changing during write", errors.ErrTemporary, p.key)
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

// classify wraps connection failures as temporary so the retry and circuit
// breaker middleware can act on them. Replies from the server are permanent.
func classify(err error) error {
	if rueidis.IsRedisNil(err) {
		return fmt.Errorf("%w: history not found", errors.ErrState)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", errors.ErrTimeout, err)
	}
	if _, ok := rueidis.IsRedisErr(err); ok {
		return fmt.Errorf("%w: %w", errors.ErrPermanent, err)
	}
	return fmt.Errorf("%w: %w", errors.ErrTemporary, err)
}
