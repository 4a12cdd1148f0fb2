package address

import (
	"fmt"

	"github.com/jaxron/urlview/pkg/errors"
	"github.com/jaxron/urlview/pkg/href"
)

// State is the serializable form of a session history, shared by the
// providers that persist the address outside the process.
type State struct {
	Entries []string `json:"entries"`
	Index   int      `json:"index"`
}

// NewState returns a State whose only entry is start.
func NewState(start string) (*State, error) {
	loc, err := href.Split(start)
	if err != nil {
		return nil, err
	}
	return &State{Entries: []string{loc.String()}, Index: 0}, nil
}

// Validate fails with errors.ErrState when the cursor does not point at an entry.
func (s *State) Validate() error {
	if len(s.Entries) == 0 {
		return fmt.Errorf("%w: no entries", errors.ErrState)
	}
	if s.Index < 0 || s.Index >= len(s.Entries) {
		return fmt.Errorf("%w: index %d out of range for %d entries", errors.ErrState, s.Index, len(s.Entries))
	}
	return nil
}

// Current returns the entry under the cursor.
func (s *State) Current() string {
	return s.Entries[s.Index]
}

// Push resolves target against the current entry, appends it after the
// cursor and drops any forward entries.
func (s *State) Push(target string) (href.Location, error) {
	loc, err := Resolve(s.Current(), target)
	if err != nil {
		return href.Location{}, fmt.Errorf("%w: %w", errors.ErrNavigation, err)
	}
	s.Entries = append(s.Entries[:s.Index+1], loc.String())
	s.Index++
	return loc, nil
}

// Apply pushes the location merge derives from the current entry. It returns
// the entry it started from and the one it pushed.
func (s *State) Apply(merge MergeFunc) (href.Location, href.Location, error) {
	current, err := href.Split(s.Current())
	if err != nil {
		return href.Location{}, href.Location{}, fmt.Errorf("%w: %w", errors.ErrState, err)
	}
	next, err := merge(current)
	if err != nil {
		return href.Location{}, href.Location{}, err
	}
	s.Entries = append(s.Entries[:s.Index+1], next.String())
	s.Index++
	return current, next, nil
}

// Replace resolves target against the current entry and overwrites it.
func (s *State) Replace(target string) (href.Location, error) {
	loc, err := Resolve(s.Current(), target)
	if err != nil {
		return href.Location{}, fmt.Errorf("%w: %w", errors.ErrNavigation, err)
	}
	s.Entries[s.Index] = loc.String()
	return loc, nil
}

// Go moves the cursor by delta.
func (s *State) Go(delta int) error {
	next := s.Index + delta
	if next < 0 || next >= len(s.Entries) {
		return fmt.Errorf("%w: cannot move %d from entry %d of %d", errors.ErrNoHistoryEntry, delta, s.Index, len(s.Entries))
	}
	s.Index = next
	return nil
}
