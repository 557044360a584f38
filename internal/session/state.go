// Package session holds the process's observable authentication state:
// a single-writer store, the coordinator that resolves identity changes
// into profile-backed snapshots, and the role-gated routing decision.
package session

import (
	"sync"

	identitydomain "github.com/courtsidehq/courtside/internal/identity/domain"
	profiledomain "github.com/courtsidehq/courtside/internal/profile/domain"
)

// Snapshot is one consistent view of the session state. A non-nil Profile
// implies a non-nil Identity with the same identifier; a nil Identity
// implies a nil Profile.
type Snapshot struct {
	Identity *identitydomain.Identity `json:"identity"`
	Profile  *profiledomain.Profile   `json:"profile"`
	Loading  bool                     `json:"loading"`
	Err      string                   `json:"error,omitempty"`
}

// Store is the observable holding the current snapshot. The coordinator is
// its only writer; watchers and Snapshot callers are readers. Every write
// is applied atomically, so no reader observes a half-updated cycle.
type Store struct {
	mu       sync.RWMutex
	snap     Snapshot
	watchers map[uint64]func(Snapshot)
	nextID   uint64
}

func NewStore() *Store {
	return &Store{
		snap:     Snapshot{Loading: true},
		watchers: make(map[uint64]func(Snapshot)),
	}
}

// Snapshot returns the current state as a consistent copy.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Apply commits one handling cycle's result as a single observable update.
func (s *Store) Apply(snap Snapshot) {
	s.mu.Lock()
	s.snap = snap
	watchers := make([]func(Snapshot), 0, len(s.watchers))
	for _, fn := range s.watchers {
		watchers = append(watchers, fn)
	}
	s.mu.Unlock()

	for _, fn := range watchers {
		fn(snap)
	}
}

// SetLoading flips only the loading flag, retaining identity and profile
// from the previous cycle so readers see a stable view while resolution
// is in flight.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	snap := s.snap
	snap.Loading = loading
	s.snap = snap
	watchers := make([]func(Snapshot), 0, len(s.watchers))
	for _, fn := range s.watchers {
		watchers = append(watchers, fn)
	}
	s.mu.Unlock()

	for _, fn := range watchers {
		fn(snap)
	}
}

// Clear nulls identity and profile and stops loading in one update.
func (s *Store) Clear() {
	s.Apply(Snapshot{})
}

// Watch registers a reader. The callback fires immediately with the
// current snapshot, then once per applied update. The returned cancel
// removes the watcher.
func (s *Store) Watch(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	current := s.snap
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}
