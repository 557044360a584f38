package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	identitydomain "github.com/courtsidehq/courtside/internal/identity/domain"
	profiledomain "github.com/courtsidehq/courtside/internal/profile/domain"
	"go.uber.org/zap"
)

// scriptedResolver serves canned profile results per user id, optionally
// blocking a lookup until released so tests can interleave cycles.
type scriptedResolver struct {
	mu       sync.Mutex
	profiles map[snowflake.ID]*profiledomain.Profile
	errs     map[snowflake.ID]error
	gates    map[snowflake.ID]chan struct{}
}

func newScriptedResolver() *scriptedResolver {
	return &scriptedResolver{
		profiles: make(map[snowflake.ID]*profiledomain.Profile),
		errs:     make(map[snowflake.ID]error),
		gates:    make(map[snowflake.ID]chan struct{}),
	}
}

func (r *scriptedResolver) serve(id snowflake.ID, p *profiledomain.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[id] = p
	delete(r.errs, id)
}

func (r *scriptedResolver) fail(id snowflake.ID, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[id] = err
}

// gate makes the next lookup for id block until the returned channel is
// closed.
func (r *scriptedResolver) gate(id snowflake.ID) chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan struct{})
	r.gates[id] = ch
	return ch
}

func (r *scriptedResolver) Get(ctx context.Context, id snowflake.ID) (*profiledomain.Profile, error) {
	r.mu.Lock()
	gate := r.gates[id]
	r.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.errs[id]; ok {
		return nil, err
	}
	if p, ok := r.profiles[id]; ok {
		return p, nil
	}
	return nil, profiledomain.ErrProfileNotFound
}

func identityFor(id int64) *identitydomain.Identity {
	return &identitydomain.Identity{
		UserID:      snowflake.ID(id),
		Provider:    "local",
		Email:       "user@example.com",
		DisplayName: "user",
	}
}

func coachProfile(id int64) *profiledomain.Profile {
	return &profiledomain.Profile{
		ID:    snowflake.ID(id),
		Role:  profiledomain.RoleCoach,
		Coach: &profiledomain.CoachAttributes{},
	}
}

func playerProfile(id int64) *profiledomain.Profile {
	return &profiledomain.Profile{
		ID:     snowflake.ID(id),
		Role:   profiledomain.RolePlayer,
		Player: &profiledomain.PlayerAttributes{},
	}
}

func newTestCoordinator(t *testing.T) (*Coordinator, *Store, *scriptedResolver, chan Snapshot) {
	t.Helper()

	store := NewStore()
	resolver := newScriptedResolver()
	coord := NewCoordinator(store, resolver, zap.NewNop())
	t.Cleanup(coord.Close)

	updates := make(chan Snapshot, 64)
	store.Watch(func(s Snapshot) { updates <- s })
	<-updates // initial snapshot

	return coord, store, resolver, updates
}

func waitFor(t *testing.T, updates chan Snapshot, match func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-updates:
			if match(snap) {
				return snap
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
			return Snapshot{}
		}
	}
}

func settled(s Snapshot) bool { return !s.Loading }

func authenticatedAs(id int64) func(Snapshot) bool {
	return func(s Snapshot) bool {
		return !s.Loading && s.Profile != nil && s.Profile.ID == snowflake.ID(id)
	}
}

func TestNullIdentityAlwaysClears(t *testing.T) {
	coord, _, resolver, updates := newTestCoordinator(t)

	// From the initial state.
	coord.Handle(nil)
	snap := waitFor(t, updates, settled)
	if snap.Identity != nil || snap.Profile != nil || snap.Loading {
		t.Fatalf("expected cleared state, got %+v", snap)
	}

	// From an authenticated state.
	resolver.serve(1, coachProfile(1))
	coord.Handle(identityFor(1))
	waitFor(t, updates, authenticatedAs(1))

	coord.Handle(nil)
	snap = waitFor(t, updates, func(s Snapshot) bool { return !s.Loading && s.Identity == nil })
	if snap.Profile != nil {
		t.Fatalf("expected nil profile after sign-out, got %+v", snap.Profile)
	}

	// From an error state.
	resolver.fail(2, errors.New("transport down"))
	coord.Handle(identityFor(2))
	waitFor(t, updates, func(s Snapshot) bool { return !s.Loading && s.Err != "" })

	coord.Handle(nil)
	snap = waitFor(t, updates, func(s Snapshot) bool { return !s.Loading && s.Identity == nil })
	if snap.Profile != nil || snap.Err != "" {
		t.Fatalf("expected fully cleared state, got %+v", snap)
	}
}

func TestLastEventWinsAcrossIdentities(t *testing.T) {
	coord, store, resolver, updates := newTestCoordinator(t)

	resolver.serve(1, coachProfile(1))
	resolver.serve(2, playerProfile(2))

	// Hold identity 1's lookup so identity 2's full cycle completes first.
	release := resolver.gate(1)

	coord.Handle(identityFor(1))
	coord.Handle(identityFor(2))
	waitFor(t, updates, authenticatedAs(2))

	// The stale lookup resolves after the newer cycle committed. Its
	// write must be discarded.
	close(release)
	time.Sleep(50 * time.Millisecond)

	snap := store.Snapshot()
	if snap.Profile == nil || snap.Profile.ID != snowflake.ID(2) {
		t.Fatalf("stale cycle overwrote state: %+v", snap.Profile)
	}
	if snap.Identity == nil || snap.Identity.UserID != snowflake.ID(2) {
		t.Fatalf("expected identity 2, got %+v", snap.Identity)
	}
}

func TestLoadingBracket(t *testing.T) {
	coord, store, resolver, updates := newTestCoordinator(t)

	// Settle into an unauthenticated state first.
	coord.Handle(nil)
	waitFor(t, updates, settled)
	if store.Snapshot().Loading {
		t.Fatal("loading should be false between cycles")
	}

	release := resolver.gate(1)
	resolver.serve(1, coachProfile(1))
	coord.Handle(identityFor(1))

	waitFor(t, updates, func(s Snapshot) bool { return s.Loading })
	if !store.Snapshot().Loading {
		t.Fatal("loading should be true while the lookup is in flight")
	}

	close(release)
	waitFor(t, updates, authenticatedAs(1))
	if store.Snapshot().Loading {
		t.Fatal("loading should be false after the cycle commits")
	}

	// Error path closes the bracket too.
	resolver.fail(2, errors.New("transport down"))
	coord.Handle(identityFor(2))
	snap := waitFor(t, updates, func(s Snapshot) bool { return !s.Loading && s.Err != "" })
	if snap.Loading {
		t.Fatal("loading should be false after an error cycle")
	}
}

func TestProfileNotFoundYieldsNeedsSetup(t *testing.T) {
	coord, _, _, updates := newTestCoordinator(t)

	coord.Handle(identityFor(7))
	snap := waitFor(t, updates, func(s Snapshot) bool { return !s.Loading && s.Identity != nil })

	if snap.Profile != nil {
		t.Fatalf("expected no profile, got %+v", snap.Profile)
	}
	if snap.Err != "" {
		t.Fatalf("missing profile is not an error state, got %q", snap.Err)
	}
	if snap.Identity.UserID != snowflake.ID(7) {
		t.Fatalf("expected identity 7, got %v", snap.Identity.UserID)
	}
}

func TestErrorIsNonFatalAndClearsOnRetry(t *testing.T) {
	coord, _, resolver, updates := newTestCoordinator(t)

	resolver.fail(1, errors.New("transport down"))
	coord.Handle(identityFor(1))
	snap := waitFor(t, updates, func(s Snapshot) bool { return !s.Loading && s.Err != "" })
	if snap.Profile != nil {
		t.Fatalf("expected no profile on error, got %+v", snap.Profile)
	}
	if snap.Identity == nil {
		t.Fatal("identity should survive a failed lookup")
	}

	// The subscription is still alive: a retry event with a working
	// store reaches Authenticated-Complete and clears the error.
	resolver.serve(1, coachProfile(1))
	coord.Handle(identityFor(1))
	snap = waitFor(t, updates, authenticatedAs(1))
	if snap.Err != "" {
		t.Fatalf("error should clear on the next successful cycle, got %q", snap.Err)
	}
}

func TestRegistrationRaceNeedsSetupIsValid(t *testing.T) {
	coord, _, resolver, updates := newTestCoordinator(t)

	// The subscription observes the new identity before the profile row
	// exists. NeedsSetup is the accepted transient outcome.
	coord.Handle(identityFor(9))
	snap := waitFor(t, updates, func(s Snapshot) bool { return !s.Loading && s.Identity != nil })
	if snap.Profile != nil {
		t.Fatalf("expected NeedsSetup before create lands, got %+v", snap.Profile)
	}

	// Once create lands, the next cycle completes.
	resolver.serve(9, playerProfile(9))
	coord.Handle(identityFor(9))
	snap = waitFor(t, updates, authenticatedAs(9))
	if snap.Profile.Role != profiledomain.RolePlayer {
		t.Fatalf("expected player role, got %s", snap.Profile.Role)
	}
}

func TestCloseStopsInFlightWrites(t *testing.T) {
	coord, store, resolver, updates := newTestCoordinator(t)

	coord.Handle(nil)
	waitFor(t, updates, settled)

	release := resolver.gate(1)
	resolver.serve(1, coachProfile(1))
	coord.Handle(identityFor(1))
	waitFor(t, updates, func(s Snapshot) bool { return s.Loading })

	coord.Close()
	close(release)
	time.Sleep(50 * time.Millisecond)

	snap := store.Snapshot()
	if snap.Identity != nil || snap.Profile != nil {
		t.Fatalf("write landed after close: %+v", snap)
	}

	// Events after close are ignored entirely.
	coord.Handle(identityFor(2))
	time.Sleep(20 * time.Millisecond)
	if store.Snapshot().Identity != nil {
		t.Fatal("handle after close mutated state")
	}
}
