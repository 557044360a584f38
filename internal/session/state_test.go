package session

import (
	"testing"
)

func TestStoreInitialSnapshotIsLoading(t *testing.T) {
	store := NewStore()
	snap := store.Snapshot()
	if !snap.Loading || snap.Identity != nil || snap.Profile != nil {
		t.Fatalf("unexpected initial snapshot %+v", snap)
	}
}

func TestStoreApplyIsObservedAsOneUpdate(t *testing.T) {
	store := NewStore()

	var seen []Snapshot
	cancel := store.Watch(func(s Snapshot) { seen = append(seen, s) })
	defer cancel()

	store.Apply(Snapshot{Identity: identityFor(1), Profile: coachProfile(1)})

	// Initial fire plus one update; never an intermediate state with
	// identity set but a stale profile.
	if len(seen) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(seen))
	}
	last := seen[1]
	if last.Identity == nil || last.Profile == nil || last.Profile.ID != last.Identity.UserID {
		t.Fatalf("half-applied update observed: %+v", last)
	}
}

func TestStoreClear(t *testing.T) {
	store := NewStore()
	store.Apply(Snapshot{Identity: identityFor(1), Profile: coachProfile(1)})

	store.Clear()
	snap := store.Snapshot()
	if snap.Identity != nil || snap.Profile != nil || snap.Loading {
		t.Fatalf("clear left residue: %+v", snap)
	}
}

func TestStoreWatchCancel(t *testing.T) {
	store := NewStore()

	count := 0
	cancel := store.Watch(func(Snapshot) { count++ })
	cancel()

	store.Apply(Snapshot{})
	if count != 1 {
		t.Fatalf("cancelled watcher still fired, count=%d", count)
	}
}
