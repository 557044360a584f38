package session

import (
	"context"
	"errors"
	"sync"

	"github.com/bwmarrin/snowflake"
	identitydomain "github.com/courtsidehq/courtside/internal/identity/domain"
	profiledomain "github.com/courtsidehq/courtside/internal/profile/domain"
	"go.uber.org/zap"
)

// ProfileResolver is the slice of the profile store the coordinator needs.
type ProfileResolver interface {
	Get(ctx context.Context, id snowflake.ID) (*profiledomain.Profile, error)
}

// Coordinator resolves identity transitions into store snapshots. Each
// delivered event gets a monotonically increasing sequence number; a
// cycle's write is committed only while its sequence is still the latest,
// so a stale in-flight profile lookup never overwrites a newer cycle
// (last-event-wins).
type Coordinator struct {
	store    *Store
	profiles ProfileResolver
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	seq    uint64
	closed bool
}

func NewCoordinator(store *Store, profiles ProfileResolver, log *zap.Logger) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		store:    store,
		profiles: profiles,
		log:      log.Named("session.coordinator"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Handle is the identity-change callback. It starts a resolution cycle
// for the delivered identity; the profile lookup runs off the caller's
// goroutine so a later event can supersede it.
func (c *Coordinator) Handle(identity *identitydomain.Identity) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	c.store.SetLoading(true)

	if identity == nil {
		c.commit(seq, Snapshot{})
		return
	}

	go c.resolve(seq, identity)
}

func (c *Coordinator) resolve(seq uint64, identity *identitydomain.Identity) {
	profile, err := c.profiles.Get(c.ctx, identity.UserID)
	switch {
	case err == nil:
		c.commit(seq, Snapshot{Identity: identity, Profile: profile})
	case errors.Is(err, profiledomain.ErrProfileNotFound):
		c.commit(seq, Snapshot{Identity: identity})
	default:
		// Transient lookup failure. The subscription stays alive; the
		// error rides in the snapshot until the next successful cycle.
		c.log.Warn("profile resolution failed",
			zap.String("user_id", identity.UserID.String()),
			zap.Error(err),
		)
		c.commit(seq, Snapshot{Identity: identity, Err: err.Error()})
	}
}

// commit applies the cycle's snapshot unless the coordinator has closed
// or a newer event has been dispatched since.
func (c *Coordinator) commit(seq uint64, snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || seq != c.seq {
		return
	}
	snap.Loading = false
	c.store.Apply(snap)
}

// Close stops all future store writes, including from lookups still in
// flight, and cancels their contexts.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
}
