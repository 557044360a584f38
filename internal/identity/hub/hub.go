// Package hub fans identity transitions out to session-state watchers.
package hub

import (
	"errors"
	"strings"
	"sync"

	"github.com/courtsidehq/courtside/internal/identity/domain"
)

const DefaultSubscriberBuffer = 16

// Transition is a single observed change for one session key.
// A nil Identity means the session is no longer authenticated.
type Transition struct {
	Identity *domain.Identity
}

// Hub tracks subscribers per session token hash. Every revocation of a
// session is published under its token hash, so any holder of the same
// cookie (another tab, another device stream) observes the sign-out.
type Hub struct {
	mu         sync.RWMutex
	streams    map[string]*stream
	subsBuffer int
}

type stream struct {
	mu     sync.Mutex
	subs   map[uint64]chan Transition
	nextID uint64
}

type Subscription struct {
	hub        *Hub
	sessionKey string
	id         uint64
	ch         chan Transition
	once       sync.Once
}

func New() *Hub {
	return &Hub{
		streams:    make(map[string]*stream),
		subsBuffer: DefaultSubscriberBuffer,
	}
}

// Publish delivers a transition to every subscriber of the session key.
// Slow subscribers drop intermediate transitions rather than block the
// publisher; the latest state is re-sent on the next publish.
func (h *Hub) Publish(sessionKey string, transition Transition) {
	if h == nil {
		return
	}
	key := strings.TrimSpace(sessionKey)
	if key == "" {
		return
	}
	h.mu.RLock()
	stream := h.streams[key]
	h.mu.RUnlock()
	if stream == nil {
		return
	}

	stream.mu.Lock()
	subs := make([]chan Transition, 0, len(stream.subs))
	for _, ch := range stream.subs {
		subs = append(subs, ch)
	}
	stream.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- transition:
		default:
		}
	}
}

func (h *Hub) Subscribe(sessionKey string) (*Subscription, error) {
	if h == nil {
		return nil, errors.New("hub_unavailable")
	}
	key := strings.TrimSpace(sessionKey)
	if key == "" {
		return nil, errors.New("invalid_session_key")
	}

	stream := h.ensureStream(key)
	stream.mu.Lock()
	if stream.subs == nil {
		stream.subs = make(map[uint64]chan Transition)
	}
	id := stream.nextID
	stream.nextID++
	ch := make(chan Transition, h.subsBuffer)
	stream.subs[id] = ch
	stream.mu.Unlock()

	return &Subscription{
		hub:        h,
		sessionKey: key,
		id:         id,
		ch:         ch,
	}, nil
}

func (h *Hub) ensureStream(sessionKey string) *stream {
	h.mu.RLock()
	current := h.streams[sessionKey]
	h.mu.RUnlock()
	if current != nil {
		return current
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	current = h.streams[sessionKey]
	if current == nil {
		current = &stream{subs: make(map[uint64]chan Transition)}
		h.streams[sessionKey] = current
	}
	return current
}

func (h *Hub) unsubscribe(sessionKey string, id uint64) {
	if h == nil {
		return
	}
	key := strings.TrimSpace(sessionKey)
	if key == "" {
		return
	}

	h.mu.RLock()
	stream := h.streams[key]
	h.mu.RUnlock()
	if stream == nil {
		return
	}

	stream.mu.Lock()
	delete(stream.subs, id)
	remaining := len(stream.subs)
	stream.mu.Unlock()
	if remaining != 0 {
		return
	}

	h.mu.Lock()
	current := h.streams[key]
	if current != stream {
		h.mu.Unlock()
		return
	}
	stream.mu.Lock()
	empty := len(stream.subs) == 0
	stream.mu.Unlock()
	if empty {
		delete(h.streams, key)
	}
	h.mu.Unlock()
}

// Watch invokes fn once immediately with the current identity, then once
// per transition. Calls are serialized per watcher in arrival order. The
// returned cancel stops delivery; fn is never invoked after cancel returns
// has been observed by the drain goroutine.
func (h *Hub) Watch(sessionKey string, current *domain.Identity, fn func(*domain.Identity)) (func(), error) {
	sub, err := h.Subscribe(sessionKey)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		fn(current)
		for {
			select {
			case <-done:
				return
			case transition, ok := <-sub.ch:
				if !ok {
					return
				}
				select {
				case <-done:
					return
				default:
				}
				fn(transition.Identity)
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			sub.Close()
		})
	}
	return cancel, nil
}

func (s *Subscription) Transitions() <-chan Transition {
	if s == nil {
		return nil
	}
	return s.ch
}

func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.unsubscribe(s.sessionKey, s.id)
	})
}
