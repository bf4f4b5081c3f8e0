package app

import (
	"context"
	"sync"
	"time"

	"github.com/aelexs/realtime-messaging-platform/internal/domain"
)

// SessionHandle wraps a session with its own mutex. The registry's map
// lock protects only insertion/lookup/removal; all mutation of session
// fields happens while holding the handle's lock — see §5's locking
// discipline (registry lock -> session lock -> rate-limiter bucket lock).
type SessionHandle struct {
	mu sync.Mutex
	s  *session
}

// withLock runs fn with the handle's session under lock and returns fn's result.
func (h *SessionHandle) withLock(fn func(s *session) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return fn(h.s)
}

// SessionRegistry is the thread-safe map of session ID to SessionHandle,
// grounded on original_source/src/session.rs's SessionStore but upgraded
// from a single RwLock over the whole map to a short map-level lock plus
// per-session locks, so handlers never hold the map lock across I/O.
type SessionRegistry struct {
	clock domain.Clock
	ttl   time.Duration

	mu       sync.Mutex
	handles  map[domain.RegistrationSessionID]*SessionHandle
}

// NewSessionRegistry creates an empty registry with the given default TTL.
func NewSessionRegistry(clock domain.Clock, ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{
		clock:   clock,
		ttl:     ttl,
		handles: make(map[domain.RegistrationSessionID]*SessionHandle),
	}
}

// Create mints a new session for phone/directoryUser and inserts it.
func (r *SessionRegistry) Create(phone domain.PhoneNumber, directoryUser string) (*SessionHandle, error) {
	id, err := domain.GenerateRegistrationSessionID()
	if err != nil {
		return nil, err
	}

	now := r.clock.Now()
	s := newSession(id, phone, directoryUser, now, now.Add(r.ttl))
	h := &SessionHandle{s: s}

	r.mu.Lock()
	r.handles[id] = h
	r.mu.Unlock()

	return h, nil
}

// Get returns the handle for id, or nil if absent or expired. An expired
// session is opportunistically evicted.
func (r *SessionRegistry) Get(id domain.RegistrationSessionID) *SessionHandle {
	r.mu.Lock()
	h, ok := r.handles[id]
	r.mu.Unlock()
	if !ok {
		return nil
	}

	expired := false
	h.withLock(func(s *session) error {
		expired = s.isExpired(r.clock.Now())
		return nil
	})
	if expired {
		r.evict(id)
		return nil
	}
	return h
}

// evict removes id from the map.
func (r *SessionRegistry) evict(id domain.RegistrationSessionID) {
	r.mu.Lock()
	delete(r.handles, id)
	r.mu.Unlock()
}

// Sweep evicts every session whose TTL has elapsed as of now. Intended to
// run on a timer at ttl/SessionSweepDivisor (see RunSweeper).
func (r *SessionRegistry) Sweep() {
	now := r.clock.Now()

	r.mu.Lock()
	var stale []domain.RegistrationSessionID
	for id, h := range r.handles {
		h.withLock(func(s *session) error {
			if s.isExpired(now) {
				stale = append(stale, id)
			}
			return nil
		})
	}
	for _, id := range stale {
		delete(r.handles, id)
	}
	r.mu.Unlock()
}

// Count returns the number of tracked sessions, including not-yet-swept
// expired ones. Exposed for tests.
func (r *SessionRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// RunSweeper runs Sweep on a fixed interval until ctx is canceled. Call as
// a goroutine from the composition root; grounded on the teacher's
// background-worker idiom (auth_request_otp.go's detached bgWG goroutine).
func (r *SessionRegistry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
