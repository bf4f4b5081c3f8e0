// Package ratelimit implements the in-process multi-bucket rate limiter
// that gates session creation and per-session actions in the registration
// gateway. Each named bucket is a leaky bucket with an additional minimum
// delay between consumes, keyed by an arbitrary caller-supplied subject
// (a phone number or a session ID).
package ratelimit

import (
	"sync"
	"time"

	"github.com/aelexs/realtime-messaging-platform/internal/domain"
)

// Policy configures a single named bucket.
type Policy struct {
	// Capacity is the maximum number of tokens the bucket can hold.
	Capacity float64
	// RefillPerSecond is how many tokens are added back per second.
	RefillPerSecond float64
	// MinDelay is the minimum time that must elapse between two consumes,
	// regardless of token availability. Zero disables the check.
	MinDelay time.Duration
}

// Decision is the outcome of a Try or Peek call.
type Decision struct {
	Admitted        bool
	RetryAfter      time.Duration
	RemainingTokens float64
}

type bucketState struct {
	mu            sync.Mutex
	tokens        float64
	lastRefillAt  time.Time
	lastConsumeAt time.Time
	touchedAt     time.Time
}

// Limiter holds one or more named buckets, each keyed by subject.
type Limiter struct {
	clock domain.Clock

	mu       sync.Mutex
	policies map[string]Policy
	buckets  map[string]map[string]*bucketState
}

// New creates an empty Limiter. Register named buckets with Configure
// before calling Try/Peek for that bucket name.
func New(clock domain.Clock) *Limiter {
	return &Limiter{
		clock:    clock,
		policies: make(map[string]Policy),
		buckets:  make(map[string]map[string]*bucketState),
	}
}

// Configure registers (or replaces) the policy for a named bucket.
func (l *Limiter) Configure(name string, p Policy) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.policies[name] = p
	if l.buckets[name] == nil {
		l.buckets[name] = make(map[string]*bucketState)
	}
}

// Try attempts to consume one token from the named bucket for subject,
// creating the bucket on first use. It is side-effecting: on admission the
// bucket's state advances.
func (l *Limiter) Try(name, subject string) Decision {
	return l.attempt(name, subject, true)
}

// Peek reports what Try would currently do, without consuming a token or
// otherwise mutating bucket state. Used to project may_request_*/next_*
// fields without side effects.
func (l *Limiter) Peek(name, subject string) Decision {
	return l.attempt(name, subject, false)
}

func (l *Limiter) attempt(name, subject string, consume bool) Decision {
	policy, bucket := l.lookup(name, subject)

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	now := l.clock.Now()
	refill(bucket, policy, now)

	if policy.MinDelay > 0 && !bucket.lastConsumeAt.IsZero() {
		elapsed := now.Sub(bucket.lastConsumeAt)
		if elapsed < policy.MinDelay {
			return Decision{
				Admitted:        false,
				RetryAfter:      policy.MinDelay - elapsed,
				RemainingTokens: bucket.tokens,
			}
		}
	}

	if bucket.tokens < 1 {
		retryAfter := retryAfterForToken(policy, bucket.tokens)
		return Decision{Admitted: false, RetryAfter: retryAfter, RemainingTokens: bucket.tokens}
	}

	if consume {
		bucket.tokens--
		bucket.lastConsumeAt = now
		bucket.touchedAt = now
	}

	return Decision{Admitted: true, RemainingTokens: bucket.tokens}
}

// lookup returns the policy and bucket state for (name, subject), creating
// the bucket lazily at full capacity.
func (l *Limiter) lookup(name, subject string) (Policy, *bucketState) {
	l.mu.Lock()
	defer l.mu.Unlock()

	policy := l.policies[name]
	perSubject, ok := l.buckets[name]
	if !ok {
		perSubject = make(map[string]*bucketState)
		l.buckets[name] = perSubject
	}

	b, ok := perSubject[subject]
	if !ok {
		now := l.clock.Now()
		b = &bucketState{
			tokens:       policy.Capacity,
			lastRefillAt: now,
			touchedAt:    now,
		}
		perSubject[subject] = b
	}
	return policy, b
}

// refill advances bucket.tokens per the policy's refill rate. Caller must
// hold bucket.mu.
func refill(bucket *bucketState, policy Policy, now time.Time) {
	elapsed := now.Sub(bucket.lastRefillAt).Seconds()
	if elapsed <= 0 {
		return
	}
	bucket.tokens += elapsed * policy.RefillPerSecond
	if bucket.tokens > policy.Capacity {
		bucket.tokens = policy.Capacity
	}
	bucket.lastRefillAt = now
}

// retryAfterForToken computes how long until at least one token is
// available, given the policy's refill rate.
func retryAfterForToken(policy Policy, tokens float64) time.Duration {
	if policy.RefillPerSecond <= 0 {
		return time.Duration(1<<63 - 1) // effectively never, refill disabled
	}
	deficit := 1 - tokens
	if deficit < 0 {
		deficit = 0
	}
	seconds := deficit / policy.RefillPerSecond
	return time.Duration(seconds * float64(time.Second)).Round(time.Second)
}

// Sweep evicts bucket entries whose last activity is older than retainIdle.
// Intended to run on a timer from the caller (see gateway/app/registry.go's
// sweeper for the analogous pattern over sessions).
func (l *Limiter) Sweep(retainIdle time.Duration) {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, perSubject := range l.buckets {
		for subject, b := range perSubject {
			b.mu.Lock()
			stale := now.Sub(b.touchedAt) > retainIdle
			b.mu.Unlock()
			if stale {
				delete(perSubject, subject)
			}
		}
	}
}

// Count returns the number of active (subject) entries across all buckets.
// Exposed for tests asserting the O(active subjects) memory bound.
func (l *Limiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, perSubject := range l.buckets {
		n += len(perSubject)
	}
	return n
}
