package retry

import (
	"sync"
	"time"
)

// BreakerState is the circuit breaker's tagged state.
type BreakerState string

const (
	// Closed: normal operation, calls flow through.
	Closed BreakerState = "closed"
	// Open: rejecting calls until the reset window elapses.
	Open BreakerState = "open"
	// HalfOpen: probation, one probe decides which way to go.
	HalfOpen BreakerState = "half-open"
)

// Breaker defaults.
const (
	DefaultFailureThreshold = 5
	DefaultResetAfter       = 60 * time.Second
)

// Breaker stops hammering a failing dependency: after threshold
// consecutive failures it opens, and after the reset window it lets a
// probe through. The open→half-open transition is evaluated lazily on
// read; there is no timer.
type Breaker struct {
	mu          sync.Mutex
	threshold   int
	resetAfter  time.Duration
	failures    int
	lastFailure time.Time
	open        bool
	now         func() time.Time
}

// Snapshot is the breaker's externally visible state, for status display.
type Snapshot struct {
	State       BreakerState `json:"state"`
	Failures    int          `json:"failure_count"`
	LastFailure *time.Time   `json:"last_failure,omitempty"`
}

// NewBreaker creates a breaker. Non-positive arguments take the defaults.
func NewBreaker(threshold int, resetAfter time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	if resetAfter <= 0 {
		resetAfter = DefaultResetAfter
	}
	return &Breaker{
		threshold:  threshold,
		resetAfter: resetAfter,
		now:        time.Now,
	}
}

// stateLocked computes the effective state, applying the lazy
// open→half-open transition. Callers hold b.mu.
func (b *Breaker) stateLocked() BreakerState {
	if !b.open {
		return Closed
	}
	if b.now().Sub(b.lastFailure) > b.resetAfter {
		return HalfOpen
	}
	return Open
}

// State reports the current effective state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

// CanAttempt reports whether a call may proceed (closed or half-open).
func (b *Breaker) CanAttempt() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked() != Open
}

// RecordFailure counts a failed call; at threshold the breaker opens.
// A failure during half-open probation re-opens immediately.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = b.now()
	if b.failures >= b.threshold {
		b.open = true
	}
}

// RecordSuccess resets the failure count and forces closed.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.open = false
}

// Reset forces closed and zeroes all bookkeeping.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.lastFailure = time.Time{}
	b.open = false
}

// Snapshot returns the breaker's current observable state.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Snapshot{
		State:    b.stateLocked(),
		Failures: b.failures,
	}
	if !b.lastFailure.IsZero() {
		t := b.lastFailure
		s.LastFailure = &t
	}
	return s
}
