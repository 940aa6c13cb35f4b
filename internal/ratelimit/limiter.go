// Package ratelimit implements the persisted token bucket that gates all
// remote generative calls. Refill is lazy: token math happens on access,
// never on a timer, so the bucket stays correct across restarts and idle
// periods.
package ratelimit

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/speedwarnsf/ZenSpace-sub000/internal/kv"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/logging"
)

// DefaultKey is the persisted-state key for the shared limiter.
const DefaultKey = "zenspace_rate_limit"

// Defaults: 5-token bucket refilling at 10 tokens per minute.
const (
	DefaultMaxTokens  = 5.0
	DefaultRefillRate = 10.0 / 60.0
)

// state is the persisted wire shape: {tokens, lastRefill} with the
// timestamp in unix milliseconds.
type state struct {
	Tokens     float64 `json:"tokens"`
	LastRefill int64   `json:"lastRefill"`
}

// Options configures a Limiter. Zero values take the package defaults.
type Options struct {
	MaxTokens  float64
	RefillRate float64 // tokens per second
	Key        string
	Now        func() time.Time // clock override for tests
}

// Limiter is a token bucket whose fill level survives process restarts.
// One shared instance gates every remote operation; exhaustion looks the
// same no matter which operation drained it.
type Limiter struct {
	mu         sync.Mutex
	store      kv.Store
	opts       Options
	tokens     float64
	lastRefill time.Time
	log        *logging.Logger
}

// New hydrates a limiter from the store. Missing or corrupt persisted
// state silently falls back to a full bucket; a loaded token count is
// clamped to the configured maximum.
func New(store kv.Store, opts Options) *Limiter {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.RefillRate <= 0 {
		opts.RefillRate = DefaultRefillRate
	}
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	l := &Limiter{
		store: store,
		opts:  opts,
		log:   logging.New("ratelimit"),
	}

	var st state
	if kv.LoadJSON(store, opts.Key, &st) == kv.Found {
		l.tokens = math.Min(st.Tokens, opts.MaxTokens)
		if l.tokens < 0 {
			l.tokens = 0
		}
		l.lastRefill = time.UnixMilli(st.LastRefill)
	} else {
		l.tokens = opts.MaxTokens
		l.lastRefill = opts.Now()
	}
	return l
}

// refillLocked applies lazy refill and persists. Callers hold l.mu.
func (l *Limiter) refillLocked() {
	now := l.opts.Now()
	elapsed := now.Sub(l.lastRefill).Seconds()
	if elapsed > 0 {
		l.tokens = math.Min(l.opts.MaxTokens, l.tokens+elapsed*l.opts.RefillRate)
	}
	l.lastRefill = now
	l.persistLocked()
}

// persistLocked writes state best-effort: a failed write must never block
// an admission decision, matching browser local-storage semantics.
func (l *Limiter) persistLocked() {
	st := state{Tokens: l.tokens, LastRefill: l.lastRefill.UnixMilli()}
	if err := kv.SaveJSON(l.store, l.opts.Key, st); err != nil {
		l.log.Warn("persist_failed", map[string]interface{}{"key": l.opts.Key}, err)
	}
}

// TryConsume takes one token if available. A denial mutates nothing.
func (l *Limiter) TryConsume() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillLocked()
	if l.tokens >= 1 {
		l.tokens--
		l.persistLocked()
		return true
	}
	return false
}

// WaitTime returns how long until the next token is available, 0 if one
// is available now.
func (l *Limiter) WaitTime() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillLocked()
	if l.tokens >= 1 {
		return 0
	}
	ms := math.Ceil((1 - l.tokens) / l.opts.RefillRate * 1000)
	return time.Duration(ms) * time.Millisecond
}

// FormatWaitTime renders the wait as a human string, empty when no wait
// is needed.
func (l *Limiter) FormatWaitTime() string {
	wait := l.WaitTime()
	if wait <= 0 {
		return ""
	}
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 60 {
		return fmt.Sprintf("%d %s", secs, plural(secs, "second"))
	}
	mins := (secs + 59) / 60
	return fmt.Sprintf("%d %s", mins, plural(mins, "minute"))
}

// Tokens refills and reports the current token count.
func (l *Limiter) Tokens() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillLocked()
	return l.tokens
}

// MaxTokens reports the bucket capacity.
func (l *Limiter) MaxTokens() float64 {
	return l.opts.MaxTokens
}

// Reset refills the bucket to capacity.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tokens = l.opts.MaxTokens
	l.lastRefill = l.opts.Now()
	l.persistLocked()
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}
