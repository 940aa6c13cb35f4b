// Package retry wraps unreliable remote calls with exponential backoff,
// jitter, and a circuit breaker. The breaker is a separate layer composed
// with Do: check CanAttempt before calling, record the outcome after.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Config is an immutable per-call retry policy.
type Config struct {
	// MaxRetries is the number of re-attempts after the first try.
	MaxRetries int
	// InitialDelay seeds the backoff curve.
	InitialDelay time.Duration
	// MaxDelay caps the backoff curve.
	MaxDelay time.Duration
	// Multiplier is the geometric growth factor per attempt.
	Multiplier float64
	// Jitter randomizes each delay within [0.75, 1.25] of its value.
	Jitter bool
	// Retryable decides whether a failure is worth another attempt.
	// Nil means retry everything (the conservative default).
	Retryable func(error) bool
	// OnRetry, if set, is called before each re-attempt with the attempt
	// number about to run (1-based), the error, and the chosen delay.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Result reports the outcome of a retried operation.
type Result[T any] struct {
	OK        bool
	Value     T
	Err       error
	Attempts  int
	TotalTime time.Duration
}

// Delay computes the backoff delay for a zero-based attempt index:
// min(initial * multiplier^attempt, max), jittered when enabled.
func Delay(attempt int, cfg Config) time.Duration {
	d := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt))
	if max := float64(cfg.MaxDelay); cfg.MaxDelay > 0 && d > max {
		d = max
	}
	if cfg.Jitter {
		d *= 0.75 + rand.Float64()*0.5
	}
	return time.Duration(d).Round(time.Millisecond)
}

// Do runs op up to MaxRetries+1 times. The inter-attempt sleep does not
// block other goroutines and aborts early when ctx is cancelled, in which
// case Err carries the context error.
func Do[T any](ctx context.Context, op func() (T, error), cfg Config) Result[T] {
	start := time.Now()

	var lastErr error
	for attempt := 0; ; attempt++ {
		value, err := op()
		if err == nil {
			return Result[T]{
				OK:        true,
				Value:     value,
				Attempts:  attempt + 1,
				TotalTime: time.Since(start),
			}
		}
		lastErr = err

		if attempt >= cfg.MaxRetries || !retryable(cfg, err) {
			return Result[T]{
				Err:       lastErr,
				Attempts:  attempt + 1,
				TotalTime: time.Since(start),
			}
		}

		delay := Delay(attempt, cfg)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err, delay)
		}
		if err := sleep(ctx, delay); err != nil {
			return Result[T]{
				Err:       err,
				Attempts:  attempt + 1,
				TotalTime: time.Since(start),
			}
		}
	}
}

func retryable(cfg Config, err error) bool {
	if cfg.Retryable == nil {
		return true
	}
	return cfg.Retryable(err)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
