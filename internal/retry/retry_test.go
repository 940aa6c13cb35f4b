package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelayMonotonicWithoutJitter(t *testing.T) {
	cfg := Config{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, 1600 * time.Millisecond},
		{5, 2 * time.Second}, // capped
		{9, 2 * time.Second},
	}

	for _, tt := range tests {
		got := Delay(tt.attempt, cfg)
		if got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestDelayJitterBand(t *testing.T) {
	cfg := Config{
		InitialDelay: time.Second,
		MaxDelay:     time.Minute,
		Multiplier:   2,
		Jitter:       true,
	}

	for i := 0; i < 200; i++ {
		d := Delay(0, cfg)
		if d < 750*time.Millisecond || d > 1250*time.Millisecond {
			t.Fatalf("jittered delay %v outside [750ms, 1250ms]", d)
		}
	}
}

func fastConfig() Config {
	return Config{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	res := Do(context.Background(), func() (int, error) {
		return 42, nil
	}, fastConfig())

	assert.True(t, res.OK)
	assert.Equal(t, 42, res.Value)
	assert.Equal(t, 1, res.Attempts)
	assert.NoError(t, res.Err)
}

func TestDoRecoversAfterTransientFailure(t *testing.T) {
	calls := 0
	res := Do(context.Background(), func() (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("network error: connection refused")
		}
		return "plan", nil
	}, fastConfig())

	assert.True(t, res.OK)
	assert.Equal(t, "plan", res.Value)
	assert.Equal(t, 2, res.Attempts)
}

func TestDoExhaustsRetries(t *testing.T) {
	calls := 0
	failure := errors.New("network timeout")

	res := Do(context.Background(), func() (int, error) {
		calls++
		return 0, failure
	}, fastConfig())

	assert.False(t, res.OK)
	assert.Equal(t, failure, res.Err)
	assert.Equal(t, 4, res.Attempts) // maxRetries + 1
	assert.Equal(t, 4, calls)
}

func TestDoNonRetryableShortCircuits(t *testing.T) {
	calls := 0
	cfg := fastConfig()
	cfg.Retryable = func(error) bool { return false }

	res := Do(context.Background(), func() (int, error) {
		calls++
		return 0, errors.New("invalid api key")
	}, cfg)

	assert.False(t, res.OK)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 1, calls)
}

func TestDoOnRetryCallback(t *testing.T) {
	var attempts []int
	var delays []time.Duration

	cfg := fastConfig()
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		attempts = append(attempts, attempt)
		delays = append(delays, delay)
	}

	Do(context.Background(), func() (int, error) {
		return 0, errors.New("boom")
	}, cfg)

	assert.Equal(t, []int{1, 2, 3}, attempts)
	require.Len(t, delays, 3)
	assert.Equal(t, time.Millisecond, delays[0])
	assert.Equal(t, 2*time.Millisecond, delays[1])
}

func TestDoTotalTimeMeasured(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxRetries = 2
	cfg.InitialDelay = 10 * time.Millisecond
	cfg.MaxDelay = 10 * time.Millisecond

	res := Do(context.Background(), func() (int, error) {
		return 0, errors.New("boom")
	}, cfg)

	// Two sleeps of ~10ms each.
	assert.GreaterOrEqual(t, res.TotalTime, 20*time.Millisecond)
}

func TestDoContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := fastConfig()
	cfg.InitialDelay = time.Minute // would hang without cancellation
	cfg.MaxDelay = time.Minute

	done := make(chan Result[int], 1)
	go func() {
		done <- Do(ctx, func() (int, error) {
			return 0, errors.New("boom")
		}, cfg)
	}()

	cancel()

	select {
	case res := <-done:
		assert.False(t, res.OK)
		assert.ErrorIs(t, res.Err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not honor context cancellation")
	}
}
