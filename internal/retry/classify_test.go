package retry

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type statusErr struct {
	status int
}

func (e *statusErr) Error() string {
	return fmt.Sprintf("api error (status %d)", e.status)
}

func (e *statusErr) StatusCode() int {
	return e.status
}

func TestIsNetworkError(t *testing.T) {
	assert.True(t, IsNetworkError(errors.New("network error: fetch failed")))
	assert.True(t, IsNetworkError(errors.New("dial tcp: connection refused")))
	assert.True(t, IsNetworkError(errors.New("request timed out")))
	assert.False(t, IsNetworkError(errors.New("invalid api key")))
	assert.False(t, IsNetworkError(nil))
}

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, IsRateLimitError(&statusErr{status: 429}))
	assert.True(t, IsRateLimitError(errors.New("rate limit exceeded")))
	assert.True(t, IsRateLimitError(errors.New("RESOURCE EXHAUSTED: quota")))
	assert.False(t, IsRateLimitError(&statusErr{status: 400}))
	assert.False(t, IsRateLimitError(nil))
}

func TestIsServerError(t *testing.T) {
	assert.True(t, IsServerError(&statusErr{status: 500}))
	assert.True(t, IsServerError(&statusErr{status: 503}))
	assert.True(t, IsServerError(&statusErr{status: 599}))
	assert.True(t, IsServerError(errors.New("model is overloaded")))
	assert.False(t, IsServerError(&statusErr{status: 404}))
	assert.False(t, IsServerError(&statusErr{status: 600}))
}

func TestIsServerErrorWrapped(t *testing.T) {
	err := fmt.Errorf("analyze room: %w", &statusErr{status: 502})
	assert.True(t, IsServerError(err))
}

func TestAPIRetryable(t *testing.T) {
	pred := APIRetryable()

	assert.True(t, pred(errors.New("network flake")))
	assert.True(t, pred(&statusErr{status: 429}))
	assert.True(t, pred(&statusErr{status: 500}))
	assert.False(t, pred(&statusErr{status: 401}))
	assert.False(t, pred(errors.New("response blocked by safety settings")))
}

func TestAPIConfigDefaults(t *testing.T) {
	cfg := APIConfig()

	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.InitialDelay)
	assert.Equal(t, 10*time.Second, cfg.MaxDelay)
	assert.True(t, cfg.Jitter)
	assert.NotNil(t, cfg.Retryable)
}
