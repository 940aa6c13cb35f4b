package retry

import (
	"errors"
	"net"
	"strings"
	"time"
)

// StatusCoder is implemented by errors that carry an HTTP-like status.
type StatusCoder interface {
	StatusCode() int
}

func statusOf(err error) (int, bool) {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode(), true
	}
	return 0, false
}

func containsAny(msg string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// IsNetworkError heuristically detects transport-level failures.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return containsAny(msg,
		"network", "connection", "fetch", "timeout", "timed out",
		"no such host", "broken pipe", "reset by peer", "dns",
	)
}

// IsRateLimitError detects quota/throttling responses (HTTP 429).
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if status, ok := statusOf(err); ok && status == 429 {
		return true
	}
	msg := strings.ToLower(err.Error())
	return containsAny(msg,
		"rate limit", "too many requests", "resource exhausted", "429",
	)
}

// IsServerError detects 5xx-class failures.
func IsServerError(err error) bool {
	if err == nil {
		return false
	}
	if status, ok := statusOf(err); ok && status >= 500 && status <= 599 {
		return true
	}
	msg := strings.ToLower(err.Error())
	return containsAny(msg,
		"internal server", "server error", "service unavailable",
		"bad gateway", "overloaded", "500", "502", "503",
	)
}

// APIRetryable returns the standard remote-call retryability predicate:
// network, rate-limit, or server errors are worth another attempt;
// everything else (auth, validation, blocked responses) is terminal.
func APIRetryable() func(error) bool {
	return func(err error) bool {
		return IsNetworkError(err) || IsRateLimitError(err) || IsServerError(err)
	}
}

// APIConfig returns the default remote-call retry policy. Callers adjust
// fields on the returned value to override.
func APIConfig() Config {
	return Config{
		MaxRetries:   3,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
		Jitter:       true,
		Retryable:    APIRetryable(),
	}
}
