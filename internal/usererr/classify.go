package usererr

import (
	"context"
	"errors"
	"strings"

	"github.com/speedwarnsf/ZenSpace-sub000/internal/kv"
	"github.com/speedwarnsf/ZenSpace-sub000/internal/retry"
)

// FromError translates a low-level failure into a user message. This is
// the single choke point of spec'd propagation: call it once, at the edge,
// after retries are exhausted.
func FromError(err error) Message {
	if err == nil {
		return Get(Unknown)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Get(Timeout)
	case kv.IsQuotaExceeded(err):
		return Get(StorageFull)
	}

	if status, ok := statusOf(err); ok {
		switch {
		case status == 401 || status == 403:
			return Get(APIKeyInvalid)
		case status == 429:
			return Get(RateLimit)
		case status >= 500 && status <= 599:
			return Get(ServerError)
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "blocked"):
		return Get(BlockedResponse)
	case strings.Contains(msg, "empty response") || strings.Contains(msg, "no candidates"):
		return Get(EmptyResponse)
	case strings.Contains(msg, "quota") && !strings.Contains(msg, "rate"):
		return Get(QuotaExceeded)
	case retry.IsRateLimitError(err):
		return Get(RateLimit)
	case retry.IsNetworkError(err):
		return Get(NetworkError)
	case retry.IsServerError(err):
		return Get(ServerError)
	case strings.Contains(msg, "api key") || strings.Contains(msg, "unauthorized"):
		return Get(APIKeyInvalid)
	}

	return Get(Unknown)
}

func statusOf(err error) (int, bool) {
	var sc retry.StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode(), true
	}
	return 0, false
}
