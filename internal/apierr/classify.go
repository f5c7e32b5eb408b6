package apierr

import "time"

const (
	baseDelay = time.Second
	maxDelay  = 30 * time.Second
)

// UserMessage maps a normalized error to fixed user-facing wording so every
// surface reports the same failure the same way.
func UserMessage(err error) string {
	e := From(err)
	if e == nil {
		return ""
	}

	if e.Code == CodeQueued {
		return e.Message
	}
	if e.Status == 0 || e.Code == CodeNetwork {
		return "No internet connection. Please check your network and try again."
	}

	switch e.Status {
	case 401:
		return "Your session has expired. Please sign in again."
	case 403:
		return "You don't have permission to do that."
	case 404:
		return "We couldn't find what you were looking for."
	case 409:
		return "That conflicts with something that already exists."
	case 422:
		return "Some of the information you entered is invalid."
	case 429:
		return "Too many requests. Please wait a moment and try again."
	case 500:
		return "Something went wrong on our end. Please try again."
	case 502, 503:
		return "The service is temporarily unavailable. Please try again shortly."
	}

	if e.Message != "" {
		return e.Message
	}
	return "Something went wrong. Please try again."
}

// IsRetryable reports whether retrying the request could succeed.
// Network failures, rate limiting, and server errors are retryable;
// other client errors are not.
func IsRetryable(err error) bool {
	e := From(err)
	if e == nil {
		return false
	}
	if e.Code == CodeQueued {
		return false
	}
	if e.Status == 0 || e.Code == CodeNetwork {
		return true
	}
	return e.Status == 429 || e.Status >= 500
}

// RetryDelay returns the wait before retry attempt n (1-based):
// exponential backoff capped at 30s. A server-supplied retryAfter value
// (seconds, from a 429 response) takes precedence.
func RetryDelay(err error, attempt int) time.Duration {
	e := From(err)
	if e != nil && e.Status == 429 {
		if after, ok := retryAfterSeconds(e.Details); ok {
			return time.Duration(after) * time.Second
		}
	}

	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		return maxDelay
	}
	delay := baseDelay * time.Duration(1<<(attempt-1))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

func retryAfterSeconds(details map[string]any) (int, bool) {
	if details == nil {
		return 0, false
	}
	switch v := details["retryAfter"].(type) {
	case int:
		return v, v > 0
	case int64:
		return int(v), v > 0
	case float64:
		return int(v), v > 0
	}
	return 0, false
}
