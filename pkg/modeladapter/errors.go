package modeladapter

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// RateLimitError reports an HTTP 429. RetryAfter is zero when the server
// gave no usable Retry-After header.
type RateLimitError struct {
	RetryAfter time.Duration
	Body       string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry in %s: %s", e.RetryAfter, e.Body)
	}
	return "rate limited: " + e.Body
}

// StatusError reports any other non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

// ParseRetryAfter reads a Retry-After value given in seconds or as an HTTP
// date. Dates in the past and garbage yield zero.
func ParseRetryAfter(val string) time.Duration {
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(val); err == nil {
		return max(time.Until(t), 0)
	}
	return 0
}
