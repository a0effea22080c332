package provider

import (
	"math/rand"
	"time"
)

// RetryPolicy bounds retries of transient completion failures. It is an
// explicit value passed into the client, not hidden control flow; a zero
// MaxAttempts disables retrying entirely.
type RetryPolicy struct {
	MaxAttempts int           // retries after the initial call
	BaseDelay   time.Duration // scaled quadratically per attempt
	MaxDelay    time.Duration // cap before jitter
}

// DefaultRetryPolicy retries twice with quadratic backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 2,
		BaseDelay:   time.Second,
		MaxDelay:    15 * time.Second,
	}
}

// Backoff returns the pause before retry attempt n (1-based). Quadratic
// with jitter to prevent thundering herd.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	base := time.Duration(attempt*attempt) * p.BaseDelay
	if p.MaxDelay > 0 && base > p.MaxDelay {
		base = p.MaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(base/2 + 1)))
	return base + jitter
}
