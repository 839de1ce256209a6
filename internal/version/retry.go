package version

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"
)

// errRetryable marks a failed lookup worth repeating.
var errRetryable = errors.New("retryable")

// RetryConfig configures how often a release lookup is repeated.
type RetryConfig struct {
	MaxAttempts int           // including the first request
	BaseDelay   time.Duration // doubled after every attempt
	MaxDelay    time.Duration
}

// DefaultRetryConfig returns 3 attempts with 1s and 2s pauses.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    4 * time.Second,
	}
}

// retryStatus reports whether an HTTP status is transient.
func retryStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(header string) time.Duration {
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// backoff returns the pause before attempt+1, with jitter in [d/2, d).
func (c RetryConfig) backoff(attempt int) time.Duration {
	d := c.BaseDelay << attempt
	if d > c.MaxDelay || d <= 0 {
		d = c.MaxDelay
	}
	half := d / 2
	if half <= 0 {
		return d
	}
	return half + rand.N(half) //nolint:gosec // jitter does not need a secure source
}

// attempt is one try of an operation; wait overrides the backoff when > 0.
type attempt[T any] func() (result T, wait time.Duration, err error)

// withRetry runs op until it succeeds, fails with a permanent error or runs
// out of attempts.
func withRetry[T any](ctx context.Context, cfg RetryConfig, op attempt[T]) (T, error) {
	var (
		result T
		wait   time.Duration
		err    error
	)

	tries := max(cfg.MaxAttempts, 1)
	for i := range tries {
		result, wait, err = op()
		if err == nil || !errors.Is(err, errRetryable) || i == tries-1 {
			break
		}

		if wait <= 0 {
			wait = cfg.backoff(i)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}
	}
	return result, err
}
