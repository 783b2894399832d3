package pathstore

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

const MaxRetries = 3

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// StatusError is a non-retryable unexpected HTTP status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// Retry runs fn up to MaxRetries times while it fails with a retryable error.
func (c *Client) Retry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := range MaxRetries {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if attempt == MaxRetries-1 {
			break
		}
		select {
		case <-time.After(c.backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
