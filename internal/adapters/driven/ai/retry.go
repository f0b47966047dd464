package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// retryPolicy controls the backoff loop used by the Gemini adapters.
// Delay doubles from BaseDelay up to MaxDelay between attempts.
type retryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// defaultRetryPolicy retries transient failures a few times before
// giving up. Four attempts with a 500ms base keeps the worst case
// under ten seconds.
var defaultRetryPolicy = retryPolicy{
	MaxAttempts: 4,
	BaseDelay:   500 * time.Millisecond,
	MaxDelay:    8 * time.Second,
}

// retryableError marks an error worth another attempt
type retryableError struct {
	err error
}

func (r *retryableError) Error() string { return r.err.Error() }
func (r *retryableError) Unwrap() error { return r.err }

// retryable wraps err so the retry loop tries again
func retryable(err error) error {
	return &retryableError{err: err}
}

// retryableStatus reports whether an HTTP status code indicates a
// transient condition: rate limiting or a server-side failure.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// do runs fn until it succeeds, returns a non-retryable error, or the
// attempt budget runs out. Network errors are always retried.
func (p retryPolicy) do(ctx context.Context, fn func(ctx context.Context) error) error {
	delay := p.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		var re *retryableError
		var netErr net.Error
		if !errors.As(err, &re) && !errors.As(err, &netErr) {
			return err
		}
		lastErr = err

		if attempt == p.MaxAttempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return fmt.Errorf("after %d attempts: %w", p.MaxAttempts, lastErr)
}
