package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/url"
	"time"

	"github.com/dgallion1/sefreader/internal/pathstore"
)

const MaxRetries = 3

const maxBackoff = 30 * time.Second

// backoffBase is the first retry delay; tests shorten it.
var backoffBase = time.Second

// IsRetryable checks if an error is worth retrying: a temporary pathstore
// status or a transport failure. Cancellation never is.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *pathstore.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * backoffBase
	if base > maxBackoff {
		base = maxBackoff
	}
	var jitter time.Duration
	if half := int64(base) / 2; half > 0 {
		jitter = time.Duration(rand.Int64N(half))
	}
	return base + jitter
}

// Retry calls fn up to MaxRetries times while it fails with a retryable
// error. onRetry, if set, sees each failure that will be retried.
func Retry(ctx context.Context, fn func() error, onRetry func(attempt int, err error)) error {
	var err error
	for attempt := range MaxRetries {
		err = fn()
		if err == nil || !IsRetryable(err) || attempt == MaxRetries-1 {
			return err
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
