package common

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
)

// The single retry policy for transient backend failures: two extra attempts
// with a short constant backoff. Every caller that talks to the identity,
// record or blob backend goes through this instead of improvising per call.
const (
	transientMaxRetries = 2
	transientBackoff    = 100 * time.Millisecond
)

// RetryTransient runs fn, retrying only errors matching ErrorTransient.
// Any other error, including context cancellation, is returned immediately.
func RetryTransient(ctx context.Context, fn func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(transientMaxRetries, retry.NewConstant(transientBackoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := fn(ctx)
		if errors.Is(err, ErrorTransient) {
			return retry.RetryableError(err)
		}
		return err
	})
}
