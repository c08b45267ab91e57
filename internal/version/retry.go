package version

import (
	"context"
	"time"
)

// retryWithBackoff repeatedly invokes fn until it succeeds or ctx is
// cancelled, waiting delay between attempts. Generalized out of the
// updater loop so the "retry every UPDATE_INTERVAL_ERROR on any error"
// policy in §4.F reads as a named policy rather than inline retry-loop
// bookkeeping duplicated at each call site.
func retryWithBackoff[T any](ctx context.Context, delay time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	for {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}
}
