package adapter

import (
	"context"
	"time"
)

// RetryObserver is notified before each backoff wait an adapter performs,
// so the caller can surface in-flight retry state (attempt count, current
// delay) without the adapter knowing about job records.
type RetryObserver func(attempt int, delay time.Duration)

type retryObserverKey struct{}

func WithRetryObserver(ctx context.Context, fn RetryObserver) context.Context {
	return context.WithValue(ctx, retryObserverKey{}, fn)
}

func RetryObserverFrom(ctx context.Context) RetryObserver {
	if fn, ok := ctx.Value(retryObserverKey{}).(RetryObserver); ok {
		return fn
	}
	return nil
}
