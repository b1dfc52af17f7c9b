package ai

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"devotional-ai-service/internal/infra/metrics"
)

// StatusError carries the HTTP status of a terminal upstream rejection.
type StatusError struct {
	Code        int
	RateLimited bool // true when retries on 429 were exhausted
}

func (e *StatusError) Error() string {
	if e.RateLimited {
		return fmt.Sprintf("upstream rate limited, retries exhausted (http %d)", e.Code)
	}
	return fmt.Sprintf("upstream http %d", e.Code)
}

// RetryPolicy bounds a single external call wrapped by DoWithRetry.
// Delays follow initialDelay, 2x, 4x, ... unless the upstream supplies a
// Retry-After hint, which takes precedence for that wait.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration

	// OnWait, when set, observes each backoff wait before it happens.
	// Used to surface in-flight retry state on the job record.
	OnWait func(attempt int, delay time.Duration)
}

// DoWithRetry runs fn until it yields a usable response or the policy is
// exhausted. Three upstream behaviors are kept apart:
//
//   - 429: the upstream asked us to slow down. Wait (hint or backoff),
//     double the delay, retry. Exhausting retries returns the last
//     response together with a rate-limited StatusError.
//   - transport failure: wait the current backoff, double, retry; the
//     last error is returned once attempts run out.
//   - any other non-2xx: terminal, surfaced immediately as a StatusError.
//
// A 2xx response is returned as-is with its body open; every retried
// response body is closed here. Waits abort on context cancellation.
func DoWithRetry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (*http.Response, error)) (*http.Response, error) {
	delay := policy.InitialDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}

	var resp *http.Response
	var err error
	for attempt := 0; ; attempt++ {
		resp, err = fn(ctx)

		if err != nil {
			if attempt >= policy.MaxRetries {
				return nil, fmt.Errorf("transport failed after %d attempts: %w", attempt+1, err)
			}
			metrics.IncAIRetry("transport")
			if werr := wait(ctx, policy, attempt+1, delay); werr != nil {
				return nil, werr
			}
			delay *= 2
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			if attempt >= policy.MaxRetries {
				return resp, &StatusError{Code: resp.StatusCode, RateLimited: true}
			}
			metrics.IncAIRetry("rate_limited")
			d := delay
			if hint := retryAfterHint(resp); hint > 0 {
				d = hint
			}
			drain(resp)
			if werr := wait(ctx, policy, attempt+1, d); werr != nil {
				return nil, werr
			}
			delay *= 2
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return resp, &StatusError{Code: resp.StatusCode}
		}
		return resp, nil
	}
}

func wait(ctx context.Context, policy RetryPolicy, attempt int, d time.Duration) error {
	if policy.OnWait != nil {
		policy.OnWait(attempt, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// retryAfterHint reads the upstream's Retry-After header, seconds form only.
func retryAfterHint(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func drain(resp *http.Response) {
	if resp.Body != nil {
		resp.Body.Close()
	}
}
