// File: internal/infra/memory/rate_limiter.go
package memory

import (
	"context"
	"sync"
	"time"

	"devotional-ai-service/internal/config"
	"devotional-ai-service/internal/domain/ports/repository"
)

var _ repository.RateLimiter = (*RateLimiter)(nil)

// sweepEvery bounds how often Allow piggybacks a full scan over the
// counter map. Stale counters are otherwise reset lazily on next access.
const sweepEvery = 512

type window struct {
	count int
	start time.Time
}

// RateLimiter counts requests per (key, class) in fixed, non-overlapping
// windows. A counter resets when its window elapses; expired counters for
// clients that went away are reclaimed opportunistically, piggybacked on
// every sweepEvery-th Allow call rather than on a dedicated timer.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limits  config.LimitsConfig
	calls   int
	now     func() time.Time
}

func NewRateLimiter(limits config.LimitsConfig) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		limits:  limits,
		now:     time.Now,
	}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, class repository.RequestClass) (repository.Decision, error) {
	limit := r.limitFor(class)
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++
	if r.calls%sweepEvery == 0 {
		r.sweepLocked(now)
	}

	k := string(class) + ":" + key
	w, ok := r.windows[k]
	if !ok || now.Sub(w.start) > limit.Window {
		// Absence counts as zero usage; an elapsed window starts fresh.
		r.windows[k] = &window{count: 1, start: now}
		return repository.Decision{Allowed: true}, nil
	}

	w.count++
	if w.count > limit.Ceiling {
		retryAfter := limit.Window - now.Sub(w.start)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return repository.Decision{Allowed: false, RetryAfter: retryAfter}, nil
	}
	return repository.Decision{Allowed: true}, nil
}

func (r *RateLimiter) limitFor(class repository.RequestClass) config.ClassLimit {
	if class == repository.ClassStatus {
		return r.limits.Status
	}
	return r.limits.Create
}

func (r *RateLimiter) sweepLocked(now time.Time) {
	for k, w := range r.windows {
		// Both windows share the reclaim horizon; the longer one wins.
		horizon := r.limits.Create.Window
		if r.limits.Status.Window > horizon {
			horizon = r.limits.Status.Window
		}
		if now.Sub(w.start) > 2*horizon {
			delete(r.windows, k)
		}
	}
}
