package redis

import (
	"context"
	"fmt"

	"devotional-ai-service/internal/config"
	"devotional-ai-service/internal/domain/ports/repository"
)

var _ repository.RateLimiter = (*RateLimiter)(nil)

// RateLimiter is the fixed-window limiter backed by Redis, for deployments
// where more than one instance must share counters. INCR creates the
// counter, EXPIRE on first increment bounds the window; the key TTL doubles
// as the retry hint.
type RateLimiter struct {
	client RedisClient
	limits config.LimitsConfig
}

func NewRateLimiter(client RedisClient, limits config.LimitsConfig) *RateLimiter {
	return &RateLimiter{client: client, limits: limits}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, class repository.RequestClass) (repository.Decision, error) {
	limit := r.limits.Create
	if class == repository.ClassStatus {
		limit = r.limits.Status
	}

	k := counterKey(key, class)
	count, err := r.client.Incr(ctx, k)
	if err != nil {
		return repository.Decision{}, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, k, limit.Window); err != nil {
			return repository.Decision{}, err
		}
	}

	if count > int64(limit.Ceiling) {
		retryAfter := limit.Window
		if ttl, err := r.client.TTL(ctx, k); err == nil && ttl > 0 {
			retryAfter = ttl
		}
		return repository.Decision{Allowed: false, RetryAfter: retryAfter}, nil
	}
	return repository.Decision{Allowed: true}, nil
}

func counterKey(key string, class repository.RequestClass) string {
	return fmt.Sprintf("rate_limit:%s:%s", class, key)
}
