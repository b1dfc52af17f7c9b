package repository

import (
	"context"
	"time"
)

// RequestClass separates cost tiers: job creation is expensive and rare,
// status polling is cheap and chatty. Each class has its own ceiling and
// window.
type RequestClass string

const (
	ClassCreate RequestClass = "create"
	ClassStatus RequestClass = "status"
)

// Decision is the outcome of a rate-limit check. RetryAfter is a hint for
// the client when Allowed is false.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RateLimiter gates inbound requests per (client key, class) using fixed
// windows. Keys are best-effort client identifiers, a load-shedding
// heuristic rather than a security boundary.
type RateLimiter interface {
	Allow(ctx context.Context, key string, class RequestClass) (Decision, error)
}
