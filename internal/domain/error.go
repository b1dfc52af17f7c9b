package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrTopicRejected   = errors.New("topic not suitable for devotional treatment")
	ErrNoVerses        = errors.New("no usable verses")
	ErrUpstream        = errors.New("generation service failed")
	ErrQueueSaturated  = errors.New("worker queue full")
)
