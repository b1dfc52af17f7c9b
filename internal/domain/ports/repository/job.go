package repository

import (
	"context"
	"time"

	"devotional-ai-service/internal/domain/model"
)

// JobStore is the ephemeral mapping from job id to job record. The default
// implementation is an in-process map; a Redis-backed one exists for
// deployments with more than one instance. The store owns deletion.
type JobStore interface {
	// Create inserts a fresh pending record and returns it.
	Create(ctx context.Context, topic string, verses []model.Verse) (*model.ReflectionJob, error)

	// Get returns the record or domain.ErrNotFound. A deleted id is
	// indistinguishable from one that never existed.
	Get(ctx context.Context, id string) (*model.ReflectionJob, error)

	// Complete and Fail perform the terminal transition as a single atomic
	// record replace. If the record was evicted before the background
	// workflow finished, they recreate a minimal orphaned terminal record
	// rather than failing, so a late completion never crashes the worker.
	Complete(ctx context.Context, id, result string) error
	Fail(ctx context.Context, id, message string) error

	// SetRetryState records in-flight backoff observability on a pending job.
	SetRetryState(ctx context.Context, id string, retries int, retryAfter time.Duration)

	// SweepExpired deletes every record older than maxAge regardless of
	// status and reports how many were removed. It is invoked
	// opportunistically at request handling, not on a timer.
	SweepExpired(ctx context.Context, maxAge time.Duration) int

	// ScheduleDeletion removes the record after delay, giving a client that
	// just observed a terminal status a short grace window.
	ScheduleDeletion(ctx context.Context, id string, delay time.Duration)
}
