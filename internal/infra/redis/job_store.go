package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"devotional-ai-service/internal/domain"
	"devotional-ai-service/internal/domain/model"
	"devotional-ai-service/internal/domain/ports/repository"
	"devotional-ai-service/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ repository.JobStore = (*JobStore)(nil)

// JobStore keeps job records as JSON values in Redis, the shared-store
// variant of the in-process map for multi-instance deployments. Native key
// TTLs replace both the age-based sweep and the post-poll deletion timer.
type JobStore struct {
	client RedisClient
	maxAge time.Duration
	log    *zerolog.Logger
}

func NewJobStore(client RedisClient, maxAge time.Duration, log *zerolog.Logger) *JobStore {
	return &JobStore{client: client, maxAge: maxAge, log: log}
}

func jobKey(id string) string { return fmt.Sprintf("reflection_job:%s", id) }

func (s *JobStore) Create(ctx context.Context, topic string, verses []model.Verse) (*model.ReflectionJob, error) {
	job := model.NewReflectionJob(topic, verses)
	if err := s.put(ctx, job, s.maxAge); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *JobStore) Get(ctx context.Context, id string) (*model.ReflectionJob, error) {
	raw, err := s.client.Get(ctx, jobKey(id))
	if err != nil {
		if IsNil(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var job model.ReflectionJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *JobStore) Complete(ctx context.Context, id, result string) error {
	return s.transition(ctx, id, model.JobStatusCompleted, result, "")
}

func (s *JobStore) Fail(ctx context.Context, id, message string) error {
	return s.transition(ctx, id, model.JobStatusError, "", message)
}

func (s *JobStore) transition(ctx context.Context, id string, status model.JobStatus, result, message string) error {
	job, err := s.Get(ctx, id)
	if err == domain.ErrNotFound {
		// Evicted before the workflow finished; write an orphaned terminal
		// record so the late completion stays observable.
		job = &model.ReflectionJob{ID: id, StartedAt: time.Now()}
		s.log.Warn().Str("job_id", id).Msg("terminal transition for evicted job, recreated orphaned record")
	} else if err != nil {
		return err
	}
	if job.Terminal() {
		return nil
	}

	job.Status = status
	job.Result = result
	job.Error = message
	job.CompletedAt = time.Now()

	metrics.IncJobFinished(string(status))
	return s.put(ctx, job, s.maxAge)
}

func (s *JobStore) SetRetryState(ctx context.Context, id string, retries int, retryAfter time.Duration) {
	job, err := s.Get(ctx, id)
	if err != nil || job.Terminal() {
		return
	}
	job.RetryCount = retries
	job.RetryAfter = int(retryAfter.Seconds())
	_ = s.put(ctx, job, s.maxAge)
}

// SweepExpired is a no-op: Redis evicts by key TTL on its own.
func (s *JobStore) SweepExpired(ctx context.Context, maxAge time.Duration) int { return 0 }

func (s *JobStore) ScheduleDeletion(ctx context.Context, id string, delay time.Duration) {
	if err := s.client.Expire(ctx, jobKey(id), delay); err != nil {
		s.log.Error().Err(err).Str("job_id", id).Msg("schedule deletion failed")
	}
}

func (s *JobStore) put(ctx context.Context, job *model.ReflectionJob, ttl time.Duration) error {
	b, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, jobKey(job.ID), string(b), ttl)
}
