// File: internal/infra/memory/job_store.go
package memory

import (
	"context"
	"sync"
	"time"

	"devotional-ai-service/internal/domain"
	"devotional-ai-service/internal/domain/model"
	"devotional-ai-service/internal/domain/ports/repository"
	"devotional-ai-service/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ repository.JobStore = (*JobStore)(nil)

// JobStore keeps job records in a process-wide map. Records live until the
// age-based sweep reclaims them or a scheduled deletion fires after a
// client has observed a terminal state. Terminal transitions replace the
// whole record under the lock, so a concurrent reader sees either the old
// record or the new one, never a half-written mix.
type JobStore struct {
	mu     sync.RWMutex
	jobs   map[string]*model.ReflectionJob
	timers map[string]*time.Timer
	log    *zerolog.Logger
	now    func() time.Time
}

func NewJobStore(log *zerolog.Logger) *JobStore {
	return &JobStore{
		jobs:   make(map[string]*model.ReflectionJob),
		timers: make(map[string]*time.Timer),
		log:    log,
		now:    time.Now,
	}
}

func (s *JobStore) Create(ctx context.Context, topic string, verses []model.Verse) (*model.ReflectionJob, error) {
	job := model.NewReflectionJob(topic, verses)
	s.mu.Lock()
	s.jobs[job.ID] = job
	pending := s.countPendingLocked()
	s.mu.Unlock()

	metrics.SetJobsPending(pending)
	return snapshot(job), nil
}

func (s *JobStore) Get(ctx context.Context, id string) (*model.ReflectionJob, error) {
	s.mu.RLock()
	job, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return snapshot(job), nil
}

func (s *JobStore) Complete(ctx context.Context, id, result string) error {
	return s.transition(id, model.JobStatusCompleted, result, "")
}

func (s *JobStore) Fail(ctx context.Context, id, message string) error {
	return s.transition(id, model.JobStatusError, "", message)
}

// transition performs the single allowed mutation out of pending. When the
// record was already evicted, a minimal orphaned terminal record is written
// instead, so a late-arriving completion after the sweep stays coherent.
func (s *JobStore) transition(id string, status model.JobStatus, result, message string) error {
	s.mu.Lock()
	old, ok := s.jobs[id]
	if ok && old.Terminal() {
		s.mu.Unlock()
		return nil
	}

	next := &model.ReflectionJob{
		ID:          id,
		Status:      status,
		Result:      result,
		Error:       message,
		StartedAt:   s.now(),
		CompletedAt: s.now(),
	}
	if ok {
		next.Topic = old.Topic
		next.Verses = old.Verses
		next.RetryCount = old.RetryCount
		next.StartedAt = old.StartedAt
	}
	s.jobs[id] = next
	pending := s.countPendingLocked()
	s.mu.Unlock()

	if !ok {
		s.log.Warn().Str("job_id", id).Msg("terminal transition for evicted job, recreated orphaned record")
	}
	metrics.IncJobFinished(string(status))
	metrics.SetJobsPending(pending)
	return nil
}

func (s *JobStore) SetRetryState(ctx context.Context, id string, retries int, retryAfter time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.Terminal() {
		return
	}
	next := *job
	next.RetryCount = retries
	next.RetryAfter = int(retryAfter.Seconds())
	s.jobs[id] = &next
}

func (s *JobStore) SweepExpired(ctx context.Context, maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge)

	s.mu.Lock()
	removed := 0
	for id, job := range s.jobs {
		if job.StartedAt.Before(cutoff) {
			s.deleteLocked(id)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		metrics.AddJobsSwept(removed)
		s.log.Debug().Int("removed", removed).Msg("swept expired jobs")
	}
	return removed
}

func (s *JobStore) ScheduleDeletion(ctx context.Context, id string, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return
	}
	if _, scheduled := s.timers[id]; scheduled {
		return
	}
	s.timers[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		s.deleteLocked(id)
		s.mu.Unlock()
	})
}

// deleteLocked removes a record and stops any pending deletion timer.
// Callers hold s.mu.
func (s *JobStore) deleteLocked(id string) {
	delete(s.jobs, id)
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *JobStore) countPendingLocked() int {
	n := 0
	for _, job := range s.jobs {
		if !job.Terminal() {
			n++
		}
	}
	return n
}

// snapshot copies the record so callers never share memory with the map.
func snapshot(job *model.ReflectionJob) *model.ReflectionJob {
	cp := *job
	if job.Verses != nil {
		cp.Verses = append([]model.Verse(nil), job.Verses...)
	}
	return &cp
}
