package usecase

import (
	"context"
	"time"

	"devotional-ai-service/internal/domain"
	"devotional-ai-service/internal/domain/model"
	"devotional-ai-service/internal/domain/ports/adapter"
	"devotional-ai-service/internal/domain/ports/repository"
	"devotional-ai-service/internal/infra/logging"
	"devotional-ai-service/internal/infra/worker"

	"github.com/rs/zerolog"
)

// Stored error messages are deliberately generic; root causes go to the
// log only.
const (
	errMsgTopicRejected = "topic_rejected"
	errMsgGeneration    = "generation_failed"
)

// JobStatusView is the public read contract for a job: internal fields
// (retry counters, raw timestamps) stay out of it.
type JobStatusView struct {
	Status model.JobStatus `json:"status"`
	Result *string         `json:"result"`
	Error  *string         `json:"error"`
}

// ReflectionUseCase is the job orchestrator. Create inserts a pending
// record and dispatches the generation workflow to the worker pool;
// completion is observed exclusively by polling Status.
type ReflectionUseCase struct {
	store        repository.JobStore
	ai           adapter.AIServiceAdapter
	pool         *worker.Pool
	maxAge       time.Duration
	cleanupDelay time.Duration
	log          *zerolog.Logger
}

func NewReflectionUseCase(
	store repository.JobStore,
	ai adapter.AIServiceAdapter,
	pool *worker.Pool,
	maxAge time.Duration,
	cleanupDelay time.Duration,
	log *zerolog.Logger,
) *ReflectionUseCase {
	return &ReflectionUseCase{
		store:        store,
		ai:           ai,
		pool:         pool,
		maxAge:       maxAge,
		cleanupDelay: cleanupDelay,
		log:          log,
	}
}

// SearchVerses is the synchronous path: sanitize, ask the model, return.
func (uc *ReflectionUseCase) SearchVerses(ctx context.Context, query string) ([]model.Verse, error) {
	uc.store.SweepExpired(ctx, uc.maxAge)

	query = model.SanitizeText(query, model.MaxQueryLen)
	if query == "" {
		return nil, domain.ErrInvalidArgument
	}
	return uc.ai.SearchVerses(ctx, query)
}

// Create validates input, stores a pending job, and returns its id
// without waiting for the generation workflow. The workflow runs in the
// worker pool; pool saturation fails the job immediately so nothing is
// ever left pending forever.
func (uc *ReflectionUseCase) Create(ctx context.Context, topic string, verses []model.Verse) (*model.ReflectionJob, error) {
	uc.store.SweepExpired(ctx, uc.maxAge)

	topic = model.SanitizeText(topic, model.MaxTopicLen)
	if topic == "" {
		return nil, domain.ErrInvalidArgument
	}
	verses = model.ValidateVerses(verses, model.MaxVerses)

	job, err := uc.store.Create(ctx, topic, verses)
	if err != nil {
		return nil, err
	}

	id := job.ID
	if err := uc.pool.Submit(func(ctx context.Context) error {
		uc.runWorkflow(ctx, id, topic, verses)
		return nil
	}); err != nil {
		uc.log.Error().Err(err).Str("job_id", id).Msg("dispatch failed")
		_ = uc.store.Fail(ctx, id, errMsgGeneration)
		job.Status = model.JobStatusError
		job.Error = errMsgGeneration
	}
	return job, nil
}

// Status reads a job for a client. Observing a terminal state schedules
// the record's deletion after a short grace window, so at most one more
// poll can still see it.
func (uc *ReflectionUseCase) Status(ctx context.Context, id string) (*JobStatusView, error) {
	uc.store.SweepExpired(ctx, uc.maxAge)

	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	job, err := uc.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &JobStatusView{Status: job.Status}
	switch job.Status {
	case model.JobStatusCompleted:
		view.Result = &job.Result
		uc.store.ScheduleDeletion(ctx, id, uc.cleanupDelay)
	case model.JobStatusError:
		view.Error = &job.Error
		uc.store.ScheduleDeletion(ctx, id, uc.cleanupDelay)
	}
	return view, nil
}

// runWorkflow is the detached generation pipeline. Every failure inside
// it resolves to a terminal error state; the outer recover is the
// catch-all guaranteeing that even a panic cannot strand the job.
func (uc *ReflectionUseCase) runWorkflow(ctx context.Context, id, topic string, verses []model.Verse) {
	log := logging.With(logging.WithJobID(ctx, id), uc.log)
	defer logging.TraceDuration(log, "ReflectionUC.runWorkflow")()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("workflow panicked")
			_ = uc.store.Fail(context.Background(), id, errMsgGeneration)
		}
	}()

	// Surface in-flight backoff on the job record, informational only.
	ctx = adapter.WithRetryObserver(ctx, func(attempt int, delay time.Duration) {
		uc.store.SetRetryState(context.Background(), id, attempt, delay)
	})

	verdict, err := uc.ai.EvaluateTopic(ctx, topic)
	if err != nil {
		log.Error().Err(err).Msg("topic evaluation failed")
		_ = uc.store.Fail(context.Background(), id, errMsgGeneration)
		return
	}
	if !verdict.Suitable {
		log.Info().Str("reason", verdict.Reason).Msg("topic rejected")
		_ = uc.store.Fail(context.Background(), id, errMsgTopicRejected)
		return
	}

	if len(verses) == 0 {
		verses, err = uc.ai.SearchVerses(ctx, topic)
		if err != nil {
			log.Error().Err(err).Msg("verse search failed")
			_ = uc.store.Fail(context.Background(), id, errMsgGeneration)
			return
		}
	}

	text, err := uc.ai.GenerateReflection(ctx, topic, verses)
	if err != nil {
		log.Error().Err(err).Msg("reflection generation failed")
		_ = uc.store.Fail(context.Background(), id, errMsgGeneration)
		return
	}

	// Store writes use a fresh context: the work is done and the result
	// must land even if the dispatch context is going away.
	if err := uc.store.Complete(context.Background(), id, text); err != nil {
		log.Error().Err(err).Msg("completed transition failed")
	}
	log.Info().Msg("job completed")
}
