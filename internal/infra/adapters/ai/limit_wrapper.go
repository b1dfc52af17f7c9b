package ai

import (
	"context"

	"devotional-ai-service/internal/domain/model"
	"devotional-ai-service/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.AIServiceAdapter = (*limitedAI)(nil)

type limitedAI struct {
	inner adapter.AIServiceAdapter
	sem   chan struct{}
}

// NewLimitedAI caps concurrent calls into the wrapped adapter with a
// semaphore. It is the process-side complement of the upstream's own rate
// limiting: better to queue here than to burn retries there.
func NewLimitedAI(inner adapter.AIServiceAdapter, maxConcurrent int) adapter.AIServiceAdapter {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedAI{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedAI) acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *limitedAI) EvaluateTopic(ctx context.Context, topic string) (adapter.TopicVerdict, error) {
	if err := l.acquire(ctx); err != nil {
		return adapter.TopicVerdict{}, err
	}
	defer func() { <-l.sem }()
	return l.inner.EvaluateTopic(ctx, topic)
}

func (l *limitedAI) SearchVerses(ctx context.Context, query string) ([]model.Verse, error) {
	if err := l.acquire(ctx); err != nil {
		return nil, err
	}
	defer func() { <-l.sem }()
	return l.inner.SearchVerses(ctx, query)
}

func (l *limitedAI) GenerateReflection(ctx context.Context, topic string, verses []model.Verse) (string, error) {
	if err := l.acquire(ctx); err != nil {
		return "", err
	}
	defer func() { <-l.sem }()
	return l.inner.GenerateReflection(ctx, topic, verses)
}
