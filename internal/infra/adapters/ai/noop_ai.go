package ai

import (
	"context"
	"fmt"
	"time"

	"devotional-ai-service/internal/domain/model"
	"devotional-ai-service/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*NoopAIAdapter)(nil)

// NoopAIAdapter implements the port for local/dev runs without an API
// credential. It sleeps briefly and returns canned output.
type NoopAIAdapter struct{}

func NewNoopAIAdapter() *NoopAIAdapter {
	return &NoopAIAdapter{}
}

func (a *NoopAIAdapter) pause(ctx context.Context) error {
	select {
	case <-time.After(100 * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *NoopAIAdapter) EvaluateTopic(ctx context.Context, topic string) (adapter.TopicVerdict, error) {
	if err := a.pause(ctx); err != nil {
		return adapter.TopicVerdict{}, err
	}
	return adapter.TopicVerdict{Suitable: true, Reason: "noop"}, nil
}

func (a *NoopAIAdapter) SearchVerses(ctx context.Context, query string) ([]model.Verse, error) {
	if err := a.pause(ctx); err != nil {
		return nil, err
	}
	return []model.Verse{
		{Reference: "Psalm 23:1", Text: "The Lord is my shepherd; I shall not want."},
	}, nil
}

func (a *NoopAIAdapter) GenerateReflection(ctx context.Context, topic string, verses []model.Verse) (string, error) {
	if err := a.pause(ctx); err != nil {
		return "", err
	}
	return fmt.Sprintf("A placeholder reflection on %q citing %d verses.", topic, len(verses)), nil
}
