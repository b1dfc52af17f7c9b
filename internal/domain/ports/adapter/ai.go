package adapter

import (
	"context"

	"devotional-ai-service/internal/domain/model"
)

// TopicVerdict is the model's judgement on whether a topic is suitable
// for devotional treatment.
type TopicVerdict struct {
	Suitable bool
	Reason   string
}

// AIServiceAdapter is the port for the external generation API. The
// contract is narrow: a topic or query goes out, a structured verse list
// or free text comes back, or an error. Rate limiting and transport
// failures are the adapter's problem; callers only see the final error.
type AIServiceAdapter interface {
	// EvaluateTopic judges whether the topic deserves a devotional answer.
	EvaluateTopic(ctx context.Context, topic string) (TopicVerdict, error)

	// SearchVerses returns scripture citations relevant to the query.
	// Implementations must validate the shape of what the model returns
	// before handing it back.
	SearchVerses(ctx context.Context, query string) ([]model.Verse, error)

	// GenerateReflection composes a devotional reflection and prayer
	// referencing the given verses.
	GenerateReflection(ctx context.Context, topic string, verses []model.Verse) (string, error)
}
