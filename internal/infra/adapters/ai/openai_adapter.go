package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"devotional-ai-service/internal/domain"
	"devotional-ai-service/internal/domain/model"
	"devotional-ai-service/internal/domain/ports/adapter"
	"devotional-ai-service/internal/infra/metrics"
)

var _ adapter.AIServiceAdapter = (*OpenAIAdapter)(nil)

// OpenAIAdapter implements the port against Chat Completions via the
// official SDK. The SDK already honors Retry-After on 429 internally, so
// MaxRetries is handed to it rather than to DoWithRetry.
type OpenAIAdapter struct {
	client openai.Client
	model  string
}

func NewOpenAIAdapter(apiKey, modelName string, maxRetries int) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(maxRetries),
	)
	return &OpenAIAdapter{client: client, model: modelName}, nil
}

func (o *OpenAIAdapter) EvaluateTopic(ctx context.Context, topic string) (adapter.TopicVerdict, error) {
	raw, err := o.complete(ctx, "evaluate", evaluatePrompt(topic))
	if err != nil {
		return adapter.TopicVerdict{}, err
	}
	var v verdictPayload
	if err := DecodeModelJSON(raw, &v); err != nil {
		return adapter.TopicVerdict{}, fmt.Errorf("unparsable verdict: %w", err)
	}
	return adapter.TopicVerdict{Suitable: v.Suitable, Reason: v.Reason}, nil
}

func (o *OpenAIAdapter) SearchVerses(ctx context.Context, query string) ([]model.Verse, error) {
	raw, err := o.complete(ctx, "search", searchPrompt(query))
	if err != nil {
		return nil, err
	}
	var p versesPayload
	if err := DecodeModelJSON(raw, &p); err != nil {
		if arrErr := DecodeModelJSON(raw, &p.Verses); arrErr != nil {
			return nil, fmt.Errorf("unparsable verse payload: %w", err)
		}
	}
	verses := model.ValidateVerses(p.Verses, model.MaxVerses)
	if len(verses) == 0 {
		return nil, domain.ErrNoVerses
	}
	return verses, nil
}

func (o *OpenAIAdapter) GenerateReflection(ctx context.Context, topic string, verses []model.Verse) (string, error) {
	text, err := o.complete(ctx, "reflect", reflectionPrompt(topic, verses))
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("empty reflection")
	}
	return text, nil
}

func (o *OpenAIAdapter) complete(ctx context.Context, op, prompt string) (string, error) {
	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	latency := int(time.Since(start) / time.Millisecond)
	metrics.ObserveAICall("openai", op, latency, err == nil)
	if err != nil {
		return "", err
	}
	for _, c := range resp.Choices {
		if c.Message.Content != "" {
			return c.Message.Content, nil
		}
	}
	return "", errors.New("no choice content")
}
