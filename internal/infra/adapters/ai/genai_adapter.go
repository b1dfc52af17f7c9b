package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"devotional-ai-service/internal/domain"
	"devotional-ai-service/internal/domain/model"
	"devotional-ai-service/internal/domain/ports/adapter"
	"devotional-ai-service/internal/infra/metrics"
)

var _ adapter.AIServiceAdapter = (*GenAIAdapter)(nil)

// GenAIAdapter is the same Gemini backend through the official SDK, kept
// as an alternative provider. The SDK performs its own transport retries,
// so this adapter does not go through DoWithRetry.
type GenAIAdapter struct {
	client       *genai.Client
	defaultModel string
}

func NewGenAIAdapter(ctx context.Context, apiKey, baseURL, defaultModel string) (*GenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("genai: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	if defaultModel == "" {
		defaultModel = "gemini-2.0-flash"
	}
	return &GenAIAdapter{client: c, defaultModel: defaultModel}, nil
}

func (g *GenAIAdapter) EvaluateTopic(ctx context.Context, topic string) (adapter.TopicVerdict, error) {
	raw, err := g.generate(ctx, "evaluate", evaluatePrompt(topic))
	if err != nil {
		return adapter.TopicVerdict{}, err
	}
	var v verdictPayload
	if err := DecodeModelJSON(raw, &v); err != nil {
		return adapter.TopicVerdict{}, fmt.Errorf("unparsable verdict: %w", err)
	}
	return adapter.TopicVerdict{Suitable: v.Suitable, Reason: v.Reason}, nil
}

func (g *GenAIAdapter) SearchVerses(ctx context.Context, query string) ([]model.Verse, error) {
	raw, err := g.generate(ctx, "search", searchPrompt(query))
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

func (g *GenAIAdapter) GenerateReflection(ctx context.Context, topic string, verses []model.Verse) (string, error) {
	text, err := g.generate(ctx, "reflect", reflectionPrompt(topic, verses))
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("empty reflection")
	}
	return text, nil
}

func (g *GenAIAdapter) generate(ctx context.Context, op, prompt string) (string, error) {
	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.defaultModel, genai.Text(prompt), nil)
	latency := int(time.Since(start) / time.Millisecond)
	metrics.ObserveAICall("gemini-sdk", op, latency, err == nil)
	if err != nil {
		return "", err
	}

	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, p := range resp.Candidates[0].Content.Parts {
			if p.Text != "" {
				return p.Text, nil
			}
		}
	}
	return "", errors.New("no candidate content")
}
