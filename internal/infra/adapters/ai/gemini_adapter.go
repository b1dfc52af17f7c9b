package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"devotional-ai-service/internal/domain"
	"devotional-ai-service/internal/domain/model"
	"devotional-ai-service/internal/domain/ports/adapter"
	"devotional-ai-service/internal/infra/metrics"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.AIServiceAdapter = (*GeminiAdapter)(nil)

// GeminiAdapter talks to the Generative Language REST API directly. The
// raw HTTP path is the canonical one: the retry caller needs the status
// code and Retry-After header of every attempt, which SDK clients hide.
type GeminiAdapter struct {
	apiKey string
	base   string // e.g., https://generativelanguage.googleapis.com/v1beta
	model  string
	client *http.Client
	policy RetryPolicy
}

func NewGeminiAdapter(apiKey, base, model string, maxRetries int, initialDelay, timeout time.Duration) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key empty")
	}
	if base == "" {
		base = "https://generativelanguage.googleapis.com/v1beta"
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiAdapter{
		apiKey: apiKey,
		base:   strings.TrimRight(base, "/"),
		model:  model,
		client: &http.Client{Timeout: timeout},
		policy: RetryPolicy{MaxRetries: maxRetries, InitialDelay: initialDelay},
	}, nil
}

func (g *GeminiAdapter) EvaluateTopic(ctx context.Context, topic string) (adapter.TopicVerdict, error) {
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

func (g *GeminiAdapter) SearchVerses(ctx context.Context, query string) ([]model.Verse, error) {
	raw, err := g.generate(ctx, "search", searchPrompt(query))
	if err != nil {
		return nil, err
	}
	var p versesPayload
	if err := DecodeModelJSON(raw, &p); err != nil {
		// Some model variants answer with a bare array.
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

func (g *GeminiAdapter) GenerateReflection(ctx context.Context, topic string, verses []model.Verse) (string, error) {
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

// --- wire format ---

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// generate performs one prompt round trip through the retry caller and
// returns the first candidate's text.
func (g *GeminiAdapter) generate(ctx context.Context, op, prompt string) (string, error) {
	body, _ := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.base, g.model, g.apiKey)

	policy := g.policy
	policy.OnWait = adapter.RetryObserverFrom(ctx)

	start := time.Now()
	resp, err := DoWithRetry(ctx, policy, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return g.client.Do(req)
	})
	latency := int(time.Since(start) / time.Millisecond)
	metrics.ObserveAICall("gemini", op, latency, err == nil)

	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return "", err
	}
	defer resp.Body.Close()

	var payload geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	for _, c := range payload.Candidates {
		for _, p := range c.Content.Parts {
			if p.Text != "" {
				return p.Text, nil
			}
		}
	}
	return "", errors.New("no candidate content")
}
