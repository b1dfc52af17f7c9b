package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"devotional-ai-service/internal/config"
	"devotional-ai-service/internal/domain/model"
	"devotional-ai-service/internal/domain/ports/adapter"
	"devotional-ai-service/internal/infra/memory"
	"devotional-ai-service/internal/infra/worker"
	"devotional-ai-service/internal/usecase"

	"github.com/rs/zerolog"
)

// --- Mock AI adapter ---

type stubAI struct {
	verdict    adapter.TopicVerdict
	verses     []model.Verse
	reflection string
	err        error
}

func (s *stubAI) EvaluateTopic(ctx context.Context, topic string) (adapter.TopicVerdict, error) {
	return s.verdict, s.err
}

func (s *stubAI) SearchVerses(ctx context.Context, query string) ([]model.Verse, error) {
	return s.verses, s.err
}

func (s *stubAI) GenerateReflection(ctx context.Context, topic string, verses []model.Verse) (string, error) {
	return s.reflection, s.err
}

type testEnv struct {
	router http.Handler
	stop   func()
}

func newTestEnv(t *testing.T, ai adapter.AIServiceAdapter, cleanupDelay time.Duration) *testEnv {
	t.Helper()
	logger := zerolog.Nop()
	store := memory.NewJobStore(&logger)
	limiter := memory.NewRateLimiter(config.LimitsConfig{
		Create: config.ClassLimit{Ceiling: 5, Window: time.Minute},
		Status: config.ClassLimit{Ceiling: 60, Window: time.Minute},
	})
	pool := worker.NewPool(2, &logger)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	uc := usecase.NewReflectionUseCase(store, ai, pool, 10*time.Minute, cleanupDelay, &logger)
	srv := NewServer(uc, limiter, &logger)
	return &testEnv{
		router: srv.Router(),
		stop: func() {
			cancel()
			pool.Stop()
		},
	}
}

func (e *testEnv) do(method, target, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestCreatePollCleanupScenario(t *testing.T) {
	ai := &stubAI{
		verdict:    adapter.TopicVerdict{Suitable: true},
		reflection: "A reflection on hope, with prayer.",
	}
	env := newTestEnv(t, ai, 30*time.Millisecond)
	defer env.stop()

	// Create.
	rec := env.do(http.MethodPost, "/api/v1/reflections",
		`{"topic":"hope","verses":[{"reference":"Jn 3:16","text":"For God so loved the world"}]}`, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" || created.Status != "pending" {
		t.Fatalf("bad create response: %+v", created)
	}

	// Poll until terminal, as a client loop with its own ceiling would.
	var status struct {
		Status string  `json:"status"`
		Result *string `json:"result"`
		Error  *string `json:"error"`
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		rec = env.do(http.MethodGet, "/api/v1/reflections/status?id="+created.ID, "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if status.Status != "pending" {
			break
		}
		if status.Result != nil || status.Error != nil {
			t.Fatal("pending status must carry null result and error")
		}
		if time.Now().After(deadline) {
			t.Fatal("job never completed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if status.Status != "completed" {
		t.Fatalf("expected completed, got %s", status.Status)
	}
	if status.Result == nil || *status.Result == "" || status.Error != nil {
		t.Fatalf("bad terminal body: %+v", status)
	}

	// One cleanup-delay later the id is gone, as if it never existed.
	time.Sleep(100 * time.Millisecond)
	rec = env.do(http.MethodGet, "/api/v1/reflections/status?id="+created.ID, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after cleanup delay, got %d", rec.Code)
	}
}

func TestCreateRateLimit(t *testing.T) {
	ai := &stubAI{verdict: adapter.TopicVerdict{Suitable: true}, reflection: "x"}
	env := newTestEnv(t, ai, time.Minute)
	defer env.stop()

	for i := 0; i < 5; i++ {
		rec := env.do(http.MethodPost, "/api/v1/reflections", `{"topic":"hope"}`, nil)
		if rec.Code != http.StatusAccepted {
			t.Fatalf("request %d: expected 202, got %d", i+1, rec.Code)
		}
	}

	rec := env.do(http.MethodPost, "/api/v1/reflections", `{"topic":"hope"}`, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("6th create within the window: expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 must carry a Retry-After header")
	}

	// Poll traffic has its own independent ceiling.
	rec = env.do(http.MethodGet, "/api/v1/reflections/status?id=whatever", "", nil)
	if rec.Code == http.StatusTooManyRequests {
		t.Error("status class throttled by create usage")
	}
}

func TestSearchVersesSync(t *testing.T) {
	ai := &stubAI{verses: []model.Verse{{Reference: "Rom 8:28", Text: "All things work together"}}}
	env := newTestEnv(t, ai, time.Minute)
	defer env.stop()

	rec := env.do(http.MethodPost, "/api/v1/reflections", `{"type":"SEARCH_VERSES","query":"providence"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Verses []model.Verse `json:"verses"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Verses) != 1 {
		t.Errorf("expected one verse, got %+v", resp.Verses)
	}
}

func TestSearchVersesUpstreamFailure(t *testing.T) {
	env := newTestEnv(t, &stubAI{err: errors.New("upstream exploded")}, time.Minute)
	defer env.stop()

	rec := env.do(http.MethodPost, "/api/v1/reflections", `{"type":"SEARCH_VERSES","query":"providence"}`, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "exploded") {
		t.Error("internal error detail leaked to the client")
	}
}

func TestBadRequests(t *testing.T) {
	env := newTestEnv(t, &stubAI{}, time.Minute)
	defer env.stop()

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"topic": `},
		{"unknown type", `{"type":"SOMETHING_ELSE"}`},
		{"empty topic", `{"topic":"   "}`},
		{"empty query", `{"type":"SEARCH_VERSES","query":""}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/v1/reflections", tc.body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}

	t.Run("status without id", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/reflections/status", "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/v1/reflections/status?id=01ARZ3NDEKTSV4RRFFQ69G5FAV", "", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestCORSAndMethods(t *testing.T) {
	env := newTestEnv(t, &stubAI{}, time.Minute)
	defer env.stop()

	t.Run("preflight answers 204 with permissive headers", func(t *testing.T) {
		rec := env.do(http.MethodOptions, "/api/v1/reflections", "", map[string]string{
			"Origin":                        "https://example.com",
			"Access-Control-Request-Method": "POST",
		})
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") == "" {
			t.Error("missing CORS headers on preflight")
		}
	})

	t.Run("unsupported method yields 405", func(t *testing.T) {
		rec := env.do(http.MethodDelete, "/api/v1/reflections", "", nil)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})
}
