package web

import (
	"net/http"

	"devotional-ai-service/internal/domain/ports/repository"
	"devotional-ai-service/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type Server struct {
	uc      *usecase.ReflectionUseCase
	limiter repository.RateLimiter
	log     *zerolog.Logger
}

func NewServer(uc *usecase.ReflectionUseCase, limiter repository.RateLimiter, logger *zerolog.Logger) *Server {
	return &Server{uc: uc, limiter: limiter, log: logger}
}

// Router builds the chi router. The API is public and browser-facing, so
// CORS is permissive; preflights answer 204 with no body.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(traceID)
	r.Use(requestLog(s.log))
	r.Use(recoverer(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:     []string{"Content-Type"},
		MaxAge:             86400,
		OptionsPassthrough: true,
	}))

	r.Route("/api/v1/reflections", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/status", s.handleStatus)
		r.Options("/", preflight)
		r.Options("/status", preflight)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	return r
}

func preflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
