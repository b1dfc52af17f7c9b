package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"devotional-ai-service/internal/domain"
	"devotional-ai-service/internal/domain/model"
	"devotional-ai-service/internal/domain/ports/repository"
	"devotional-ai-service/internal/infra/metrics"
)

// The POST body carries either a synchronous verse search or an async
// reflection-generation request. A bare {topic, verses} body is accepted
// as the generation variant for older clients.
type createRequest struct {
	Type   string        `json:"type"`
	Query  string        `json:"query"`
	Topic  string        `json:"topic"`
	Verses []model.Verse `json:"verses"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError keeps external messages opaque; details live in the log.
func writeError(w http.ResponseWriter, code int, kind, msg string) {
	writeJSON(w, code, errorResponse{Error: kind, Message: msg})
}

// gate runs the rate limiter for one request class. It reports whether
// the request may proceed, writing the rejection itself when not.
func (s *Server) gate(w http.ResponseWriter, r *http.Request, class repository.RequestClass) bool {
	dec, err := s.limiter.Allow(r.Context(), clientKey(r), class)
	if err != nil {
		s.log.Error().Err(err).Msg("rate limiter failed")
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return false
	}
	if !dec.Allowed {
		metrics.IncRateLimited(string(class))
		secs := int(dec.RetryAfter.Seconds())
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests, slow down")
		return false
	}
	return true
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if !s.gate(w, r, repository.ClassCreate) {
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	switch req.Type {
	case "SEARCH_VERSES":
		verses, err := s.uc.SearchVerses(r.Context(), req.Query)
		if err != nil {
			s.writeUsecaseError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Verses []model.Verse `json:"verses"`
		}{Verses: verses})

	case "GENERATE_REFLECTION", "":
		job, err := s.uc.Create(r.Context(), req.Topic, req.Verses)
		if err != nil {
			s.writeUsecaseError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, struct {
			ID     string          `json:"id"`
			Status model.JobStatus `json:"status"`
		}{ID: job.ID, Status: model.JobStatusPending})

	default:
		writeError(w, http.StatusBadRequest, "bad_request", "unknown request type")
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !s.gate(w, r, repository.ClassStatus) {
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "missing id")
		return
	}

	view, err := s.uc.Status(r.Context(), id)
	if err != nil {
		s.writeUsecaseError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) writeUsecaseError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "bad_request", "missing or malformed fields")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "unknown job id")
	default:
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
