// Package server exposes the submit/poll HTTP API over a job registry.
// Transport framing only; all generation semantics live in the loop and job
// packages.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/factweave/factweave/job"
)

const maxGenerateBodySize = 1 << 20 // 1MB

// Jobs is the registry surface the HTTP layer needs.
type Jobs interface {
	Submit(topic string, verbose bool) string
	Get(id string) (job.Record, bool)
}

// GenerateRequest is the payload for POST /api/generate. Topic is the
// subject to write about; Verbose requests the full per-iteration history in
// the final result.
type GenerateRequest struct {
	Topic   string `json:"topic"`
	Verbose bool   `json:"verbose"`
}

// GenerateResponse carries the id to poll for the submitted job.
type GenerateResponse struct {
	JobID string `json:"job_id"`
}

// Deps wires the handler's collaborators. Token enables bearer auth on the
// /api routes when non-empty.
type Deps struct {
	Jobs   Jobs
	Token  string
	Logger *slog.Logger
}

// NewHandler builds the HTTP routing tree.
func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(requestLogger(deps.Logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token))
		}
		r.Post("/generate", handleGenerate(deps))
		r.Get("/jobs/{id}", handleGetJob(deps))
	})

	return r
}

func handleGenerate(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxGenerateBodySize)
		defer r.Body.Close()

		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
			return
		}
		if req.Topic == "" {
			httpError(w, http.StatusBadRequest, "topic is required")
			return
		}

		id := deps.Jobs.Submit(req.Topic, req.Verbose)
		writeJSON(w, http.StatusAccepted, GenerateResponse{JobID: id})
	}
}

func handleGetJob(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		rec, ok := deps.Jobs.Get(id)
		if !ok {
			httpError(w, http.StatusNotFound, "unknown job id %q", id)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// requestLogger logs method, path, and latency for every request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"elapsed", time.Since(start))
		})
	}
}
