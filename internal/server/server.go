// Package server exposes the flag service over HTTP. Read paths (evaluate,
// get, list, stats) are public; mutating paths require the configured API
// key.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/OrlandoBitencourt/gonfalon/internal/domain"
	"github.com/OrlandoBitencourt/gonfalon/internal/service"
)

// Server holds the HTTP handlers around a Service.
type Server struct {
	svc    *service.Service
	apiKey string
	log    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithAPIKey enables API-key authentication for mutating endpoints. An
// empty key leaves them open (development mode).
func WithAPIKey(key string) Option {
	return func(s *Server) {
		s.apiKey = key
	}
}

// WithLogger sets the request logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a Server around svc.
func New(svc *service.Service, opts ...Option) *Server {
	s := &Server{
		svc: svc,
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/flags", func(r chi.Router) {
		r.Get("/", s.handleListFlags)
		r.With(s.requireAPIKey).Post("/", s.handleCreateFlag)

		r.Route("/{key}", func(r chi.Router) {
			r.Get("/", s.handleGetFlag)
			r.With(s.requireAPIKey).Put("/", s.handleUpdateFlag)
			r.With(s.requireAPIKey).Delete("/", s.handleDeleteFlag)
			r.Get("/evaluate", s.handleEvaluate)
			r.Get("/audit", s.handleAudit)
		})
	})

	r.Post("/evaluate", s.handleEvaluateAll)

	r.Route("/cache", func(r chi.Router) {
		r.Get("/stats", s.handleCacheStats)
		r.With(s.requireAPIKey).Post("/clear", s.handleCacheClear)
	})

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", "error", err)
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsNotFound(err):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case domain.IsValidationError(err):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.log.Error("request failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
