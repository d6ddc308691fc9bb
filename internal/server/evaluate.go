package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/OrlandoBitencourt/gonfalon/internal/domain"
)

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	userID := r.URL.Query().Get("user_id")

	result, err := s.svc.Evaluate(r.Context(), key, userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type evaluateAllRequest struct {
	FlagKeys []string `json:"flag_keys"`
	UserID   string   `json:"user_id,omitempty"`
}

// bulkEntry is one key's outcome in a bulk evaluation response. Either the
// result fields are set, or Error carries the failure (NotFound marks
// unknown keys so SDK callers can type them).
type bulkEntry struct {
	Key      string        `json:"key,omitempty"`
	Enabled  bool          `json:"enabled,omitempty"`
	Reason   domain.Reason `json:"reason,omitempty"`
	Error    string        `json:"error,omitempty"`
	NotFound bool          `json:"not_found,omitempty"`
}

type evaluateAllResponse struct {
	Results map[string]bulkEntry `json:"results"`
}

func (s *Server) handleEvaluateAll(w http.ResponseWriter, r *http.Request) {
	var req evaluateAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if len(req.FlagKeys) == 0 {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "flag_keys cannot be empty"})
		return
	}

	outcomes, err := s.svc.EvaluateAll(r.Context(), req.FlagKeys, req.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := evaluateAllResponse{Results: make(map[string]bulkEntry, len(outcomes))}
	for key, outcome := range outcomes {
		if outcome.Err != nil {
			resp.Results[key] = bulkEntry{
				Error:    outcome.Err.Error(),
				NotFound: domain.IsNotFound(outcome.Err),
			}
			continue
		}
		resp.Results[key] = bulkEntry{
			Key:     outcome.Result.FlagKey,
			Enabled: outcome.Result.Enabled,
			Reason:  outcome.Result.Reason,
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.CacheStats())
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearCache(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
