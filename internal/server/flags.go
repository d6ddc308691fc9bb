package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/OrlandoBitencourt/gonfalon/internal/domain"
)

func (s *Server) handleCreateFlag(w http.ResponseWriter, r *http.Request) {
	var spec domain.FlagSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	flag, err := s.svc.CreateFlag(r.Context(), spec, actorFrom(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, flag)
}

func (s *Server) handleListFlags(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)

	flags, err := s.svc.ListFlags(r.Context(), skip, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, flags)
}

func (s *Server) handleGetFlag(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	flag, err := s.svc.GetFlag(r.Context(), key)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, flag)
}

func (s *Server) handleUpdateFlag(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var upd domain.FlagUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	flag, err := s.svc.UpdateFlag(r.Context(), key, upd, actorFrom(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, flag)
}

func (s *Server) handleDeleteFlag(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if err := s.svc.DeleteFlag(r.Context(), key, actorFrom(r)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	limit := queryInt(r, "limit", 100)

	records, err := s.svc.AuditLog(r.Context(), key, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, records)
}

// actorFrom identifies the caller for the audit trail. The actor header is
// advisory; authentication happens in the API-key middleware.
func actorFrom(r *http.Request) string {
	return r.Header.Get("X-Actor")
}
