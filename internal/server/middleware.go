package server

import (
	"crypto/subtle"
	"net/http"
)

// APIKeyHeader is the header mutating requests must carry when a key is
// configured.
const APIKeyHeader = "X-API-Key"

// requireAPIKey guards mutating endpoints. With no key configured all
// requests pass, so development setups work out of the box. Missing and
// wrong keys are distinguished so operators can tell misconfigured clients
// from hostile ones.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		provided := r.Header.Get(APIKeyHeader)
		if provided == "" {
			s.writeJSON(w, http.StatusUnauthorized, errorResponse{
				Error: "api key required, provide via " + APIKeyHeader + " header",
			})
			return
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(s.apiKey)) != 1 {
			s.writeJSON(w, http.StatusForbidden, errorResponse{Error: "invalid api key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
