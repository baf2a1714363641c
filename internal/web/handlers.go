package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

const statsCacheKey = "stats:dashboard"

// handleHealth reports liveness. It deliberately touches no dependencies so
// a wedged database never flips the health check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleStats returns the dashboard aggregate, cached in Redis for
// cfg.Redis.StatsTTL when a cache is configured.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var cached map[string]interface{}
	if s.cache.GetJSON(r.Context(), statsCacheKey, &cached) {
		writeJSON(w, cached)
		return
	}

	stats, err := s.store.GetStats(r.Context())
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	s.cache.SetJSON(r.Context(), statsCacheKey, stats, s.cfg.Redis.StatsTTL)
	writeJSON(w, stats)
}

// decodeJSONBody decodes a JSON request body. Decode failures keep the
// underlying decoder message so logs and responses show what was wrong,
// wrapped under a stable prefix the error mapper can match.
func decodeJSONBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
