package api

import (
	"net/http"

	"github.com/cabinetfs/cabinet/internal/logger"
)

// handleStatus reports reachability of the two shared backends.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	dbOK := s.store.Ping(r.Context()) == nil
	cacheOK := s.sessions.Ping(r.Context()) == nil

	status := http.StatusOK
	if !dbOK || !cacheOK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]bool{
		"db":    dbOK,
		"cache": cacheOK,
	})
}

// handleStats reports the user and file totals.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	userCount, fileCount, err := s.files.Stats(r.Context())
	if err != nil {
		logger.Error("collect stats: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"users": userCount,
		"files": fileCount,
	})
}
