// Package api exposes the service over HTTP.
//
// Transport only: handlers decode payloads, resolve the token to an identity
// through the session manager, call into the domain services, and map typed
// domain errors to status codes. Every error body is {"error": "<stable
// message>"} with the message taken verbatim from the domain error, so
// clients never see internal detail.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cabinetfs/cabinet/pkg/files"
	"github.com/cabinetfs/cabinet/pkg/session"
	"github.com/cabinetfs/cabinet/pkg/store/metadata"
	"github.com/cabinetfs/cabinet/pkg/users"
)

// TokenHeader carries the session token on authenticated requests.
const TokenHeader = "X-Token"

// errUnauthorized is the stable body for every authentication failure.
const errUnauthorized = "Unauthorized"

// Server is the HTTP front of the service.
type Server struct {
	users    *users.Service
	files    *files.Service
	sessions *session.Manager
	store    metadata.Store
	mux      *http.ServeMux
}

// New creates a Server with all routes registered.
func New(userSvc *users.Service, fileSvc *files.Service, sessions *session.Manager, store metadata.Store) *Server {
	s := &Server{
		users:    userSvc,
		files:    fileSvc,
		sessions: sessions,
		store:    store,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// routes registers all HTTP routes on the server mux.
func (s *Server) routes() {
	// Health
	s.mux.HandleFunc("GET /status", s.handleStatus)
	s.mux.HandleFunc("GET /stats", s.handleStats)

	// Auth
	s.mux.HandleFunc("GET /connect", s.handleConnect)
	s.mux.HandleFunc("GET /disconnect", s.handleDisconnect)

	// Users
	s.mux.HandleFunc("POST /users", s.handleCreateUser)
	s.mux.HandleFunc("GET /users/me", s.handleMe)

	// Files
	s.mux.HandleFunc("POST /files", s.handleUpload)
	s.mux.HandleFunc("GET /files", s.handleListFiles)
	s.mux.HandleFunc("GET /files/{id}", s.handleGetFile)
	s.mux.HandleFunc("PUT /files/{id}/publish", s.handlePublish)
	s.mux.HandleFunc("PUT /files/{id}/unpublish", s.handleUnpublish)
	s.mux.HandleFunc("GET /files/{id}/data", s.handleFileData)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response with the given status code and
// message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps a typed domain error onto its status class. Anything
// that is not a StoreError is an infrastructure failure and reads as a bare
// 500.
func writeDomainError(w http.ResponseWriter, err error) {
	var storeErr *metadata.StoreError
	if errors.As(err, &storeErr) {
		status := http.StatusBadRequest
		if storeErr.Code == metadata.CodeNotFound {
			status = http.StatusNotFound
		}
		writeError(w, status, storeErr.Message)
		return
	}
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
