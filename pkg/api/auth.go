package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/cabinetfs/cabinet/internal/logger"
)

// handleConnect exchanges Basic credentials for a session token.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	email, password, ok := r.BasicAuth()
	if !ok || email == "" || password == "" {
		writeError(w, http.StatusUnauthorized, errUnauthorized)
		return
	}

	user, ok, err := s.users.Verify(r.Context(), email, password)
	if err != nil {
		logger.Error("verify credentials: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !ok {
		// Unknown email and wrong password are indistinguishable here.
		writeError(w, http.StatusUnauthorized, errUnauthorized)
		return
	}

	token, err := s.sessions.Issue(r.Context(), user.ID)
	if err != nil {
		logger.Error("issue session: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// handleDisconnect revokes the request's session token.
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(TokenHeader)
	_, ok, err := s.sessions.Resolve(r.Context(), token)
	if err != nil {
		logger.Error("resolve session: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, errUnauthorized)
		return
	}

	if err := s.sessions.Revoke(r.Context(), token); err != nil {
		logger.Error("revoke session: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authenticate resolves the request's token to a user id. On failure it has
// already written the 401 response and returns false.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok, err := s.sessions.Resolve(r.Context(), r.Header.Get(TokenHeader))
	if err != nil {
		logger.Error("resolve session: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return uuid.Nil, false
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, errUnauthorized)
		return uuid.Nil, false
	}
	return userID, true
}
