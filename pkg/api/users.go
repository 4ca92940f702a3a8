package api

import (
	"encoding/json"
	"net/http"

	"github.com/cabinetfs/cabinet/internal/logger"
	"github.com/cabinetfs/cabinet/pkg/store/metadata"
)

// userView is the client-facing shape of an account. The password digest
// never appears here.
type userView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func viewUser(u *metadata.User) userView {
	return userView{ID: u.ID.String(), Email: u.Email}
}

// handleCreateUser registers a new account.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	user, err := s.users.Register(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewUser(user))
}

// handleMe returns the authenticated account.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	user, err := s.users.GetByID(r.Context(), userID)
	if err != nil {
		// A live token for a vanished user still reads as unauthorized.
		logger.Warn("token resolved to missing user %s", userID)
		writeError(w, http.StatusUnauthorized, errUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, viewUser(user))
}
