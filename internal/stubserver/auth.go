package stubserver

import (
	"encoding/json"
	"net/http"

	"github.com/leaveapproval/attendance-client-go/internal/domain/user"
)

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req user.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}

	u, ok := s.store.authenticate(req.Email, req.Password)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := s.issueToken(u)
	if err != nil {
		s.logger.Error("failed to issue token", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Could not issue token")
		return
	}

	writeJSON(w, http.StatusOK, user.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.Role,
	})
}
