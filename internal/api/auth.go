package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tasklane/tasklane-core/internal/audit"
	"github.com/tasklane/tasklane-core/internal/auth"
	"github.com/tasklane/tasklane-core/internal/events"
)

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /auth/login.
type loginResponse struct {
	ID        string    `json:"id"`
	UserName  string    `json:"userName"`
	Email     string    `json:"email"`
	Role      auth.Role `json:"role"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// handleLogin verifies credentials and issues the user's only live token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeBadRequest(w, "email and password are required")
		return
	}

	result, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.recordAuthDecision(stageToken, outcomeDenied, "", "bad_credentials")
			writeUnauthorized(w, msgBadCredentials)
			return
		}
		s.logger.Error("login failed", "error", err)
		writeInternalError(w, "failed to log in", err)
		return
	}

	s.prom.SessionIssued()
	if result.Replaced {
		s.prom.SessionsRevoked("replaced", 1)
	}

	user := result.User
	s.logger.Info("user logged in", "user_id", user.ID, "replaced_session", result.Replaced)
	s.auditLog(audit.ActionLogin, "session", user.ID, user.ID, map[string]any{
		"replaced": result.Replaced,
	})
	s.events.Publish(events.New(events.TypeLogin, user.ID, "user", user.ID, nil))

	writeJSON(w, http.StatusOK, loginResponse{
		ID:        user.ID,
		UserName:  user.UserName,
		Email:     user.Email,
		Role:      user.Role,
		Token:     result.Token,
		ExpiresAt: result.Claims.ExpiresAt.Time,
	})
}

// handleLogout ends the caller's session. The token stops working at once.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	if err := s.auth.Logout(r.Context(), user); err != nil {
		s.logger.Error("logout failed", "user_id", user.ID, "error", err)
		writeInternalError(w, "failed to log out", err)
		return
	}

	s.prom.SessionsRevoked("logout", 1)
	s.logger.Info("user logged out", "user_id", user.ID)
	s.auditLog(audit.ActionLogout, "session", user.ID, user.ID, nil)
	s.events.Publish(events.New(events.TypeLogout, user.ID, "user", user.ID, nil))

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}
