package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tasklane/tasklane-core/internal/audit"
	"github.com/tasklane/tasklane-core/internal/auth"
	"github.com/tasklane/tasklane-core/internal/company"
	"github.com/tasklane/tasklane-core/internal/events"
)

// minPasswordLength is the shortest password accepted at registration.
const minPasswordLength = 8

// Request/response types

type registerRequest struct {
	UserName    string `json:"userName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	CompanyName string `json:"companyName"`
	Domain      string `json:"domain"`
}

type companySummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

type registerResponse struct {
	ID       string         `json:"id"`
	UserName string         `json:"userName"`
	Email    string         `json:"email"`
	Role     auth.Role      `json:"role"`
	Company  companySummary `json:"company"`
}

type updateUserRequest struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Handlers

// handleRegister creates a user inside the company named by
// (companyName, domain), creating the company when it does not exist.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) { //nolint:gocognit // registration: validation + company resolution + hashing pipeline
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	req.UserName = strings.TrimSpace(req.UserName)
	req.Email = strings.TrimSpace(req.Email)
	if req.UserName == "" || req.Email == "" || req.Password == "" || req.Role == "" ||
		strings.TrimSpace(req.CompanyName) == "" || strings.TrimSpace(req.Domain) == "" {
		writeBadRequest(w, "All fields are required: userName, email, password, role, companyName, domain")
		return
	}

	role, err := auth.ParseRole(req.Role)
	if err != nil {
		writeBadRequest(w, "Invalid role. Use admin, manager, or member")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeBadRequest(w, "password must be at least 8 characters")
		return
	}

	ctx := r.Context()
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		writeBadRequest(w, "Email already registered")
		return
	} else if !errors.Is(err, auth.ErrUserNotFound) {
		s.logger.Error("email lookup failed", "error", err)
		writeInternalError(w, "failed to register user", err)
		return
	}

	comp, created, err := s.companies.FindOrCreate(ctx, req.CompanyName, req.Domain)
	if err != nil {
		if errors.Is(err, company.ErrInvalidName) || errors.Is(err, company.ErrInvalidDomain) {
			writeValidationError(w, err)
			return
		}
		s.logger.Error("resolving company failed", "error", err)
		writeInternalError(w, "failed to register user", err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("hash password failed", "error", err)
		writeInternalError(w, "failed to register user", err)
		return
	}

	user := &auth.User{
		UserName:     req.UserName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		CompanyID:    comp.ID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, auth.ErrEmailExists) {
			writeBadRequest(w, "Email already registered")
			return
		}
		s.logger.Error("create user failed", "error", err)
		writeInternalError(w, "failed to register user", err)
		return
	}

	actor := userFromContext(ctx)
	s.logger.Info("user registered", "user_id", user.ID, "role", user.Role, "company_id", comp.ID, "created_by", actor.ID)
	if created {
		s.auditLog(audit.ActionCreate, "company", comp.ID, actor.ID, map[string]any{"name": comp.Name, "domain": comp.Domain})
		s.events.Publish(events.New(events.TypeCompanyCreated, actor.ID, "company", comp.ID, nil))
	}
	s.auditLog(audit.ActionCreate, "user", user.ID, actor.ID, map[string]any{
		"userName": user.UserName,
		"role":     user.Role.String(),
	})
	s.events.Publish(events.New(events.TypeUserRegistered, actor.ID, "user", user.ID, map[string]any{
		"companyId": comp.ID,
	}))

	writeJSON(w, http.StatusCreated, registerResponse{
		ID:       user.ID,
		UserName: user.UserName,
		Email:    user.Email,
		Role:     user.Role,
		Company:  companySummary{ID: comp.ID, Name: comp.Name, Domain: comp.Domain},
	})
}

// handleListUsers returns one page of users. Password hashes are never
// serialised.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	p := parsePage(r)
	users, total, err := s.users.List(r.Context(), p.Limit, p.Offset())
	if err != nil {
		s.logger.Error("list users failed", "error", err)
		writeInternalError(w, "failed to list users", err)
		return
	}
	if users == nil {
		users = []auth.User{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"currentPage": p.Number,
		"totalPages":  p.TotalPages(total),
		"totalUsers":  total,
		"users":       users,
	})
}

// handleUpdateUser patches userName, email and role. The company is not
// changed here. A role change applies to the user's very next request.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ctx := r.Context()
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeNotFound(w, "User not found")
			return
		}
		s.logger.Error("get user failed", "user_id", id, "error", err)
		writeInternalError(w, "failed to update user", err)
		return
	}

	if req.Role != "" {
		role, err := auth.ParseRole(req.Role)
		if err != nil {
			writeBadRequest(w, "Invalid role. Use admin, manager, or member")
			return
		}
		user.Role = role
	}
	if v := strings.TrimSpace(req.UserName); v != "" {
		user.UserName = v
	}
	if v := strings.TrimSpace(req.Email); v != "" {
		user.Email = v
	}

	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			writeBadRequest(w, "Email already registered")
		case errors.Is(err, auth.ErrUserNotFound):
			writeNotFound(w, "User not found")
		default:
			s.logger.Error("update user failed", "user_id", id, "error", err)
			writeInternalError(w, "failed to update user", err)
		}
		return
	}

	actor := userFromContext(ctx)
	s.auditLog(audit.ActionUpdate, "user", user.ID, actor.ID, map[string]any{"role": user.Role.String()})
	s.events.Publish(events.New(events.TypeUserUpdated, actor.ID, "user", user.ID, nil))

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User updated successfully",
		"user": map[string]any{
			"id":        user.ID,
			"userName":  user.UserName,
			"email":     user.Email,
			"role":      user.Role,
			"companyId": user.CompanyID,
		},
	})
}

// handleDeleteUser removes a user and their session. Projects and tasks
// that reference the user are left in place.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeNotFound(w, "User not found")
			return
		}
		s.logger.Error("delete user failed", "user_id", id, "error", err)
		writeInternalError(w, "failed to delete user", err)
		return
	}

	actor := userFromContext(r.Context())
	s.logger.Info("user deleted", "user_id", id, "deleted_by", actor.ID)
	s.auditLog(audit.ActionDelete, "user", id, actor.ID, nil)
	s.events.Publish(events.New(events.TypeUserDeleted, actor.ID, "user", id, nil))

	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
