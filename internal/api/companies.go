package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tasklane/tasklane-core/internal/audit"
	"github.com/tasklane/tasklane-core/internal/company"
	"github.com/tasklane/tasklane-core/internal/events"
)

type companyRequest struct {
	CompanyName string `json:"companyName"`
	Domain      string `json:"domain"`
}

// handleCreateCompany creates a company and moves the calling admin into it.
func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var req companyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ctx := r.Context()
	actor := userFromContext(ctx)
	c := &company.Company{Name: req.CompanyName, Domain: req.Domain}
	if err := s.companies.Create(ctx, c); err != nil {
		if isCompanyValidation(err) {
			writeValidationError(w, err)
			return
		}
		s.logger.Error("create company failed", "error", err)
		writeInternalError(w, "failed to create company", err)
		return
	}

	if err := s.users.SetCompany(ctx, actor.ID, c.ID); err != nil {
		s.logger.Error("assigning creator to company failed", "user_id", actor.ID, "company_id", c.ID, "error", err)
		writeInternalError(w, "failed to assign company", err)
		return
	}

	s.logger.Info("company created", "company_id", c.ID, "created_by", actor.ID)
	s.auditLog(audit.ActionCreate, "company", c.ID, actor.ID, map[string]any{"name": c.Name, "domain": c.Domain})
	s.events.Publish(events.New(events.TypeCompanyCreated, actor.ID, "company", c.ID, nil))

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Company created successfully",
		"company": c,
		"user": map[string]string{
			"id":        actor.ID,
			"companyId": c.ID,
		},
	})
}

// handleListCompanies returns every company.
func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.companies.List(r.Context())
	if err != nil {
		s.logger.Error("list companies failed", "error", err)
		writeInternalError(w, "failed to list companies", err)
		return
	}
	if companies == nil {
		companies = []company.Company{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Companies fetched successfully",
		"companies": companies,
	})
}

// handleGetCompany returns a single company.
func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := s.companies.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, company.ErrCompanyNotFound) {
			writeNotFound(w, "Company not found")
			return
		}
		s.logger.Error("get company failed", "company_id", id, "error", err)
		writeInternalError(w, "failed to get company", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Company found",
		"company": c,
	})
}

// handleUpdateCompany patches the non-empty fields of the request.
func (s *Server) handleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req companyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ctx := r.Context()
	c, err := s.companies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, company.ErrCompanyNotFound) {
			writeNotFound(w, "Company not found")
			return
		}
		s.logger.Error("get company failed", "company_id", id, "error", err)
		writeInternalError(w, "failed to update company", err)
		return
	}

	if v := strings.TrimSpace(req.CompanyName); v != "" {
		c.Name = v
	}
	if v := strings.TrimSpace(req.Domain); v != "" {
		c.Domain = v
	}

	if err := s.companies.Update(ctx, c); err != nil {
		switch {
		case isCompanyValidation(err):
			writeValidationError(w, err)
		case errors.Is(err, company.ErrCompanyNotFound):
			writeNotFound(w, "Company not found")
		default:
			s.logger.Error("update company failed", "company_id", id, "error", err)
			writeInternalError(w, "failed to update company", err)
		}
		return
	}

	actor := userFromContext(ctx)
	s.auditLog(audit.ActionUpdate, "company", c.ID, actor.ID, map[string]any{"name": c.Name, "domain": c.Domain})
	s.events.Publish(events.New(events.TypeCompanyUpdated, actor.ID, "company", c.ID, nil))

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Company updated successfully",
		"company": c,
	})
}

// handleDeleteCompany removes a company. Its users and projects keep their
// now dangling companyId.
func (s *Server) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	c, err := s.companies.GetByID(ctx, id)
	if err == nil {
		err = s.companies.Delete(ctx, id)
	}
	if err != nil {
		if errors.Is(err, company.ErrCompanyNotFound) {
			writeNotFound(w, "Company not found")
			return
		}
		s.logger.Error("delete company failed", "company_id", id, "error", err)
		writeInternalError(w, "failed to delete company", err)
		return
	}

	actor := userFromContext(ctx)
	s.logger.Info("company deleted", "company_id", id, "deleted_by", actor.ID)
	s.auditLog(audit.ActionDelete, "company", id, actor.ID, nil)
	s.events.Publish(events.New(events.TypeCompanyDeleted, actor.ID, "company", id, nil))

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Company deleted successfully",
		"company": c,
	})
}

func isCompanyValidation(err error) bool {
	return errors.Is(err, company.ErrInvalidName) || errors.Is(err, company.ErrInvalidDomain)
}
