package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tasklane/tasklane-core/internal/audit"
	"github.com/tasklane/tasklane-core/internal/events"
	"github.com/tasklane/tasklane-core/internal/project"
)

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// handleCreateProject creates a project owned by the caller. The project
// inherits the caller's company.
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ctx := r.Context()
	actor := userFromContext(ctx)
	p := &project.Project{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   actor.ID,
		CompanyID:   actor.CompanyID,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		if isProjectValidation(err) {
			writeValidationError(w, err)
			return
		}
		s.logger.Error("create project failed", "error", err)
		writeInternalError(w, "failed to create project", err)
		return
	}

	s.logger.Info("project created", "project_id", p.ID, "created_by", actor.ID)
	s.auditLog(audit.ActionCreate, "project", p.ID, actor.ID, map[string]any{"name": p.Name})
	s.events.Publish(events.New(events.TypeProjectCreated, actor.ID, "project", p.ID, map[string]any{
		"companyId": p.CompanyID,
	}))

	writeJSON(w, http.StatusCreated, p)
}

// handleListProjects returns one page of all projects.
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	pg := parsePage(r)
	projects, total, err := s.projects.List(r.Context(), pg.Limit, pg.Offset())
	if err != nil {
		s.logger.Error("list projects failed", "error", err)
		writeInternalError(w, "failed to list projects", err)
		return
	}
	if projects == nil {
		projects = []project.Project{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"currentPage":   pg.Number,
		"totalPages":    pg.TotalPages(total),
		"totalProjects": total,
		"projects":      projects,
	})
}

// handleMyProjects returns the projects created by the caller.
func (s *Server) handleMyProjects(w http.ResponseWriter, r *http.Request) {
	actor := userFromContext(r.Context())
	projects, err := s.projects.ListByCreator(r.Context(), actor.ID)
	if err != nil {
		s.logger.Error("list own projects failed", "user_id", actor.ID, "error", err)
		writeInternalError(w, "failed to list projects", err)
		return
	}
	if projects == nil {
		projects = []project.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

// handleUpdateProject patches name and description.
func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ctx := r.Context()
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			writeNotFound(w, "Project not found")
			return
		}
		s.logger.Error("get project failed", "project_id", id, "error", err)
		writeInternalError(w, "failed to update project", err)
		return
	}

	p.Apply(project.Changes{Name: req.Name, Description: req.Description})
	if err := s.projects.Update(ctx, p); err != nil {
		switch {
		case isProjectValidation(err):
			writeValidationError(w, err)
		case errors.Is(err, project.ErrProjectNotFound):
			writeNotFound(w, "Project not found")
		default:
			s.logger.Error("update project failed", "project_id", id, "error", err)
			writeInternalError(w, "failed to update project", err)
		}
		return
	}

	actor := userFromContext(ctx)
	s.auditLog(audit.ActionUpdate, "project", p.ID, actor.ID, map[string]any{"name": p.Name})
	s.events.Publish(events.New(events.TypeProjectUpdated, actor.ID, "project", p.ID, nil))

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Project updated successfully",
		"project": p,
	})
}

// handleDeleteProject removes a project. Its tasks are kept.
func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.projects.Delete(r.Context(), id); err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			writeNotFound(w, "Project not found")
			return
		}
		s.logger.Error("delete project failed", "project_id", id, "error", err)
		writeInternalError(w, "failed to delete project", err)
		return
	}

	actor := userFromContext(r.Context())
	s.logger.Info("project deleted", "project_id", id, "deleted_by", actor.ID)
	s.auditLog(audit.ActionDelete, "project", id, actor.ID, nil)
	s.events.Publish(events.New(events.TypeProjectDeleted, actor.ID, "project", id, nil))

	writeJSON(w, http.StatusOK, map[string]string{"message": "Project deleted successfully"})
}

func isProjectValidation(err error) bool {
	return errors.Is(err, project.ErrInvalidName) || errors.Is(err, project.ErrInvalidDescription)
}
