package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tasklane/tasklane-core/internal/audit"
	"github.com/tasklane/tasklane-core/internal/auth"
	"github.com/tasklane/tasklane-core/internal/events"
	"github.com/tasklane/tasklane-core/internal/project"
	"github.com/tasklane/tasklane-core/internal/task"
)

const msgInvalidStatus = "Invalid status. Allowed: 1, 2, 3"

// taskRequest is the body of create and update. The assignee and project
// are named, not referenced by ID.
type taskRequest struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Status      task.Status `json:"status"`
	UserName    string      `json:"userName"`
	ProjectName string      `json:"projectName"`
}

type statusRequest struct {
	Status task.Status `json:"status"`
}

// handleCreateTask creates a task for the named user in the named project.
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" ||
		req.Status == 0 || req.UserName == "" || req.ProjectName == "" {
		writeBadRequest(w, "All fields are required")
		return
	}
	if !req.Status.Valid() {
		writeBadRequest(w, msgInvalidStatus)
		return
	}

	ctx := r.Context()
	assignee, ok := s.lookupUserByName(ctx, w, req.UserName, "User not found")
	if !ok {
		return
	}
	proj, ok := s.lookupProjectByName(ctx, w, req.ProjectName)
	if !ok {
		return
	}

	t := &task.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		AssignedTo:  assignee.ID,
		ProjectID:   proj.ID,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		if isTaskValidation(err) {
			writeValidationError(w, err)
			return
		}
		s.logger.Error("create task failed", "error", err)
		writeInternalError(w, "failed to create task", err)
		return
	}

	actor := userFromContext(ctx)
	s.logger.Info("task created", "task_id", t.ID, "assigned_to", t.AssignedTo, "created_by", actor.ID)
	s.auditLog(audit.ActionCreate, "task", t.ID, actor.ID, map[string]any{
		"title":      t.Title,
		"assignedTo": t.AssignedTo,
		"projectId":  t.ProjectID,
	})
	s.events.Publish(events.New(events.TypeTaskCreated, actor.ID, "task", t.ID, map[string]any{
		"assignedTo": t.AssignedTo,
		"projectId":  t.ProjectID,
	}))

	writeJSON(w, http.StatusCreated, t)
}

// handleListTasks returns one page of all tasks, newest first.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	pg := parsePage(r)
	s.writeTaskPage(w, r, pg, task.Filter{Limit: pg.Limit, Offset: pg.Offset()})
}

// handleSearchTasks filters by status and assignee userName.
func (s *Server) handleSearchTasks(w http.ResponseWriter, r *http.Request) {
	pg := parsePage(r)
	filter := task.Filter{Limit: pg.Limit, Offset: pg.Offset()}
	q := r.URL.Query()

	if name := q.Get("userName"); name != "" {
		u, ok := s.lookupUserByName(r.Context(), w, name, "User not found for assignedTo filter")
		if !ok {
			return
		}
		filter.AssignedTo = u.ID
	}
	if v := q.Get("status"); v != "" {
		st, err := task.ParseStatus(v)
		if err != nil {
			writeBadRequest(w, msgInvalidStatus)
			return
		}
		filter.Status = st
	}

	s.writeTaskPage(w, r, pg, filter)
}

func (s *Server) writeTaskPage(w http.ResponseWriter, r *http.Request, pg page, filter task.Filter) {
	tasks, total, err := s.tasks.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("list tasks failed", "error", err)
		writeInternalError(w, "failed to list tasks", err)
		return
	}
	if tasks == nil {
		tasks = []task.Task{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"totalTasks":  total,
		"totalPages":  pg.TotalPages(total),
		"currentPage": pg.Number,
		"tasks":       tasks,
	})
}

// handleMyTasks returns the tasks assigned to the caller.
func (s *Server) handleMyTasks(w http.ResponseWriter, r *http.Request) {
	actor := userFromContext(r.Context())
	tasks, err := s.tasks.ListByAssignee(r.Context(), actor.ID)
	if err != nil {
		s.logger.Error("list own tasks failed", "user_id", actor.ID, "error", err)
		writeInternalError(w, "failed to list tasks", err)
		return
	}
	if len(tasks) == 0 {
		writeNotFound(w, "No tasks found for this user")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// handleUpdateTaskStatus lets the assignee, and only the assignee, move a
// task between statuses. The task is loaded before the ownership check so
// a missing task is a 404 for everyone.
func (s *Server) handleUpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "taskId")
	ctx := r.Context()

	t, ok := s.lookupTask(ctx, w, id)
	if !ok {
		return
	}
	if !s.authorize(w, r, auth.CapUpdateOwnTask, t) {
		return
	}

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if !req.Status.Valid() {
		writeBadRequest(w, msgInvalidStatus)
		return
	}

	previous := t.Status
	updated, err := s.tasks.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		if errors.Is(err, task.ErrTaskNotFound) {
			writeNotFound(w, "Task not found")
			return
		}
		s.logger.Error("update task status failed", "task_id", id, "error", err)
		writeInternalError(w, "failed to update task status", err)
		return
	}

	actor := userFromContext(ctx)
	s.auditLog(audit.ActionStatusChange, "task", id, actor.ID, map[string]any{
		"from": previous.String(),
		"to":   updated.Status.String(),
	})
	s.events.Publish(events.New(events.TypeTaskStatusChanged, actor.ID, "task", id, map[string]any{
		"from": int(previous),
		"to":   int(updated.Status),
	}))

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Task status updated successfully",
		"task":    updated,
	})
}

// handleUpdateTask patches the provided fields. A new assignee or project
// is resolved by name.
func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "taskId")
	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Status != 0 && !req.Status.Valid() {
		writeBadRequest(w, msgInvalidStatus)
		return
	}

	ctx := r.Context()
	t, ok := s.lookupTask(ctx, w, id)
	if !ok {
		return
	}

	changes := task.Changes{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	}
	if req.UserName != "" {
		u, ok := s.lookupUserByName(ctx, w, req.UserName, "Assigned user not found")
		if !ok {
			return
		}
		changes.AssignedTo = u.ID
	}
	if req.ProjectName != "" {
		p, ok := s.lookupProjectByName(ctx, w, req.ProjectName)
		if !ok {
			return
		}
		changes.ProjectID = p.ID
	}
	t.Apply(changes)

	if err := s.tasks.Update(ctx, t); err != nil {
		switch {
		case isTaskValidation(err):
			writeValidationError(w, err)
		case errors.Is(err, task.ErrTaskNotFound):
			writeNotFound(w, "Task not found")
		default:
			s.logger.Error("update task failed", "task_id", id, "error", err)
			writeInternalError(w, "failed to update task", err)
		}
		return
	}

	actor := userFromContext(ctx)
	s.auditLog(audit.ActionUpdate, "task", t.ID, actor.ID, map[string]any{"status": t.Status.String()})
	s.events.Publish(events.New(events.TypeTaskUpdated, actor.ID, "task", t.ID, nil))

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Task updated successfully",
		"task":    t,
	})
}

// handleDeleteTask removes a task.
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "taskId")
	if err := s.tasks.Delete(r.Context(), id); err != nil {
		if errors.Is(err, task.ErrTaskNotFound) {
			writeNotFound(w, "Task not found")
			return
		}
		s.logger.Error("delete task failed", "task_id", id, "error", err)
		writeInternalError(w, "failed to delete task", err)
		return
	}

	actor := userFromContext(r.Context())
	s.auditLog(audit.ActionDelete, "task", id, actor.ID, nil)
	s.events.Publish(events.New(events.TypeTaskDeleted, actor.ID, "task", id, nil))

	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}

// lookupTask loads a task or writes 404/500.
func (s *Server) lookupTask(ctx context.Context, w http.ResponseWriter, id string) (*task.Task, bool) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, task.ErrTaskNotFound) {
			writeNotFound(w, "Task not found")
			return nil, false
		}
		s.logger.Error("get task failed", "task_id", id, "error", err)
		writeInternalError(w, "failed to load task", err)
		return nil, false
	}
	return t, true
}

// lookupUserByName resolves a userName or writes notFound as a 404.
func (s *Server) lookupUserByName(ctx context.Context, w http.ResponseWriter, name, notFound string) (*auth.User, bool) {
	u, err := s.users.GetByUserName(ctx, name)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeNotFound(w, notFound)
			return nil, false
		}
		s.logger.Error("user lookup failed", "user_name", name, "error", err)
		writeInternalError(w, "failed to resolve user", err)
		return nil, false
	}
	return u, true
}

// lookupProjectByName resolves a project name or writes 404/500.
func (s *Server) lookupProjectByName(ctx context.Context, w http.ResponseWriter, name string) (*project.Project, bool) {
	p, err := s.projects.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			writeNotFound(w, "Project not found")
			return nil, false
		}
		s.logger.Error("project lookup failed", "project_name", name, "error", err)
		writeInternalError(w, "failed to resolve project", err)
		return nil, false
	}
	return p, true
}

func isTaskValidation(err error) bool {
	return errors.Is(err, task.ErrInvalidTask) || errors.Is(err, task.ErrInvalidStatus)
}
