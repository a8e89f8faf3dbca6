package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tasklane/tasklane-core/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
// Paths follow the legacy API.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	// Public
	r.Get("/health", s.handleHealth)
	if s.metricsCfg.Enabled && s.prom != nil {
		r.Method(http.MethodGet, s.metricsCfg.Path, s.prom.Handler())
	}
	r.Post("/auth/login", s.handleLogin)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(s.protect)

		r.Post("/auth/logout", s.handleLogout)
		r.Get("/project/my-projects", s.handleMyProjects)
		r.Get("/tasks/search", s.handleSearchTasks)
		r.Get("/tasks/my-tasks", s.handleMyTasks)
		r.Patch("/tasks/update-status/{taskId}", s.handleUpdateTaskStatus)

		r.Group(func(r chi.Router) {
			r.Use(s.requireCapability(auth.CapAdminOnly))

			r.Post("/auth/register", s.handleRegister)
			r.Get("/auth/getAllUser", s.handleListUsers)
			r.Put("/auth/update/{id}", s.handleUpdateUser)
			r.Delete("/auth/delete/{id}", s.handleDeleteUser)

			r.Route("/company", func(r chi.Router) {
				r.Post("/create", s.handleCreateCompany)
				r.Get("/viewAllCompany", s.handleListCompanies)
				r.Get("/viewById/{id}", s.handleGetCompany)
				r.Put("/update/{id}", s.handleUpdateCompany)
				r.Delete("/delete/{id}", s.handleDeleteCompany)
			})

			r.Get("/system/metrics", s.handleSystemMetrics)
			r.Get("/audit/logs", s.handleListAuditLogs)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireCapability(auth.CapAdminOrManager))

			r.Post("/project/create", s.handleCreateProject)
			r.Get("/project/getAllProject", s.handleListProjects)
			r.Put("/project/update/{id}", s.handleUpdateProject)
			r.Delete("/project/delete/{id}", s.handleDeleteProject)

			r.Post("/tasks/create", s.handleCreateTask)
			r.Get("/tasks/getAllTasks", s.handleListTasks)
			r.Put("/tasks/update/{taskId}", s.handleUpdateTask)
			r.Delete("/tasks/delete/{taskId}", s.handleDeleteTask)
		})
	})

	return r
}
