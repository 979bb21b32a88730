package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthCheckTimeout bounds the database ping made by /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware. The authentication gate runs on every request
	// before any routing decision is acted on.
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)
	r.Use(s.authenticationGate)

	// Operational endpoints (no auth required)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/usuarios", s.handleRegister)
		r.With(s.loginRateLimitMiddleware).Post("/login", s.handleLogin)

		// Everything else needs a principal
		r.Group(func(r chi.Router) {
			r.Use(s.requirePrincipal)

			r.Get("/eu", s.handleMe)
			r.Get("/atividades", s.handleListActivity)

			r.Route("/quadros", func(r chi.Router) {
				r.Get("/", s.handleListBoards)
				r.Post("/", s.handleCreateBoard)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetBoard)
					r.Delete("/", s.handleDeleteBoard)
					r.Delete("/colunas/{colunaId}", s.handleDeleteColumn)
				})
			})
		})

		// Unknown /api routes are still protected: anonymous callers get 401.
		r.NotFound(s.requirePrincipal(http.HandlerFunc(handleNotFound)).ServeHTTP)
		r.MethodNotAllowed(s.requirePrincipal(http.HandlerFunc(handleMethodNotAllowed)).ServeHTTP)
	})

	return r
}

// handleHealth reports process and database health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := s.db.HealthCheck(ctx); err != nil {
			s.logger.Warn("health check failed", "error", err)
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}

	writeJSON(w, code, map[string]any{
		"status":  status,
		"version": s.version,
	})
}

func handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeNotFound(w, "resource not found")
}

func handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
}
