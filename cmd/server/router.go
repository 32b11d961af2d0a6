package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/didiklab/taksir-api/internal/api"
	apiMiddleware "github.com/didiklab/taksir-api/internal/api/middleware"
)

// setupRouter configures the application router with all routes and
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	tokenLifetime := time.Duration(app.config.Auth.TokenLifetimeMinutes) * time.Minute
	authHandler := api.NewAuthHandler(
		app.userStore,
		app.jwtService,
		app.passwordVerifier,
		tokenLifetime,
	)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	assessmentHandler := api.NewAssessmentHandler(app.assessmentService)
	importHandler := api.NewImportHandler(app.assessmentService, app.importer)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/assessments", assessmentHandler.CreateAssessment)
			r.Get("/assessments/{id}", assessmentHandler.GetAssessment)
			r.Get("/assessments/{id}/analysis", assessmentHandler.GetAnalysis)
			r.Post("/assessments/import", importHandler.ImportAssessments)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
