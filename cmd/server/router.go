package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/slowka/slowka-api/internal/api"
	apiMiddleware "github.com/slowka/slowka-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(
		app.userStore,
		app.jwtService,
		app.passwordVerifier,
		app.config.Auth,
		app.logger,
	)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	reviewHandler := api.NewReviewHandler(app.reviewService, app.logger)
	wordHandler := api.NewWordHandler(app.wordStore, app.logger)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Review flow
			r.Get("/reviews/queue", reviewHandler.GetQueue)
			r.Get("/progress", reviewHandler.GetProgress)
			r.Post("/words/{wordID}/review", reviewHandler.SubmitReview)
			r.Post("/words/{wordID}/enroll", reviewHandler.EnrollWord)
			r.Post("/words/{wordID}/postpone", reviewHandler.Postpone)

			// Vocabulary catalog
			r.Get("/words", wordHandler.ListWords)
			r.Post("/words", wordHandler.CreateWord)
			r.Get("/words/{wordID}", wordHandler.GetWord)
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
