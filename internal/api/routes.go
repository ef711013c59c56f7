package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes (no auth required)
		r.Get("/health", h.Health)

		// Protected routes (auth required)
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.apiKey))

			r.Post("/metrics", h.ComputeMetrics)

			r.Route("/athletes/{id}", func(r chi.Router) {
				r.Get("/load", h.LoadHistory)
				r.Post("/load/days", h.ExtendLoad)
				r.Get("/projection", h.Projection)
				r.Post("/profile", h.Profile)
				r.Put("/ftp", h.SetFTP)
				r.Post("/events", h.CreateEvent)
				r.Get("/plans", h.ListPlans)
			})

			r.Route("/plans", func(r chi.Router) {
				r.Post("/", h.CreatePlan)
				r.Get("/{id}", h.GetPlan)
				r.Post("/{id}/activate", h.ActivatePlan)
			})

			r.Route("/plan-days/{id}", func(r chi.Router) {
				r.Post("/complete", h.CompleteDay)
				r.Post("/skip", h.SkipDay)
				r.Post("/reschedule", h.RescheduleDay)
				r.Post("/annotate", h.AnnotateDay)
			})
		})
	})

	return r
}
