package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/albapepper/safecheck/internal/api/handler"
	"github.com/albapepper/safecheck/internal/config"
	"github.com/albapepper/safecheck/internal/store"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(s store.Store, runner handler.JobRunner, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Request-Id"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// --- Handler dependencies ---
	h := handler.New(s, runner, logger)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks and metrics are not rate limited.
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimitEnabled {
			r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
		}

		// Jobs
		r.With(RequireBearer(cfg.JobTriggerToken)).Post("/jobs/inactivity-check", h.RunInactivityCheck)

		// Users
		r.Post("/users", h.RegisterUser)
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Post("/check-ins", h.CheckIn)
			r.Get("/status", h.GetStatus)
			r.Get("/contacts", h.ListContacts)
			r.Post("/contacts", h.AddContact)
			r.Delete("/contacts/{contactID}", h.DeleteContact)
		})
	})

	return r
}
