package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/barber-availability/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/barber-availability/internal/http/middleware"
	"github.com/wolfman30/barber-availability/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	AvailabilityHandler *handlers.AvailabilityHandler
	BusinessHandler     *handlers.BusinessHandler
	DocsHandler         *handlers.DocsHandler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
	// RateLimiter guards the business routes when set.
	RateLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	if cfg == nil || cfg.AvailabilityHandler == nil || cfg.BusinessHandler == nil {
		panic("router: availability and business handlers are required")
	}
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins, http.MethodGet))
	}

	r.Get("/health", handlers.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.DocsHandler != nil {
		r.Get("/docs", cfg.DocsHandler.UI)
		r.Get("/docs/openapi.json", cfg.DocsHandler.OpenAPI)
	}

	r.Route("/businesses/{businessID}", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}
		r.Get("/", cfg.BusinessHandler.GetBusiness)
		r.Get("/staff", cfg.BusinessHandler.ListStaff)
		r.Route("/services", func(r chi.Router) {
			r.Get("/", cfg.BusinessHandler.ListServices)
			r.Get("/{serviceID}/availability", cfg.AvailabilityHandler.GetServiceAvailability)
			r.Get("/{serviceID}/staff/{staffID}/availability", cfg.AvailabilityHandler.GetStaffAvailability)
		})
	})

	return r
}
