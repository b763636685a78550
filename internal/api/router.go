// Package api provides the HTTP API for StormAdvisor.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/stormadvisor/stormadvisor/internal/advisory"
	"github.com/stormadvisor/stormadvisor/internal/api/handler"
	"github.com/stormadvisor/stormadvisor/internal/api/middleware"
	"github.com/stormadvisor/stormadvisor/internal/provider/resilience"
	"github.com/stormadvisor/stormadvisor/internal/transit"
	"github.com/stormadvisor/stormadvisor/internal/weather"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version         string
	BuildTime       string
	Logger          zerolog.Logger
	ServiceName     string
	Metrics         *middleware.Metrics
	AdvisoryService *advisory.Service
	TransitService  *transit.Service
	WeatherService  *weather.Service
	Registry        *resilience.Registry
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "stormadvisor-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry, cfg.WeatherService, cfg.TransitService)
	advisoryHandler := handler.NewAdvisoryHandler(cfg.AdvisoryService)
	transitHandler := handler.NewTransitHandler(cfg.TransitService)

	// Create rate limit middleware for different endpoint categories
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 10 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Advisory endpoint - fans out to every upstream plus the reasoning
		// model, strict rate limiting
		r.With(expensiveRateLimit).Post("/advisories:evaluate", advisoryHandler.Evaluate)

		// Transit status endpoint - standard rate limiting
		r.With(standardRateLimit).Get("/transit/status", transitHandler.GetStatus)
	})

	return r
}
