// Package api provides the read-only ops HTTP surface for the collector.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/pribilofwx/forecastd/internal/api/handler"
	"github.com/pribilofwx/forecastd/internal/api/middleware"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	DataDir   string
	Logger    zerolog.Logger
}

// NewRouter creates a chi router with the ops routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RateLimitByIP(middleware.StandardRateLimit))

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.DataDir)

	r.Get("/health", opsHandler.HealthCheck)
	r.Get("/status", opsHandler.Status)
	r.Get("/latest", opsHandler.Latest)

	return r
}
