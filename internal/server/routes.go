package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sblp/sblpd/internal/observability"
	"github.com/sblp/sblpd/internal/server/handlers"
	servermw "github.com/sblp/sblpd/internal/server/middleware"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	// Standard health endpoints
	s.router.Get("/health", handlers.HealthHandler)
	s.router.Get("/health/live", handlers.LivenessHandler)
	s.router.Get("/health/ready", handlers.ReadinessHandler)

	// Version endpoint
	s.router.Get("/version", handlers.VersionHandler)

	// Metrics endpoint (in server package to access HandleError)
	s.router.Get("/metrics", MetricsHandler)

	s.registerBumpEndpoints()
}

// registerBumpEndpoints registers the SBLP protocol surface. The flood guard
// and bearer auth run only on these routes; health and metrics stay open.
func (s *Server) registerBumpEndpoints() {
	if s.opts.Bump == nil {
		if observability.ServerLogger != nil {
			observability.ServerLogger.Warn("Bump service not configured, SBLP endpoints disabled")
		}
		return
	}

	s.router.Group(func(r chi.Router) {
		r.Use(servermw.FloodGuard(s.opts.FloodGuard))
		r.Use(s.authMiddleware())

		r.Post("/sblp/request", s.opts.Bump.HandleRequest)
		// Legacy SBLP clients post to the root path.
		r.Post("/", s.opts.Bump.HandleRequest)

		r.Get("/sblp/status", s.opts.Bump.HandleStatus(s.opts.State))
	})

	if observability.ServerLogger != nil {
		observability.ServerLogger.Info("SBLP endpoints registered",
			zap.Bool("auth_enabled", s.opts.AuthToken != ""),
			zap.Float64("flood_guard_rps", s.opts.FloodGuard.RPS))
	}
}

func (s *Server) authMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return servermw.Auth(s.opts.AuthToken, next)
	}
}
