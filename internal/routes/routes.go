package routes

import (
	"log/slog"

	"github.com/BradenHooton/admingate/internal/auth"
	"github.com/BradenHooton/admingate/internal/handlers"
	"github.com/BradenHooton/admingate/internal/metrics"
	"github.com/BradenHooton/admingate/internal/middleware"
	pkghttp "github.com/BradenHooton/admingate/pkg/http"
	"github.com/go-chi/chi/v5"
)

// Dependencies bundles what the route table needs
type Dependencies struct {
	AdminHandler   *handlers.AdminAuthHandler
	HealthHandler  *handlers.HealthHandler
	Verifier       auth.SessionVerifier
	Metrics        *metrics.Metrics
	IPConfig       *pkghttp.IPConfig
	LoginRateLimit middleware.RateLimitConfig
	AllowedOrigins []string
	Logger         *slog.Logger
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, deps Dependencies) {
	router.Get("/health", deps.HealthHandler.Health)

	router.Route("/admin", func(r chi.Router) {
		// Public. Logout stays reachable cross-origin: clearing a session
		// is always allowed.
		r.With(
			middleware.OriginGuard(deps.AllowedOrigins, deps.Logger),
			middleware.LoginRateLimit(deps.LoginRateLimit),
		).Post("/login", deps.AdminHandler.Login)
		r.Get("/login", deps.AdminHandler.LoginStatus)
		r.Post("/logout", deps.AdminHandler.Logout)
		r.Get("/verify", deps.AdminHandler.Verify)

		// Admin session required
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdminSession(deps.Verifier, deps.IPConfig, deps.Logger))
			r.Get("/security-status", deps.AdminHandler.SecurityStatus)
			r.Method("GET", "/metrics", deps.Metrics.Handler())
		})
	})
}
