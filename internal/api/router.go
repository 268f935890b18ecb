package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/tokengate/internal/api/middleware"
	"github.com/phrazzld/tokengate/internal/api/shared"
	"github.com/phrazzld/tokengate/internal/platform/metrics"
	"github.com/phrazzld/tokengate/internal/store"
)

// Service is what the router needs from the auth service.
// *auth.Service implements it.
type Service interface {
	AuthService
	middleware.AccessVerifier
}

// RateLimits holds the three request budgets: General for every API route,
// Auth for register and login, Strict for refresh.
type RateLimits struct {
	General *middleware.RateLimiter
	Auth    *middleware.RateLimiter
	Strict  *middleware.RateLimiter
}

// RouterConfig carries the router's dependencies.
type RouterConfig struct {
	Logger  *slog.Logger
	Auth    Service
	Users   store.UserStore
	Metrics *metrics.Metrics
	Limits  RateLimits

	// Ping reports database health for /health. Optional.
	Ping func(ctx context.Context) error

	// TrustProxyHeaders makes the client address, and so the rate limit
	// key, come from X-Forwarded-For / X-Real-IP instead of the connection.
	TrustProxyHeaders bool
}

// NewRouter creates the application router with all routes and middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Trace(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	authHandler := NewAuthHandler(cfg.Auth, cfg.Users, cfg.Metrics)
	userHandler := NewUserHandler(cfg.Users, cfg.Metrics)
	authMiddleware := middleware.NewAuthMiddleware(cfg.Auth, cfg.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Use(limit(cfg.Limits.General))

		r.Route("/auth", func(r chi.Router) {
			r.With(limit(cfg.Limits.Auth)).Post("/register", authHandler.Register)
			r.With(limit(cfg.Limits.Auth)).Post("/login", authHandler.Login)
			r.With(limit(cfg.Limits.Strict)).Post("/refresh", authHandler.Refresh)
			r.Post("/verify", authHandler.Verify)
			r.Get("/me", authHandler.Me)
			r.Post("/logout", authHandler.Logout)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.With(middleware.RequireOwnership("id")).Get("/{id}", userHandler.GetUser)
		})
	})

	r.Get("/health", healthHandler(cfg.Ping))
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	return r
}

func limit(l *middleware.RateLimiter) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return l.Handler
}

func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable,
					"SERVICE_UNAVAILABLE", "Database unavailable", err)
				return
			}
		}
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}
