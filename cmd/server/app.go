package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/tokengate/internal/api"
	"github.com/phrazzld/tokengate/internal/api/middleware"
	"github.com/phrazzld/tokengate/internal/config"
	"github.com/phrazzld/tokengate/internal/platform/metrics"
	"github.com/phrazzld/tokengate/internal/platform/postgres"
	"github.com/phrazzld/tokengate/internal/service/auth"
	"github.com/phrazzld/tokengate/internal/store"
)

// application holds the shared dependencies of the server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore   store.UserStore
	authService *auth.Service
	metrics     *metrics.Metrics
	limits      api.RateLimits
}

// newApplication wires stores and services from configuration. db must be
// open; the application does not own it.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	tokens, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	limits, err := newRateLimits(cfg.RateLimit)
	if err != nil {
		return nil, err
	}

	users := postgres.NewPostgresUserStore(db, cfg.Auth.BcryptCost, logger)
	lookup := auth.NewStoreUserLookup(users, auth.NewBcryptVerifier(cfg.Auth.BcryptCost))

	return &application{
		config:      cfg,
		logger:      logger,
		db:          db,
		userStore:   users,
		authService: auth.NewService(tokens, lookup, lookup),
		metrics:     metrics.New(),
		limits:      limits,
	}, nil
}

func newRateLimits(cfg config.RateLimitConfig) (api.RateLimits, error) {
	window, err := config.ParseLifetime(cfg.Window)
	if err != nil {
		return api.RateLimits{}, fmt.Errorf("invalid rate limit window: %w", err)
	}
	authWindow, err := config.ParseLifetime(cfg.AuthWindow)
	if err != nil {
		return api.RateLimits{}, fmt.Errorf("invalid auth rate limit window: %w", err)
	}
	strictWindow, err := config.ParseLifetime(cfg.StrictWindow)
	if err != nil {
		return api.RateLimits{}, fmt.Errorf("invalid strict rate limit window: %w", err)
	}

	return api.RateLimits{
		General: middleware.NewRateLimiter("general", cfg.MaxRequests, window),
		Auth:    middleware.NewRateLimiter("auth", cfg.AuthMaxRequests, authWindow),
		Strict:  middleware.NewRateLimiter("strict", cfg.StrictMaxRequests, strictWindow),
	}, nil
}

// setupRouter creates the HTTP handler for the application.
func (app *application) setupRouter() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:  app.logger,
		Auth:    app.authService,
		Users:   app.userStore,
		Metrics: app.metrics,
		Limits:  app.limits,
		Ping:    app.db.PingContext,

		TrustProxyHeaders: app.config.Server.TrustProxyHeaders,
	})
}
