package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/phrazzld/tokengate/internal/api/middleware"
	"github.com/phrazzld/tokengate/internal/config"
)

const (
	readHeaderTimeout = 10 * time.Second
	evictionInterval  = time.Minute
)

// startHTTPServer listens on the configured port and serves until ctx is
// cancelled.
func (app *application) startHTTPServer(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", app.config.Server.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return app.serve(ctx, ln)
}

// serve runs the HTTP server on ln and shuts it down gracefully once ctx is
// done, waiting at most the configured shutdown timeout for in-flight
// requests.
func (app *application) serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	limiterCtx, stopLimiters := context.WithCancel(ctx)
	defer stopLimiters()
	for _, l := range []*middleware.RateLimiter{app.limits.General, app.limits.Auth, app.limits.Strict} {
		if l != nil {
			go l.Run(limiterCtx, evictionInterval)
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", slog.String("addr", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		app.logger.Info("shutting down server")
	}

	shutdownTimeout, err := config.ParseLifetime(app.config.Server.ShutdownTimeout)
	if err != nil {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown failed", slog.String("error", err.Error()))
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.logger.Info("server shutdown completed")
	return nil
}
