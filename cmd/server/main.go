// Package main implements the entry point for the tokengate server, which
// issues and verifies access/refresh token pairs over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/phrazzld/tokengate/internal/config"
	"github.com/phrazzld/tokengate/internal/platform/logger"
	"github.com/phrazzld/tokengate/internal/platform/postgres"
)

func main() {
	migrate := flag.String("migrate", "",
		"run a migration command ("+strings.Join(postgres.MigrationCommands, "|")+") and exit")
	flag.Parse()

	if err := run(*migrate); err != nil {
		fmt.Fprintf(os.Stderr, "tokengate: %v\n", err)
		os.Exit(1)
	}
}

// run loads configuration, connects to the database and either runs a
// migration command or serves until SIGINT/SIGTERM.
func run(migrateCommand string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := setupAppDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", slog.String("error", err.Error()))
		}
	}()

	if migrateCommand != "" {
		return postgres.Migrate(ctx, db, migrateCommand, log)
	}

	app, err := newApplication(cfg, log, db)
	if err != nil {
		return err
	}
	return app.startHTTPServer(ctx)
}
