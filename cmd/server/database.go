package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/phrazzld/tokengate/internal/config"
	"github.com/phrazzld/tokengate/internal/redact"
)

const pingTimeout = 5 * time.Second

// openDatabase opens a pgx-backed pool configured from cfg without connecting.
func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	lifetime, err := config.ParseLifetime(cfg.ConnMaxLifetime)
	if err != nil {
		return nil, fmt.Errorf("invalid connection lifetime: %w", err)
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %s", redact.Error(err))
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(lifetime)
	return db, nil
}

// setupAppDatabase opens the pool and verifies the database is reachable.
func setupAppDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %s", redact.Error(err))
	}

	logger.Info("database connection established",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns))
	return db, nil
}
