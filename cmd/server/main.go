// Package main is the entry point for the Gossip server.
//
// main only assembles things: configuration, the logger and the store. All
// behaviour lives in internal/.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gossip-stories/gossip/internal/config"
	"github.com/gossip-stories/gossip/internal/repository"
	"github.com/gossip-stories/gossip/internal/repository/postgres"
	"github.com/gossip-stories/gossip/internal/repository/sqlite"
	"github.com/gossip-stories/gossip/internal/server"
)

func main() {
	// === 1. CONFIGURATION ===
	// .env is optional; real environment variables win over it.
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// === 2. LOGGING ===
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// === 3. STORE ===
	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store",
			slog.String("driver", cfg.DBDriver),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// === 4. SERVER ===
	srv, err := server.New(cfg, logger, store)
	if err != nil {
		store.Close()
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM and closes the store on the way out.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func openStore(cfg config.Config, logger *slog.Logger) (repository.Store, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		// Covers the connection retries in postgres.New.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return postgres.New(ctx, cfg.DatabaseURL, logger)

	default:
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
		return sqlite.New(cfg.DBPath)
	}
}
