// Package main implements the entry point for the Taksir API server,
// which accepts primary-school assessment submissions and produces
// LLM-backed performance analyses in the background.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"

	"github.com/didiklab/taksir-api/internal/config"
	"github.com/didiklab/taksir-api/internal/platform/logger"
	"github.com/didiklab/taksir-api/internal/platform/postgres"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, status) and exit")
	flag.Parse()

	if err := run(*migrateCmd); err != nil {
		log.Fatalf("taksir-api: %v", err)
	}
}

// run loads configuration, wires the application, and either executes
// a migration command or starts the server.
func run(migrateCmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server)
	slog.SetDefault(appLogger)

	appLogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := setupDatabase(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	if migrateCmd != "" {
		defer func() {
			if err := db.Close(); err != nil {
				appLogger.Error("error closing database connection", "error", err)
			}
		}()
		appLogger.Info("executing migration command", "command", migrateCmd)
		return postgres.RunMigrations(context.Background(), db, migrateCmd)
	}

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		// The application owns the db handle from here on, but wiring
		// failed before Run, so close it directly.
		if closeErr := db.Close(); closeErr != nil {
			appLogger.Error("error closing database connection", "error", closeErr)
		}
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
