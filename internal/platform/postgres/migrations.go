package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationTableName is the table goose uses to track applied migrations.
const migrationTableName = "schema_migrations"

// slogGooseLogger adapts slog to the goose logger interface.
type slogGooseLogger struct{}

func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error("migration fatal error", "message", fmt.Sprintf(strings.TrimSpace(format), v...))
}

func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	slog.Info("migration", "message", fmt.Sprintf(strings.TrimSpace(format), v...))
}

// RunMigrations executes the given goose command ("up", "down",
// "status") against the embedded migration files.
func RunMigrations(ctx context.Context, db *sql.DB, command string) error {
	goose.SetLogger(&slogGooseLogger{})
	goose.SetBaseFS(migrationsFS)
	goose.SetTableName(migrationTableName)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	switch command {
	case "up":
		if err := goose.UpContext(ctx, db, "migrations"); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	case "down":
		if err := goose.DownContext(ctx, db, "migrations"); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
	case "status":
		if err := goose.StatusContext(ctx, db, "migrations"); err != nil {
			return fmt.Errorf("failed to report migration status: %w", err)
		}
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}

	return nil
}
