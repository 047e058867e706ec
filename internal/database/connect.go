package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"

	"github.com/finpilot/finpilot-api/internal/config"
	"github.com/finpilot/finpilot-api/internal/database/migrations"
	"github.com/finpilot/finpilot-api/internal/logging"
)

// Connect opens the Postgres connection and verifies it with a bounded
// retry policy: cfg.ConnectAttempts attempts with linear backoff
// (attempt * cfg.ConnectBackoff between tries). Each failure is logged
// with its attempt number. Returns an error only after the final attempt.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *logging.Logger) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var pingErr error
	for attempt := 1; attempt <= cfg.ConnectAttempts; attempt++ {
		pingErr = sqlDB.PingContext(ctx)
		if pingErr == nil {
			break
		}

		logger.Warn("database connection attempt failed",
			"attempt", attempt,
			"max_attempts", cfg.ConnectAttempts,
			"error", pingErr.Error(),
		)

		if attempt == cfg.ConnectAttempts {
			break
		}

		backoff := time.Duration(attempt) * cfg.ConnectBackoff
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			sqlDB.Close()
			return nil, ctx.Err()
		}
	}

	if pingErr != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("database unreachable after %d attempts: %w", cfg.ConnectAttempts, pingErr)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return NewBunDB(sqlDB), nil
}

// Migrate applies the embedded goose migrations.
func Migrate(ctx context.Context, db *bun.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db.DB, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
