// Package db owns the PostgreSQL connection pool and the links table schema.
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linkcut/linkcut/internal/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS links (
	id uuid PRIMARY KEY,
	code varchar(8) NOT NULL,
	long_url text NOT NULL,
	click_count bigint NOT NULL DEFAULT 0,
	last_clicked timestamptz,
	created_at timestamptz NOT NULL DEFAULT now(),
	CONSTRAINT links_code_unique UNIQUE (code)
);

CREATE INDEX IF NOT EXISTS idx_links_created_at ON links (created_at DESC);
`

// Connect establishes a pgx connection pool using the database configuration.
func Connect(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns

	logger.Info("connecting to database",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Name,
	)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")

	return pool, nil
}

// Migrate creates the links table and its indexes if they do not exist.
// Safe to run on every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
