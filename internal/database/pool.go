package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felicia-viz/viz-relay/internal/config"
)

// Schema creates the journal tables. Safe to run on every start.
const Schema = `
CREATE TABLE IF NOT EXISTS topic_events (
    id          BIGSERIAL PRIMARY KEY,
    topic       TEXT        NOT NULL,
    type_name   TEXT        NOT NULL,
    status      TEXT        NOT NULL,
    event       TEXT        NOT NULL,
    observed_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS topic_events_topic_idx ON topic_events (topic, observed_at);

CREATE TABLE IF NOT EXISTS client_sessions (
    connection_id   UUID PRIMARY KEY,
    remote_addr     TEXT        NOT NULL,
    connected_at    TIMESTAMPTZ NOT NULL,
    disconnected_at TIMESTAMPTZ
);
`

// Connect creates a connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DBConfig, appName string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(BuildConnString(cfg, appName))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// EnsureSchema applies Schema.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply journal schema: %w", err)
	}
	return nil
}
