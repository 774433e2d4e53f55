package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{`
	CREATE TABLE IF NOT EXISTS taboo_cards (
		word            TEXT PRIMARY KEY,
		forbidden_terms TEXT[] NOT NULL DEFAULT '{}'
	)`, `
	CREATE TABLE IF NOT EXISTS taboo_turns_history (
		id             BIGSERIAL PRIMARY KEY,
		room_code      TEXT NOT NULL,
		describer_id   TEXT NOT NULL,
		describer_name TEXT NOT NULL,
		word           TEXT NOT NULL,
		reason         TEXT NOT NULL,
		scored         BOOLEAN NOT NULL DEFAULT FALSE,
		ended_at       TIMESTAMPTZ NOT NULL
	)`,
}

// Connect opens a pool on connStr and verifies it with a ping.
func Connect(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return pool, nil
}

// Migrate creates the card and turn history tables if they do not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
