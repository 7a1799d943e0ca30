package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS waddle_analyses (
		id               UUID PRIMARY KEY,
		source           TEXT NOT NULL,
		partner_label    TEXT NOT NULL,
		partner_username TEXT NOT NULL,
		partner_index    INTEGER NOT NULL,
		timezone         TEXT NOT NULL,
		stats            JSONB NOT NULL,
		summary          JSONB NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS waddle_calls (
		analysis_id      UUID NOT NULL REFERENCES waddle_analyses(id) ON DELETE CASCADE,
		call_id          TEXT NOT NULL,
		secondary_id     TEXT NOT NULL,
		start_time       TIMESTAMPTZ NOT NULL,
		end_time         TIMESTAMPTZ NOT NULL,
		duration_seconds DOUBLE PRECISION NOT NULL,
		weekday          SMALLINT NOT NULL,
		caller           TEXT NOT NULL,
		terminator       TEXT NOT NULL,
		PRIMARY KEY (analysis_id, call_id)
	)`,
	`CREATE INDEX IF NOT EXISTS waddle_calls_start_idx ON waddle_calls (analysis_id, start_time)`,
}

// Migrate creates the tables if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
