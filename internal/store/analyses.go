package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/waddle/internal/analysis"
	"github.com/MikeSquared-Agency/waddle/internal/calls"
)

var callColumns = []string{
	"analysis_id", "call_id", "secondary_id", "start_time", "end_time",
	"duration_seconds", "weekday", "caller", "terminator",
}

// SaveAnalysis writes an analysis and its call table in one transaction.
func (s *Store) SaveAnalysis(ctx context.Context, a *analysis.Analysis) error {
	stats, err := json.Marshal(a.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	summary, err := json.Marshal(a.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO waddle_analyses (id, source, partner_label, partner_username, partner_index, timezone, stats, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.Source, a.Partner.Label, a.Partner.Username, a.Partner.Index, a.Timezone,
		string(stats), string(summary), a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"waddle_calls"}, callColumns,
		pgx.CopyFromSlice(len(a.Calls), func(i int) ([]any, error) {
			c := a.Calls[i]
			return []any{a.ID, c.CallID, c.ID, c.StartTime, c.EndTime, c.Duration, c.Weekday, c.Caller, c.Terminator}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy calls: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetAnalysis loads an analysis with its call table. Times come back in the
// analysis timezone.
func (s *Store) GetAnalysis(ctx context.Context, id uuid.UUID) (*analysis.Analysis, error) {
	var (
		a              analysis.Analysis
		stats, summary []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, source, partner_label, partner_username, partner_index, timezone, stats, summary, created_at
		FROM waddle_analyses WHERE id = $1`, id,
	).Scan(&a.ID, &a.Source, &a.Partner.Label, &a.Partner.Username, &a.Partner.Index, &a.Timezone,
		&stats, &summary, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, analysis.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	if err := json.Unmarshal(stats, &a.Stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	if err := json.Unmarshal(summary, &a.Summary); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT call_id, secondary_id, start_time, end_time, duration_seconds, weekday, caller, terminator
		FROM waddle_calls WHERE analysis_id = $1
		ORDER BY start_time, call_id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("get calls: %w", err)
	}
	defer rows.Close()

	loc, _ := calls.LoadLocation(a.Timezone)
	for rows.Next() {
		var (
			c       calls.Call
			weekday int16
		)
		if err := rows.Scan(&c.CallID, &c.ID, &c.StartTime, &c.EndTime, &c.Duration, &weekday, &c.Caller, &c.Terminator); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		c.Weekday = int(weekday)
		c.StartTime = c.StartTime.In(loc)
		c.EndTime = c.EndTime.In(loc)
		a.Calls = append(a.Calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}
	return &a, nil
}

// DeleteAnalysis removes an analysis and its calls.
func (s *Store) DeleteAnalysis(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM waddle_analyses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return analysis.ErrNotFound
	}
	return nil
}
