// Package history keeps a local SQLite log of analyses run from the CLI.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/MikeSquared-Agency/waddle/internal/analysis"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS analyses (
    id            TEXT PRIMARY KEY,
    source        TEXT NOT NULL,
    partner       TEXT NOT NULL,
    timezone      TEXT NOT NULL,
    calls         INTEGER NOT NULL,
    total_seconds REAL NOT NULL,
    created_at    TEXT NOT NULL,
    body          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS analyses_created_idx ON analyses (created_at);

CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);
`

const schemaVersion = "1"

// timeLayout is fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one line of the history listing.
type Entry struct {
	ID           uuid.UUID `json:"id"`
	Source       string    `json:"source"`
	Partner      string    `json:"partner"`
	Timezone     string    `json:"timezone"`
	Calls        int       `json:"calls"`
	TotalSeconds float64   `json:"total_seconds"`
	CreatedAt    time.Time `json:"created_at"`
}

type DB struct {
	db *sql.DB
}

// Open opens or creates the history database at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	if _, err := db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("record schema version: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// SaveAnalysis records a. The full analysis is kept so it can be shown again.
func (d *DB) SaveAnalysis(ctx context.Context, a *analysis.Analysis) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	_, err = d.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO analyses (id, source, partner, timezone, calls, total_seconds, created_at, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.Source, a.Partner.Label, a.Timezone, len(a.Calls), a.Summary.Total.Seconds,
		a.CreatedAt.UTC().Format(timeLayout), string(body),
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// GetAnalysis returns a recorded analysis or analysis.ErrNotFound.
func (d *DB) GetAnalysis(ctx context.Context, id uuid.UUID) (*analysis.Analysis, error) {
	var body string
	err := d.db.QueryRowContext(ctx, "SELECT body FROM analyses WHERE id = ?", id.String()).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, analysis.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}

	var a analysis.Analysis
	if err := json.Unmarshal([]byte(body), &a); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	return &a, nil
}

// DeleteAnalysis forgets a recorded analysis.
func (d *DB) DeleteAnalysis(ctx context.Context, id uuid.UUID) error {
	res, err := d.db.ExecContext(ctx, "DELETE FROM analyses WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}
	if n == 0 {
		return analysis.ErrNotFound
	}
	return nil
}

// List returns the newest entries first.
func (d *DB) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, source, partner, timezone, calls, total_seconds, created_at
		FROM analyses ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e           Entry
			id, created string
		)
		if err := rows.Scan(&id, &e.Source, &e.Partner, &e.Timezone, &e.Calls, &e.TotalSeconds, &created); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse id %q: %w", id, err)
		}
		if e.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
