// Package history persists check and build run records in a local SQLite
// database so repeated runs can be compared over time.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	siteerrors "git.home.luguber.info/inful/guidesite/internal/errors"
)

// RunKind distinguishes the recorded operation.
type RunKind string

const (
	RunKindCheck RunKind = "check"
	RunKindBuild RunKind = "build"
)

// Run is one recorded check or build execution.
type Run struct {
	ID        string        `json:"id"`
	Kind      RunKind       `json:"kind"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	DocsTotal int           `json:"docs_total"`
	Errors    int           `json:"errors"`
	Warnings  int           `json:"warnings"`
	TreeHash  string        `json:"tree_hash"`
	Outcome   string        `json:"outcome"`
}

// Store persists runs in SQLite. Use ":memory:" for an in-memory database,
// or a file path for persistent storage.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if needed) the run store at dbPath.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, siteerrors.WrapError(err, siteerrors.CategoryHistory, "create history directory")
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, siteerrors.WrapError(err, siteerrors.CategoryHistory, "open sqlite database")
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, siteerrors.WrapError(err, siteerrors.CategoryHistory, "initialize schema")
	}

	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		docs_total INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		warnings INTEGER NOT NULL,
		tree_hash TEXT NOT NULL,
		outcome TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts a run.
func (s *Store) Record(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, kind, started_at, duration_ms, docs_total, errors, warnings, tree_hash, outcome) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		run.ID, string(run.Kind), run.StartedAt.Unix(), run.Duration.Milliseconds(),
		run.DocsTotal, run.Errors, run.Warnings, run.TreeHash, run.Outcome,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns the newest runs, most recent first. A non-empty kind
// restricts results to that run kind.
func (s *Store) Recent(ctx context.Context, kind RunKind, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	query := "SELECT id, kind, started_at, duration_ms, docs_total, errors, warnings, tree_hash, outcome FROM runs"
	args := []any{}
	if kind != "" {
		query += " WHERE kind = ?"
		args = append(args, string(kind))
	}
	query += " ORDER BY started_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// ByID fetches a single run, or sql.ErrNoRows if absent.
func (s *Store) ByID(ctx context.Context, id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, kind, started_at, duration_ms, docs_total, errors, warnings, tree_hash, outcome FROM runs WHERE id = ?", id)

	var run Run
	var kind string
	var startedUnix, durationMS int64
	if err := row.Scan(&run.ID, &kind, &startedUnix, &durationMS,
		&run.DocsTotal, &run.Errors, &run.Warnings, &run.TreeHash, &run.Outcome); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Kind = RunKind(kind)
	run.StartedAt = time.Unix(startedUnix, 0)
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return run, nil
}

// LastTreeHash returns the tree hash of the most recent run of the given
// kind, or "" when no run is recorded yet.
func (s *Store) LastTreeHash(ctx context.Context, kind RunKind) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT tree_hash FROM runs WHERE kind = ? ORDER BY started_at DESC, id DESC LIMIT 1", string(kind))

	var hash string
	if err := row.Scan(&hash); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("scan tree hash: %w", err)
	}
	return hash, nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var run Run
		var kind string
		var startedUnix, durationMS int64

		if err := rows.Scan(&run.ID, &kind, &startedUnix, &durationMS,
			&run.DocsTotal, &run.Errors, &run.Warnings, &run.TreeHash, &run.Outcome); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		run.Kind = RunKind(kind)
		run.StartedAt = time.Unix(startedUnix, 0)
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
