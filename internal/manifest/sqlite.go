package manifest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating if necessary) a SQLite-backed manifest.
// Use ":memory:" for an in-memory database, or a file path for persistent
// storage; parent directories are created for file paths.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create manifest directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open manifest database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		rel_path TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL,
		chain_hash TEXT NOT NULL,
		output_path TEXT NOT NULL,
		rendered_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		rendered INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		failed INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_output ON documents(output_path);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get retrieves the entry for a document. Missing entries return nil without
// error; the planner treats nil as "never rendered".
func (s *SQLiteStore) Get(ctx context.Context, relPath string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT rel_path, content_hash, chain_hash, output_path, rendered_at FROM documents WHERE rel_path = ?",
		relPath,
	)
	entry, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query entry: %w", err)
	}
	return entry, nil
}

// All retrieves every entry keyed by RelPath.
func (s *SQLiteStore) All(ctx context.Context) (map[string]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT rel_path, content_hash, chain_hash, output_path, rendered_at FROM documents ORDER BY rel_path",
	)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]*Entry)
	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries[entry.RelPath] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}

// Put inserts or replaces the entry for a document.
func (s *SQLiteStore) Put(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO documents (rel_path, content_hash, chain_hash, output_path, rendered_at) VALUES (?, ?, ?, ?, ?)",
		entry.RelPath, entry.ContentHash, entry.ChainHash, entry.OutputPath, entry.RenderedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert entry: %w", err)
	}
	return nil
}

// Delete removes the entry for a document. Missing entries are not an error.
func (s *SQLiteStore) Delete(ctx context.Context, relPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE rel_path = ?", relPath); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// RecordRun appends a run summary to the runs ledger.
func (s *SQLiteStore) RecordRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, started_at, finished_at, outcome, rendered, skipped, failed) VALUES (?, ?, ?, ?, ?, ?, ?)",
		run.ID, run.StartedAt.Unix(), run.FinishedAt.Unix(), run.Outcome, run.Rendered, run.Skipped, run.Failed,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Runs retrieves the most recent run summaries, newest first.
func (s *SQLiteStore) Runs(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, started_at, finished_at, outcome, rendered, skipped, failed FROM runs ORDER BY started_at DESC, id LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func scanEntry(scan func(dest ...any) error) (*Entry, error) {
	var e Entry
	var renderedUnix int64
	if err := scan(&e.RelPath, &e.ContentHash, &e.ChainHash, &e.OutputPath, &renderedUnix); err != nil {
		return nil, err
	}
	e.RenderedAt = time.Unix(renderedUnix, 0)
	return &e, nil
}

func scanRun(scan func(dest ...any) error) (Run, error) {
	var r Run
	var startedUnix, finishedUnix int64
	if err := scan(&r.ID, &startedUnix, &finishedUnix, &r.Outcome, &r.Rendered, &r.Skipped, &r.Failed); err != nil {
		return Run{}, err
	}
	r.StartedAt = time.Unix(startedUnix, 0)
	r.FinishedAt = time.Unix(finishedUnix, 0)
	return r, nil
}
