// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resultstore writes availability result tables to a SQLite
// database, one run per invocation, so results from several exports can be
// queried side by side.
package resultstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/find-my-books/pkg/types"
)

// ErrRunNotFound is returned by LoadRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Store manages the results SQLite database.
type Store struct {
	db *sql.DB
}

// Run is one stored result table.
type Run struct {
	ID        string
	CreatedAt time.Time
	Source    string
	Libraries []types.LibraryDefinition
	Books     []types.BookEntry
}

// Open opens or creates the database at path and creates the schema if it
// does not exist.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			source TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS libraries (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			url_template TEXT NOT NULL,
			rule TEXT NOT NULL,
			PRIMARY KEY (run_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS books (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			author TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			run_id TEXT NOT NULL,
			book_position INTEGER NOT NULL,
			library TEXT NOT NULL,
			url TEXT NOT NULL,
			PRIMARY KEY (run_id, book_position, library),
			FOREIGN KEY (run_id, book_position) REFERENCES books(run_id, position) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_library ON results(library)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun stores the result table in a single transaction and returns the
// new run ID. source is recorded as-is (typically the input file path).
func (s *Store) SaveRun(ctx context.Context, source string, books []types.BookEntry, libs []types.LibraryDefinition) (string, error) {
	runID := uuid.New().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, source) VALUES (?, ?, ?)`,
		runID, time.Now().UTC().Format(time.RFC3339Nano), source,
	); err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	for i, l := range libs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO libraries (run_id, position, name, url_template, rule) VALUES (?, ?, ?, ?, ?)`,
			runID, i, l.Name, l.URLTemplate, l.Rule.String(),
		); err != nil {
			return "", fmt.Errorf("inserting library %s: %w", l.Name, err)
		}
	}

	bookStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO books (run_id, position, title, author) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing book insert: %w", err)
	}
	defer bookStmt.Close()

	resultStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (run_id, book_position, library, url) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing result insert: %w", err)
	}
	defer resultStmt.Close()

	for i, b := range books {
		if _, err := bookStmt.ExecContext(ctx, runID, i, b.Title, b.Author); err != nil {
			return "", fmt.Errorf("inserting book %q: %w", b.Title, err)
		}
		for _, l := range libs {
			if _, err := resultStmt.ExecContext(ctx, runID, i, l.Name, b.Results[l.Name]); err != nil {
				return "", fmt.Errorf("inserting result %q/%s: %w", b.Title, l.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// LoadRun reads back a stored run. Library rules are restored only as their
// display strings, so Libraries carries names and templates.
func (s *Store) LoadRun(ctx context.Context, runID string) (*Run, error) {
	run := &Run{ID: runID}

	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at, COALESCE(source, '') FROM runs WHERE id = ?`, runID,
	).Scan(&created, &run.Source)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	if t, parseErr := time.Parse(time.RFC3339Nano, created); parseErr == nil {
		run.CreatedAt = t
	}

	libRows, err := s.db.QueryContext(ctx,
		`SELECT name, url_template FROM libraries WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying libraries: %w", err)
	}
	for libRows.Next() {
		var l types.LibraryDefinition
		if err := libRows.Scan(&l.Name, &l.URLTemplate); err != nil {
			libRows.Close()
			return nil, fmt.Errorf("scanning library: %w", err)
		}
		run.Libraries = append(run.Libraries, l)
	}
	libRows.Close()
	if err := libRows.Err(); err != nil {
		return nil, err
	}

	bookRows, err := s.db.QueryContext(ctx,
		`SELECT title, author FROM books WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying books: %w", err)
	}
	for bookRows.Next() {
		var title, author string
		if err := bookRows.Scan(&title, &author); err != nil {
			bookRows.Close()
			return nil, fmt.Errorf("scanning book: %w", err)
		}
		run.Books = append(run.Books, types.NewBookEntry(title, author))
	}
	bookRows.Close()
	if err := bookRows.Err(); err != nil {
		return nil, err
	}

	resultRows, err := s.db.QueryContext(ctx,
		`SELECT book_position, library, url FROM results WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer resultRows.Close()
	for resultRows.Next() {
		var pos int
		var lib, url string
		if err := resultRows.Scan(&pos, &lib, &url); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		if pos >= 0 && pos < len(run.Books) {
			run.Books[pos].Results[lib] = url
		}
	}
	return run, resultRows.Err()
}

// Availability counts, per library, how many books of a run were found.
func (s *Store) Availability(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT library, COUNT(*) FROM results WHERE run_id = ? AND url != '' GROUP BY library`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying availability: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var lib string
		var n int
		if err := rows.Scan(&lib, &n); err != nil {
			return nil, fmt.Errorf("scanning availability: %w", err)
		}
		counts[lib] = n
	}
	return counts, rows.Err()
}
