// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists harvest and scrub runs in a SQLite corpus
// database with full-text search over document text.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/pdiddy/corpus-builder/internal/corpus"
	"github.com/pdiddy/corpus-builder/pkg/types"
)

const defaultMaxResults = 20

// Store manages the corpus SQLite database.
type Store struct {
	db  *sql.DB
	fts bool
}

// NewStore opens or creates the database at path and its schema. Full-text
// search uses FTS5 when the SQLite build provides it and falls back to
// LIKE matching otherwise.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
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

// FTS reports whether full-text search is backed by FTS5.
func (s *Store) FTS() bool { return s.fts }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			command TEXT NOT NULL,
			topic TEXT,
			stop_reason TEXT,
			error TEXT,
			total_words INTEGER NOT NULL,
			documents INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			year INTEGER,
			word_count INTEGER NOT NULL,
			source_url TEXT NOT NULL,
			content_type TEXT,
			original_len INTEGER,
			cleaned_len INTEGER,
			text TEXT NOT NULL,
			UNIQUE (run_id, title, source_url)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_run_id ON documents(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='documents_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		s.fts = true
		return nil
	}

	if _, err := s.db.Exec(
		`CREATE VIRTUAL TABLE documents_fts USING fts5(title, text, content=documents, content_rowid=rowid)`,
	); err != nil {
		if strings.Contains(err.Error(), "no such module") {
			log.Debug().Err(err).Msg("fts5 unavailable, using LIKE search")
			return nil
		}
		return fmt.Errorf("creating FTS table: %w", err)
	}

	triggers := []string{
		`CREATE TRIGGER documents_ai AFTER INSERT ON documents BEGIN
			INSERT INTO documents_fts(rowid, title, text) VALUES (new.rowid, new.title, new.text);
		END`,
		`CREATE TRIGGER documents_ad AFTER DELETE ON documents BEGIN
			INSERT INTO documents_fts(documents_fts, rowid, title, text) VALUES('delete', old.rowid, old.title, old.text);
		END`,
	}
	for _, stmt := range triggers {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	s.fts = true
	return nil
}

// SaveRun stores a run summary and its records in one transaction and
// returns the run ID.
func (s *Store) SaveRun(ctx context.Context, m corpus.Manifest, records []types.Record) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	created := m.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	total := 0
	for _, r := range records {
		total += r.WordCount
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (command, topic, stop_reason, error, total_words, documents, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.Command, m.Topic, m.Stop, m.Error, total, len(records), created.Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (run_id, position, title, year, word_count, source_url,
			content_type, original_len, cleaned_len, text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx,
			runID, i, r.Title, nullInt(r.Year), r.WordCount, r.SourceURL,
			r.ContentType, nullInt(r.OriginalLen), nullInt(r.CleanedLen), r.Text,
		); err != nil {
			return 0, fmt.Errorf("inserting document %q: %w", r.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}
