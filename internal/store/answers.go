// Package store persists answers the user asks to keep. Persistence is a
// side channel of the conversation: a failed save produces a polite notice in
// the reply, never a failed turn.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"rafiq/internal/logging"
)

// SaveResult reports the outcome of a save in user-facing terms.
type SaveResult struct {
	Success bool
	Message string
}

// SavedAnswer is one persisted assistant reply.
type SavedAnswer struct {
	ID       string
	Question string
	Answer   string
	Category string
	SavedAt  time.Time
}

// AnswerStore persists and recalls saved answers.
type AnswerStore interface {
	Save(ctx context.Context, question, answer, category string) SaveResult
	List(ctx context.Context, limit int) ([]SavedAnswer, error)
	Close() error
}

// ===== SQLITE IMPLEMENTATION =====

// SQLiteStore keeps saved answers in a local SQLite database.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and ensures
// the schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening answer store: %w", err)
	}
	// Single local writer; more connections just contend on the file lock.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	logging.Store("Answer store ready at %s", path)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS saved_answers (
			id       TEXT PRIMARY KEY,
			question TEXT NOT NULL,
			answer   TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			saved_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_saved_answers_saved_at
			ON saved_answers(saved_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("migrating answer store: %w", err)
	}
	return nil
}

// Save persists one question/answer pair. It never returns an error; failure
// is folded into the result message so callers can relay it conversationally.
func (s *SQLiteStore) Save(ctx context.Context, question, answer, category string) SaveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer := logging.StartTimer(logging.CategoryStore, "SQLiteStore.Save")
	defer timer.Stop()

	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO saved_answers (id, question, answer, category, saved_at) VALUES (?, ?, ?, ?, ?)`,
		id, question, answer, category, time.Now().UTC(),
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Save failed: %v", err)
		return SaveResult{
			Success: false,
			Message: "I couldn't save that right now, but we can keep talking and try again later.",
		}
	}
	logging.StoreDebug("Saved answer id=%s category=%s", id, category)
	return SaveResult{
		Success: true,
		Message: "Saved. You can come back to it any time.",
	}
}

// List returns the most recent saved answers, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]SavedAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, answer, category, saved_at FROM saved_answers ORDER BY saved_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing saved answers: %w", err)
	}
	defer rows.Close()

	var out []SavedAnswer
	for rows.Next() {
		var a SavedAnswer
		if err := rows.Scan(&a.ID, &a.Question, &a.Answer, &a.Category, &a.SavedAt); err != nil {
			return nil, fmt.Errorf("scanning saved answer: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
