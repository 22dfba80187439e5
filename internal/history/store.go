// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     history
// Description: SQLite-backed history of spoken items
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/msto63/mSW/internal/speech"
	"github.com/msto63/mSW/pkg/core/logging"
)

// Entry is one finished speech request with its outcome
type Entry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	VoiceID   string    `json:"voice_id"`
	Priority  int       `json:"priority"`
	Source    string    `json:"source"`
	Outcome   string    `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists speech history in SQLite
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	logger *logging.Logger
}

// NewStore opens (or creates) the history database at path in WAL mode
func NewStore(path string, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.New("history")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		voice_id TEXT NOT NULL DEFAULT '',
		priority INTEGER NOT NULL DEFAULT 3,
		source TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_history_created ON history(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_history_source ON history(source);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Record inserts one history entry
func (s *Store) Record(ctx context.Context, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		return fmt.Errorf("entry ID is required")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO history (id, text, voice_id, priority, source, outcome, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Text, e.VoiceID, e.Priority, e.Source, e.Outcome, e.Error, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record history entry: %w", err)
	}
	return nil
}

// List returns entries newest first
func (s *Store) List(ctx context.Context, limit, offset int) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, voice_id, priority, source, outcome, error, created_at
		 FROM history ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Text, &e.VoiceID, &e.Priority, &e.Source, &e.Outcome, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Statistics returns aggregate counters per outcome
func (s *Store) Statistics(ctx context.Context) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]interface{})

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count history: %w", err)
	}
	stats["total"] = total

	rows, err := s.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM history GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("failed to group history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, err
		}
		stats[outcome] = count
	}
	return stats, rows.Err()
}

// Observer returns a queue observer that records terminal outcomes.
// Non-terminal transitions (queued, started) are ignored.
func (s *Store) Observer() speech.Observer {
	return func(ev speech.Event) {
		switch ev.Type {
		case speech.EventCompleted, speech.EventCancelled, speech.EventFailed,
			speech.EventEvicted, speech.EventDropped:
		default:
			return
		}

		entry := &Entry{
			ID:        ev.RequestID,
			Text:      ev.Text,
			VoiceID:   ev.VoiceID,
			Priority:  ev.Priority,
			Source:    ev.Source,
			Outcome:   string(ev.Type),
			Error:     ev.Error,
			CreatedAt: ev.Timestamp,
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.Record(ctx, entry); err != nil {
			s.logger.Warn("Failed to record history entry", "id", ev.RequestID, "error", err)
		}
	}
}

// Close closes the database
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
