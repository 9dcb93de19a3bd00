package steplog

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists step logs to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite step log store.
// The path should be a file path (e.g. "./steplog.db") or ":memory:"
// for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS step_log (
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			node_id TEXT NOT NULL,
			key TEXT NOT NULL,
			target TEXT NOT NULL,
			state BLOB NOT NULL,
			timestamp TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO step_log (run_id, seq, node_id, key, target, state, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.RunID, e.Seq, e.NodeID, e.Key, e.Target, []byte(e.State),
		e.Timestamp.UTC().Format(time.RFC3339Nano))

	if err != nil {
		return fmt.Errorf("append step: %w", err)
	}
	return nil
}

// Replay implements Store.
func (s *SQLiteStore) Replay(runID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT seq, node_id, key, target, state, timestamp
		FROM step_log
		WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("replay steps: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e := Entry{RunID: runID}
		var timestamp string
		var state []byte
		if err := rows.Scan(&e.Seq, &e.NodeID, &e.Key, &e.Target, &state, &timestamp); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		e.State = state
		if ts, err := time.Parse(time.RFC3339Nano, timestamp); err == nil {
			e.Timestamp = ts
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("replay steps: %w", err)
	}
	return entries, nil
}

// Latest implements Store.
func (s *SQLiteStore) Latest(runID string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	e := Entry{RunID: runID}
	var timestamp string
	var state []byte
	err := s.db.QueryRow(`
		SELECT seq, node_id, key, target, state, timestamp
		FROM step_log
		WHERE run_id = ?
		ORDER BY seq DESC
		LIMIT 1
	`, runID).Scan(&e.Seq, &e.NodeID, &e.Key, &e.Target, &state, &timestamp)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load latest step: %w", err)
	}
	e.State = state
	if ts, err := time.Parse(time.RFC3339Nano, timestamp); err == nil {
		e.Timestamp = ts
	}
	return &e, nil
}

// DeleteRun implements Store.
func (s *SQLiteStore) DeleteRun(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.Exec(`DELETE FROM step_log WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("delete run steps: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
