package steplog

import (
	"sync"
)

// MemoryStore is an in-memory step log store for testing and
// single-process use. Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	runs   map[string][]Entry
	closed bool
}

// NewMemoryStore creates a new in-memory step log store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs: make(map[string][]Entry),
	}
}

// Append implements Store.
func (m *MemoryStore) Append(e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	// Copy the snapshot to avoid retaining the caller's slice.
	state := make([]byte, len(e.State))
	copy(state, e.State)
	e.State = state

	m.runs[e.RunID] = append(m.runs[e.RunID], e)
	return nil
}

// Replay implements Store.
func (m *MemoryStore) Replay(runID string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	entries := m.runs[runID]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Latest implements Store.
func (m *MemoryStore) Latest(runID string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	entries := m.runs[runID]
	if len(entries) == 0 {
		return nil, ErrNotFound
	}

	e := entries[len(entries)-1]
	return &e, nil
}

// DeleteRun implements Store.
func (m *MemoryStore) DeleteRun(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.runs, runID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.runs = nil
	return nil
}
