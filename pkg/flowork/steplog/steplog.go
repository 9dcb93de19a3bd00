// Package steplog provides an append-only log of execution steps.
//
// The executor appends one entry per completed step: the node that ran,
// the routing decision, and a JSON snapshot of the execution state after
// the node completed.
//
// # Resume contract
//
// The latest entry for a run identifies where to pick up: resume
// execution at Entry.Target with the state decoded from Entry.State.
// A Target equal to the terminal sentinel means the run finished and
// there is nothing to resume. Entries within a run are strictly ordered
// by Seq starting at 1.
package steplog

import (
	"encoding/json"
	"errors"
	"time"
)

// Entry is one logged execution step.
type Entry struct {
	// RunID identifies the run this entry belongs to.
	RunID string `json:"run_id"`
	// Seq is the 1-based position of the step within the run.
	Seq int `json:"seq"`
	// NodeID is the node that executed.
	NodeID string `json:"node_id"`
	// Key is the routing key chosen after the node completed.
	Key string `json:"key"`
	// Target is the node the run moved to (or the terminal sentinel).
	Target string `json:"target"`
	// State is the JSON-encoded execution state after the step.
	State json.RawMessage `json:"state"`
	// Timestamp records when the entry was appended.
	Timestamp time.Time `json:"timestamp"`
}

// Store persists step log entries.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append adds an entry to a run's log. Entries must arrive in Seq
	// order per run; Append does not reorder.
	Append(e Entry) error

	// Replay returns all entries for a run ordered by Seq.
	// Returns an empty slice (not an error) for an unknown run.
	Replay(runID string) ([]Entry, error)

	// Latest returns the highest-Seq entry for a run.
	// Returns ErrNotFound if the run has no entries.
	Latest(runID string) (*Entry, error)

	// DeleteRun removes all entries for a run.
	// Returns nil if the run has no entries.
	DeleteRun(runID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for step log operations.
var (
	// ErrNotFound indicates the run has no logged entries.
	ErrNotFound = errors.New("step log entries not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("step log store closed")
)
