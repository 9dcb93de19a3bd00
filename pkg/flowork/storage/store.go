// Package storage persists workflow definitions.
//
// Two implementations are provided: FileStore writes one JSON file per
// workflow plus a metadata index, and SQLiteStore keeps definitions in
// a single database file. Both are safe for concurrent use within a
// single process.
package storage

import (
	"errors"
	"time"

	"github.com/floworkhq/flowork/pkg/flowork"
)

// ErrNotFound is returned when no workflow exists for the given ID.
var ErrNotFound = errors.New("workflow not found")

// ErrStoreClosed is returned when operating on a closed store.
var ErrStoreClosed = errors.New("store is closed")

// Metadata is the lightweight listing record for a stored workflow.
type Metadata struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	NodeCount   int       `json:"node_count"`
}

// Store persists workflow definitions.
type Store interface {
	// Save writes the workflow, overwriting any existing definition
	// with the same ID. The workflow's UpdatedAt is bumped.
	Save(w *flowork.Workflow) error

	// Load returns the workflow for the given ID, or ErrNotFound.
	Load(id string) (*flowork.Workflow, error)

	// Delete removes the workflow. Deleting a missing workflow returns
	// ErrNotFound.
	Delete(id string) error

	// Exists reports whether a workflow with the given ID is stored.
	Exists(id string) (bool, error)

	// List returns the IDs of all stored workflows, ordered by
	// UpdatedAt descending.
	List() ([]string, error)

	// Metadata returns the listing record for a single workflow.
	Metadata(id string) (*Metadata, error)

	// ListMetadata returns listing records for all stored workflows,
	// ordered by UpdatedAt descending.
	ListMetadata() ([]Metadata, error)

	// Close releases store resources.
	Close() error
}

// metadataOf builds the listing record for a workflow.
func metadataOf(w *flowork.Workflow) Metadata {
	return Metadata{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
		NodeCount:   len(w.Nodes),
	}
}
