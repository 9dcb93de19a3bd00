package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/floworkhq/flowork/pkg/flowork"
)

// indexFile is the metadata index kept alongside the workflow files.
const indexFile = ".metadata.json"

// FileStore persists each workflow as <id>.json in a directory, with a
// metadata index for fast listing.
type FileStore struct {
	dir    string
	mu     sync.RWMutex
	index  map[string]Metadata
	closed bool
}

// NewFileStore opens a file-backed store rooted at dir, creating the
// directory if needed. An existing metadata index is loaded; if it is
// missing or unreadable, the index is rebuilt from the workflow files.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	s := &FileStore{dir: dir, index: make(map[string]Metadata)}
	if err := s.loadIndex(); err != nil {
		if err := s.rebuildIndex(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Save implements Store.
func (s *FileStore) Save(w *flowork.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	w.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal workflow: %w", err)
	}

	if err := os.WriteFile(s.workflowPath(w.ID), data, 0o644); err != nil {
		return fmt.Errorf("write workflow: %w", err)
	}

	s.index[w.ID] = metadataOf(w)
	return s.writeIndex()
}

// Load implements Store.
func (s *FileStore) Load(id string) (*flowork.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	data, err := os.ReadFile(s.workflowPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read workflow: %w", err)
	}

	var w flowork.Workflow
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("unmarshal workflow: %w", err)
	}
	return &w, nil
}

// Delete implements Store.
func (s *FileStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	err := os.Remove(s.workflowPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}

	delete(s.index, id)
	return s.writeIndex()
}

// Exists implements Store.
func (s *FileStore) Exists(id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, ErrStoreClosed
	}
	_, ok := s.index[id]
	return ok, nil
}

// Metadata implements Store.
func (s *FileStore) Metadata(id string) (*Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	md, ok := s.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &md, nil
}

// List implements Store.
func (s *FileStore) List() ([]string, error) {
	mds, err := s.ListMetadata()
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(mds))
	for i, md := range mds {
		ids[i] = md.ID
	}
	return ids, nil
}

// ListMetadata implements Store.
func (s *FileStore) ListMetadata() ([]Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	list := make([]Metadata, 0, len(s.index))
	for _, md := range s.index {
		list = append(list, md)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})
	return list, nil
}

// Close implements Store.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *FileStore) workflowPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStore) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &s.index)
}

// rebuildIndex scans the directory for workflow files and regenerates
// the metadata index from their contents.
func (s *FileStore) rebuildIndex() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("scan storage directory: %w", err)
	}

	s.index = make(map[string]Metadata)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == indexFile || filepath.Ext(name) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		var w flowork.Workflow
		if err := json.Unmarshal(data, &w); err != nil || w.ID == "" {
			continue
		}
		s.index[w.ID] = metadataOf(&w)
	}
	return s.writeIndex()
}

func (s *FileStore) writeIndex() error {
	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, indexFile), data, 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}
