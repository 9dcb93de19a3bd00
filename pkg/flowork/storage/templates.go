package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/floworkhq/flowork/pkg/flowork"
)

// ErrTemplateNotFound is returned when no template matches.
var ErrTemplateNotFound = errors.New("template not found")

// Catalog serves read-only workflow templates from a directory of
// JSON files. Templates are loaded once at construction.
type Catalog struct {
	templates map[string]*flowork.Workflow
}

// NewCatalog loads all *.json templates under dir. Files that fail to
// parse are skipped. A missing directory yields an empty catalog.
func NewCatalog(dir string) (*Catalog, error) {
	c := &Catalog{templates: make(map[string]*flowork.Workflow)}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read templates directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		var w flowork.Workflow
		if err := json.Unmarshal(data, &w); err != nil || w.ID == "" {
			continue
		}
		c.templates[w.ID] = &w
	}
	return c, nil
}

// List returns metadata for every template, ordered by name.
func (c *Catalog) List() []Metadata {
	list := make([]Metadata, 0, len(c.templates))
	for _, w := range c.templates {
		list = append(list, metadataOf(w))
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}

// Load returns a deep copy of the template with the given ID, so
// callers can mutate the result without affecting the catalog.
func (c *Catalog) Load(id string) (*flowork.Workflow, error) {
	w, ok := c.templates[id]
	if !ok {
		return nil, ErrTemplateNotFound
	}
	return copyWorkflow(w)
}

// LoadByName returns a deep copy of the first template whose name
// matches, case-insensitively.
func (c *Catalog) LoadByName(name string) (*flowork.Workflow, error) {
	for _, w := range c.templates {
		if strings.EqualFold(w.Name, name) {
			return copyWorkflow(w)
		}
	}
	return nil, ErrTemplateNotFound
}

// copyWorkflow deep-copies a workflow via its JSON form.
func copyWorkflow(w *flowork.Workflow) (*flowork.Workflow, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("copy template: %w", err)
	}
	var out flowork.Workflow
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("copy template: %w", err)
	}
	return &out, nil
}
