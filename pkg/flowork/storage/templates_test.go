package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floworkhq/flowork/pkg/flowork"
)

// writeTemplate marshals a workflow into the templates directory.
func writeTemplate(t *testing.T, dir string, w *flowork.Workflow) {
	t.Helper()
	data, err := json.Marshal(w)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, w.ID+".json"), data, 0o644))
}

// TestCatalog_ListAndLoad tests the basic catalog operations.
func TestCatalog_ListAndLoad(t *testing.T) {
	dir := t.TempDir()
	a := sampleWorkflow("Alpha Flow")
	b := sampleWorkflow("Beta Flow")
	writeTemplate(t, dir, a)
	writeTemplate(t, dir, b)

	c, err := NewCatalog(dir)
	require.NoError(t, err)

	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Alpha Flow", list[0].Name)
	assert.Equal(t, "Beta Flow", list[1].Name)

	got, err := c.Load(a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Name, got.Name)

	_, err = c.Load("missing")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

// TestCatalog_LoadByName tests case-insensitive name lookup.
func TestCatalog_LoadByName(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, sampleWorkflow("Content Triage"))

	c, err := NewCatalog(dir)
	require.NoError(t, err)

	got, err := c.LoadByName("content triage")
	require.NoError(t, err)
	assert.Equal(t, "Content Triage", got.Name)

	_, err = c.LoadByName("nope")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

// TestCatalog_LoadReturnsCopy tests that callers cannot mutate the
// catalog's templates.
func TestCatalog_LoadReturnsCopy(t *testing.T) {
	dir := t.TempDir()
	w := sampleWorkflow("Mutable?")
	writeTemplate(t, dir, w)

	c, err := NewCatalog(dir)
	require.NoError(t, err)

	first, err := c.Load(w.ID)
	require.NoError(t, err)
	first.Name = "mutated"
	first.Nodes[0].PromptTemplate = "mutated"

	second, err := c.Load(w.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mutable?", second.Name)
	assert.NotEqual(t, "mutated", second.Nodes[0].PromptTemplate)
}

// TestCatalog_SkipsBrokenFiles tests that unparseable files do not
// poison the catalog.
func TestCatalog_SkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, sampleWorkflow("Good"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{nope"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not json"), 0o644))

	c, err := NewCatalog(dir)
	require.NoError(t, err)
	assert.Len(t, c.List(), 1)
}

// TestCatalog_MissingDirectory tests the empty-catalog fallback.
func TestCatalog_MissingDirectory(t *testing.T) {
	c, err := NewCatalog(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, c.List())
}

// TestCatalog_BundledTemplatesParse tests the templates shipped in the
// repository.
func TestCatalog_BundledTemplatesParse(t *testing.T) {
	c, err := NewCatalog("../../../templates")
	require.NoError(t, err)

	list := c.List()
	require.NotEmpty(t, list)

	for _, md := range list {
		w, err := c.Load(md.ID)
		require.NoError(t, err)
		assert.NoError(t, w.Validate(), "template %s must be structurally valid", md.ID)
	}
}
