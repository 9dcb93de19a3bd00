package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// TestSQLiteStore_SaveAndLoad tests the basic round trip.
func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	s := newSQLiteStore(t)
	w := sampleWorkflow("sqlite round trip")

	require.NoError(t, s.Save(w))

	got, err := s.Load(w.ID)
	require.NoError(t, err)
	assert.Equal(t, w.ID, got.ID)
	assert.Equal(t, w.Name, got.Name)
	require.Len(t, got.Nodes, 1)
}

// TestSQLiteStore_UpsertReplaces tests saving the same ID twice.
func TestSQLiteStore_UpsertReplaces(t *testing.T) {
	s := newSQLiteStore(t)
	w := sampleWorkflow("original")
	require.NoError(t, s.Save(w))

	w.Name = "renamed"
	require.NoError(t, s.Save(w))

	got, err := s.Load(w.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	list, err := s.ListMetadata()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

// TestSQLiteStore_Delete tests removal semantics.
func TestSQLiteStore_Delete(t *testing.T) {
	s := newSQLiteStore(t)
	w := sampleWorkflow("doomed")
	require.NoError(t, s.Save(w))

	require.NoError(t, s.Delete(w.ID))
	assert.ErrorIs(t, s.Delete(w.ID), ErrNotFound)

	_, err := s.Load(w.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestSQLiteStore_ExistsAndMetadata tests the lookup helpers.
func TestSQLiteStore_ExistsAndMetadata(t *testing.T) {
	s := newSQLiteStore(t)
	w := sampleWorkflow("lookup")
	require.NoError(t, s.Save(w))

	ok, err := s.Exists(w.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	md, err := s.Metadata(w.ID)
	require.NoError(t, err)
	assert.Equal(t, "lookup", md.Name)
	assert.Equal(t, 1, md.NodeCount)
	assert.WithinDuration(t, w.UpdatedAt, md.UpdatedAt, time.Millisecond)

	_, err = s.Metadata("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestSQLiteStore_ListOrder tests UpdatedAt-descending listing.
func TestSQLiteStore_ListOrder(t *testing.T) {
	s := newSQLiteStore(t)

	older := sampleWorkflow("older")
	require.NoError(t, s.Save(older))
	time.Sleep(2 * time.Millisecond)
	newer := sampleWorkflow("newer")
	require.NoError(t, s.Save(newer))

	list, err := s.ListMetadata()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Name)

	ids, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{newer.ID, older.ID}, ids)
}

// TestSQLiteStore_FileBacked tests persistence to an actual database
// file across store instances.
func TestSQLiteStore_FileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workflows.db")

	s1, err := NewSQLiteStore(path)
	require.NoError(t, err)
	w := sampleWorkflow("durable")
	require.NoError(t, s1.Save(w))
	require.NoError(t, s1.Close())

	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Load(w.ID)
	require.NoError(t, err)
	assert.Equal(t, "durable", got.Name)
}

// TestSQLiteStore_Closed tests the closed-store guard.
func TestSQLiteStore_Closed(t *testing.T) {
	s := newSQLiteStore(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Save(sampleWorkflow("late")), ErrStoreClosed)
	_, err := s.Load("x")
	assert.ErrorIs(t, err, ErrStoreClosed)
}
