package flowork

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewWorkflow_AssignsIdentity tests ID and timestamp assignment.
func TestNewWorkflow_AssignsIdentity(t *testing.T) {
	w := NewWorkflow("test", "a description")

	assert.NotEmpty(t, w.ID)
	assert.Equal(t, "test", w.Name)
	assert.Equal(t, "a description", w.Description)
	assert.False(t, w.CreatedAt.IsZero())
	assert.Equal(t, w.CreatedAt, w.UpdatedAt)
	assert.Empty(t, w.Nodes)
}

// TestNewNode_DefaultsToEnd tests that new nodes route to End.
func TestNewNode_DefaultsToEnd(t *testing.T) {
	n := NewNode("greet", "Say hello")

	assert.NotEmpty(t, n.ID)
	assert.Equal(t, End, n.Routing.DefaultTarget)
	assert.Empty(t, n.Routing.Conditional)
}

// TestWorkflow_AddNodeBumpsUpdatedAt tests staleness tracking.
func TestWorkflow_AddNodeBumpsUpdatedAt(t *testing.T) {
	w := NewWorkflow("test", "")
	before := w.UpdatedAt

	time.Sleep(time.Millisecond)
	w.AddNode(NewNode("a", "prompt"))

	assert.True(t, w.UpdatedAt.After(before))
	assert.Len(t, w.Nodes, 1)
}

// TestWorkflow_RemoveNode tests removal by ID.
func TestWorkflow_RemoveNode(t *testing.T) {
	w := NewWorkflow("test", "")
	n := NewNode("a", "prompt")
	w.AddNode(n)

	assert.True(t, w.RemoveNode(n.ID))
	assert.Empty(t, w.Nodes)
	assert.False(t, w.RemoveNode(n.ID))
}

// TestWorkflow_ReplaceNode tests in-place node replacement.
func TestWorkflow_ReplaceNode(t *testing.T) {
	w := NewWorkflow("test", "")
	n := NewNode("a", "old prompt")
	w.AddNode(n)

	updated := &Node{ID: n.ID, Name: "a", PromptTemplate: "new prompt", Routing: n.Routing}
	require.True(t, w.ReplaceNode(updated))

	got, ok := w.Node(n.ID)
	require.True(t, ok)
	assert.Equal(t, "new prompt", got.PromptTemplate)

	missing := NewNode("other", "x")
	assert.False(t, w.ReplaceNode(missing))
}

// TestWorkflow_EntryIsFirstNode tests entry selection.
func TestWorkflow_EntryIsFirstNode(t *testing.T) {
	w := NewWorkflow("test", "")
	assert.Nil(t, w.Entry())

	first := NewNode("first", "p1")
	w.AddNode(first)
	w.AddNode(NewNode("second", "p2"))

	assert.Equal(t, first.ID, w.Entry().ID)
	assert.Equal(t, []string{first.ID, w.Nodes[1].ID}, w.NodeIDs())
}

// TestWorkflow_JSONRoundTrip tests that a serialized workflow
// deserializes to an equal definition.
func TestWorkflow_JSONRoundTrip(t *testing.T) {
	w := branchingWorkflow()

	data, err := json.Marshal(w)
	require.NoError(t, err)

	var got Workflow
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, w.ID, got.ID)
	assert.Equal(t, w.Name, got.Name)
	require.Len(t, got.Nodes, len(w.Nodes))
	for i, n := range w.Nodes {
		assert.Equal(t, n.ID, got.Nodes[i].ID)
		assert.Equal(t, n.PromptTemplate, got.Nodes[i].PromptTemplate)
		assert.Equal(t, n.Routing, got.Nodes[i].Routing)
	}
}
