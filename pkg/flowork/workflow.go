package flowork

import (
	"time"

	"github.com/google/uuid"
)

// End is the terminal routing target.
// Use it as a routing target to indicate the workflow should terminate.
const End = "END"

// Reserved routing keys.
const (
	// DefaultKey is the routing key the model falls back to when no
	// conditional key applies. It is always present in a compiled
	// routing table.
	DefaultKey = "__DEFAULT__"

	// ErrorKey is the routing key carried by failed node outputs.
	// The compiler synthesizes an ErrorKey -> End route for nodes that
	// do not declare one.
	ErrorKey = "error"
)

// RoutingRule maps an output key emitted by the model to a target node.
type RoutingRule struct {
	// OutputKey is the routing key that triggers this rule. Non-empty.
	OutputKey string `json:"output_key"`
	// Target is the target node ID, or End.
	Target string `json:"target_node_id"`
}

// RoutingRules defines where execution goes after a node completes.
//
// Targets may reference nodes that do not exist yet; resolution is
// enforced at compile time, not here, so rules can be edited while the
// workflow is still being assembled.
type RoutingRules struct {
	// DefaultTarget is used when the model emits no key, or a key with
	// no conditional rule. Defaults to End.
	DefaultTarget string `json:"default_target"`
	// Conditional is the ordered list of key -> target rules.
	Conditional []RoutingRule `json:"conditional_targets"`
}

// Node is a unit of work: a prompt template plus routing rules.
// Its ID is assigned at construction and never changes.
type Node struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	PromptTemplate string         `json:"prompt"`
	Routing        RoutingRules   `json:"routing_rules"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// NewNode creates a node with a fresh ID and a default route to End.
func NewNode(name, promptTemplate string) *Node {
	return &Node{
		ID:             uuid.New().String(),
		Name:           name,
		PromptTemplate: promptTemplate,
		Routing:        RoutingRules{DefaultTarget: End},
		Metadata:       make(map[string]any),
	}
}

// Workflow is an ordered collection of nodes. The first node is the
// entry point.
type Workflow struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Nodes       []*Node        `json:"nodes"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// NewWorkflow creates an empty workflow with a fresh ID.
func NewWorkflow(name, description string) *Workflow {
	now := time.Now().UTC()
	return &Workflow{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		Metadata:    make(map[string]any),
	}
}

// AddNode appends a node to the workflow and bumps UpdatedAt.
// Compiled graphs built from the previous shape are stale afterwards;
// the graph cache keys on UpdatedAt to detect this.
func (w *Workflow) AddNode(n *Node) {
	w.Nodes = append(w.Nodes, n)
	w.touch()
}

// RemoveNode removes the node with the given ID.
// Returns false if no such node exists.
func (w *Workflow) RemoveNode(id string) bool {
	for i, n := range w.Nodes {
		if n.ID == id {
			w.Nodes = append(w.Nodes[:i], w.Nodes[i+1:]...)
			w.touch()
			return true
		}
	}
	return false
}

// ReplaceNode swaps the node with the same ID for n.
// Returns false if no node with n's ID exists.
func (w *Workflow) ReplaceNode(n *Node) bool {
	for i, existing := range w.Nodes {
		if existing.ID == n.ID {
			w.Nodes[i] = n
			w.touch()
			return true
		}
	}
	return false
}

// Node returns the node with the given ID.
func (w *Workflow) Node(id string) (*Node, bool) {
	for _, n := range w.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// NodeIDs returns the node IDs in declaration order.
func (w *Workflow) NodeIDs() []string {
	ids := make([]string, len(w.Nodes))
	for i, n := range w.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// Entry returns the entry node (the first in declaration order),
// or nil for an empty workflow.
func (w *Workflow) Entry() *Node {
	if len(w.Nodes) == 0 {
		return nil
	}
	return w.Nodes[0]
}

func (w *Workflow) touch() {
	w.UpdatedAt = time.Now().UTC()
}
