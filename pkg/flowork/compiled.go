package flowork

import (
	"log/slog"
	"time"
)

// CompiledGraph is an immutable, executable workflow graph built by
// Compiler.Compile.
//
// A CompiledGraph is safe to share across concurrent Run calls; each
// run owns its own state and trace. When the source workflow is edited
// the graph is stale — rebuild it (GraphCache does this keyed on the
// workflow's UpdatedAt) while in-flight runs keep using the old graph.
type CompiledGraph struct {
	workflowID     string
	workflowName   string
	version        time.Time
	entry          string
	recursionLimit int
	nodeIDs        []string

	runners     map[string]*nodeRunner
	tables      map[string]RoutingTable
	visibleKeys map[string][]string

	router *Router
	logger *slog.Logger
}

// WorkflowID returns the source workflow's ID.
func (cg *CompiledGraph) WorkflowID() string {
	return cg.workflowID
}

// WorkflowName returns the source workflow's name.
func (cg *CompiledGraph) WorkflowName() string {
	return cg.workflowName
}

// Version returns the source workflow's UpdatedAt at compile time.
// A workflow whose UpdatedAt differs has been edited since.
func (cg *CompiledGraph) Version() time.Time {
	return cg.version
}

// EntryNode returns the entry node ID (first node in declaration order).
func (cg *CompiledGraph) EntryNode() string {
	return cg.entry
}

// RecursionLimit returns the maximum node invocations per run.
func (cg *CompiledGraph) RecursionLimit() int {
	return cg.recursionLimit
}

// NodeIDs returns all node IDs in declaration order.
func (cg *CompiledGraph) NodeIDs() []string {
	ids := make([]string, len(cg.nodeIDs))
	copy(ids, cg.nodeIDs)
	return ids
}

// RoutingTable returns a copy of the routing table for a node.
func (cg *CompiledGraph) RoutingTable(nodeID string) (RoutingTable, bool) {
	table, ok := cg.tables[nodeID]
	if !ok {
		return nil, false
	}
	out := make(RoutingTable, len(table))
	for k, v := range table {
		out[k] = v
	}
	return out, true
}

// VisibleKeys returns the routing keys the model is offered for a node.
func (cg *CompiledGraph) VisibleKeys(nodeID string) []string {
	keys, ok := cg.visibleKeys[nodeID]
	if !ok {
		return nil
	}
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}
