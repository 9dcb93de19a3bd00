package flowork

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/floworkhq/flowork/pkg/flowork/llm"
)

// Default recursion limit constants: limit = nodes*multiplier + base.
// The limit bounds total node invocations per run, tolerating cycles
// while preventing infinite loops.
const (
	DefaultRecursionMultiplier = 3
	DefaultRecursionBase       = 10
)

// Compiler validates workflows and builds executable graphs.
// All dependencies are explicit; there is no hidden global state.
// A Compiler is safe for concurrent use.
type Compiler struct {
	client              llm.Client
	router              *Router
	logger              *slog.Logger
	recursionMultiplier int
	recursionBase       int
	modelTimeout        time.Duration
}

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithRecursionLimits overrides the recursion limit constants.
// Non-positive values keep the defaults.
func WithRecursionLimits(multiplier, base int) CompilerOption {
	return func(c *Compiler) {
		if multiplier > 0 {
			c.recursionMultiplier = multiplier
		}
		if base > 0 {
			c.recursionBase = base
		}
	}
}

// WithModelTimeout bounds each model call. The timeout fires as a node
// failure routed through the node's error key, not a run abort.
// Zero disables the bound.
func WithModelTimeout(d time.Duration) CompilerOption {
	return func(c *Compiler) { c.modelTimeout = d }
}

// WithLogger sets the logger used by the compiler and by graphs it
// builds. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) CompilerOption {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
			c.router = NewRouter(logger)
		}
	}
}

// NewCompiler creates a compiler that builds graphs bound to the given
// model client.
func NewCompiler(client llm.Client, opts ...CompilerOption) *Compiler {
	c := &Compiler{
		client:              client,
		logger:              slog.Default(),
		recursionMultiplier: DefaultRecursionMultiplier,
		recursionBase:       DefaultRecursionBase,
		modelTimeout:        2 * time.Minute,
	}
	c.router = NewRouter(c.logger)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile validates a workflow and builds an immutable CompiledGraph.
//
// A missing model client is a hard precondition failure
// (ErrModelNotConfigured). Structural violations return a *CompileError
// whose cause joins one sentinel error per violation, naming the
// offending node and target. On any failure nothing is registered: the
// only result is the error.
func (c *Compiler) Compile(wf *Workflow) (*CompiledGraph, error) {
	if c.client == nil {
		return nil, ErrModelNotConfigured
	}
	if wf == nil {
		return nil, &CompileError{Err: ErrNoNodes}
	}
	if err := wf.Validate(); err != nil {
		return nil, &CompileError{WorkflowID: wf.ID, WorkflowName: wf.Name, Err: err}
	}

	c.logger.Info("compiling workflow",
		slog.String("workflow_id", wf.ID),
		slog.String("workflow_name", wf.Name),
		slog.Int("nodes", len(wf.Nodes)),
	)

	graph := &CompiledGraph{
		workflowID:     wf.ID,
		workflowName:   wf.Name,
		version:        wf.UpdatedAt,
		entry:          wf.Nodes[0].ID,
		recursionLimit: len(wf.Nodes)*c.recursionMultiplier + c.recursionBase,
		nodeIDs:        wf.NodeIDs(),
		runners:        make(map[string]*nodeRunner, len(wf.Nodes)),
		tables:         make(map[string]RoutingTable, len(wf.Nodes)),
		visibleKeys:    make(map[string][]string, len(wf.Nodes)),
		router:         c.router,
		logger:         c.logger,
	}

	for _, n := range wf.Nodes {
		keys := visibleKeys(n)
		graph.visibleKeys[n.ID] = keys
		graph.tables[n.ID] = buildRoutingTable(n)
		graph.runners[n.ID] = &nodeRunner{
			node:        *n,
			visibleKeys: keys,
			client:      c.client,
			router:      c.router,
			timeout:     c.modelTimeout,
		}
	}

	c.logger.Info("workflow compiled",
		slog.String("workflow_id", wf.ID),
		slog.Int("recursion_limit", graph.recursionLimit),
	)
	return graph, nil
}

// visibleKeys returns the set of routing keys a node's model is told
// about: the declared conditional keys plus DefaultKey, sorted with
// DefaultKey last. A user-declared "error" rule counts as visible; the
// reserved key is hidden only when it exists purely as the synthesized
// fallback.
func visibleKeys(n *Node) []string {
	set := make(map[string]struct{})
	for _, rule := range n.Routing.Conditional {
		key := strings.TrimSpace(rule.OutputKey)
		if key == "" || key == DefaultKey {
			continue
		}
		set[key] = struct{}{}
	}

	keys := make([]string, 0, len(set)+1)
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return append(keys, DefaultKey)
}

// buildRoutingTable maps each visible key to its target and guarantees
// DefaultKey and ErrorKey entries. Duplicate conditional keys follow
// the last declaration. Tables are plain maps stored per node ID so no
// routing decision ever closes over shared loop state.
func buildRoutingTable(n *Node) RoutingTable {
	table := make(RoutingTable, len(n.Routing.Conditional)+2)
	for _, rule := range n.Routing.Conditional {
		key := strings.TrimSpace(rule.OutputKey)
		if key == "" {
			continue
		}
		table[key] = strings.TrimSpace(rule.Target)
	}
	if _, ok := table[DefaultKey]; !ok {
		table[DefaultKey] = strings.TrimSpace(n.Routing.DefaultTarget)
	}
	if _, ok := table[ErrorKey]; !ok {
		table[ErrorKey] = End
	}
	return table
}
