package flowork

import (
	"context"
	"io"
	"log/slog"

	"github.com/floworkhq/flowork/pkg/flowork/llm"
)

// Test fixtures shared across the package tests.

// quietLogger drops all log output.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestCompiler builds a compiler around a scripted mock client.
func newTestCompiler(client llm.Client, opts ...CompilerOption) *Compiler {
	opts = append([]CompilerOption{WithLogger(quietLogger())}, opts...)
	return NewCompiler(client, opts...)
}

// scripted returns a mock client that replies with the given outputs
// in order, repeating the last one.
func scripted(responses ...string) *llm.MockClient {
	return &llm.MockClient{Responses: responses}
}

// node builds a node with a fixed ID for deterministic assertions.
func node(id, name, prompt string) *Node {
	return &Node{
		ID:             id,
		Name:           name,
		PromptTemplate: prompt,
		Routing:        RoutingRules{DefaultTarget: End},
	}
}

// singleNodeWorkflow is one node routing straight to End.
func singleNodeWorkflow() *Workflow {
	w := NewWorkflow("single", "")
	w.AddNode(node("only", "Only Node", "Say hello to {input_text}"))
	return w
}

// branchingWorkflow is a classifier that routes "positive" to nodeB
// and everything else to nodeC.
func branchingWorkflow() *Workflow {
	classifier := node("classify", "Classifier", "Classify: {input_text}")
	classifier.Routing = RoutingRules{
		DefaultTarget: "nodeC",
		Conditional: []RoutingRule{
			{OutputKey: "positive", Target: "nodeB"},
		},
	}
	w := NewWorkflow("branching", "")
	w.AddNode(classifier)
	w.AddNode(node("nodeB", "Positive Handler", "Handle positive"))
	w.AddNode(node("nodeC", "Other Handler", "Handle other"))
	return w
}

// cycleWorkflow is two nodes that route to each other forever.
func cycleWorkflow() *Workflow {
	a := node("a", "Ping", "ping")
	a.Routing = RoutingRules{DefaultTarget: "b"}
	b := node("b", "Pong", "pong")
	b.Routing = RoutingRules{DefaultTarget: "a"}
	w := NewWorkflow("cycle", "")
	w.AddNode(a)
	w.AddNode(b)
	return w
}

func testCtx() context.Context {
	return context.Background()
}
