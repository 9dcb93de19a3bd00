package flowork

import (
	"errors"
	"fmt"
)

// Sentinel errors for structural validation.
var (
	// ErrNoNodes indicates the workflow has no nodes.
	ErrNoNodes = errors.New("workflow has no nodes")

	// ErrDuplicateNodeID indicates two nodes share an ID.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrEmptyNodeName indicates a node with an empty name.
	ErrEmptyNodeName = errors.New("node name is empty")

	// ErrEmptyPrompt indicates a node with an empty prompt template.
	ErrEmptyPrompt = errors.New("node prompt is empty")

	// ErrEmptyRoutingKey indicates a conditional rule with an empty key.
	ErrEmptyRoutingKey = errors.New("routing key is empty")

	// ErrDanglingTarget indicates a routing target that is neither End
	// nor a node ID in the workflow.
	ErrDanglingTarget = errors.New("routing target not found")
)

// Sentinel errors for compilation and execution preconditions.
var (
	// ErrModelNotConfigured indicates the compiler has no model client.
	ErrModelNotConfigured = errors.New("model client not configured")

	// ErrNilContext indicates Run was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrEmptyInput indicates a run was requested with an empty input.
	ErrEmptyInput = errors.New("input cannot be empty")
)

// CompileError wraps any failure during graph compilation.
// The underlying cause is reachable via errors.Is/As; structural
// validation causes are joined sentinel errors naming the offending
// node and target.
type CompileError struct {
	// WorkflowID identifies the workflow that failed to compile.
	WorkflowID string
	// WorkflowName is the workflow's display name.
	WorkflowName string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("compile workflow %q (%s): %v", e.WorkflowName, e.WorkflowID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CompileError) Unwrap() error {
	return e.Err
}
