package flowork

import "strings"

// ErrorPrefix marks a node output as a failure.
// Outputs beginning with this prefix carry the ErrorKey routing key.
const ErrorPrefix = "ERROR: "

// ExecutionState is the state threaded through one run.
// It is created fresh per run and mutated only by the node runner;
// a run never shares its state with another run.
type ExecutionState struct {
	// Input is the user-supplied input string for the run.
	Input string `json:"input"`
	// NodeOutputs holds the latest output of each executed node.
	// A node revisited in a cycle overwrites its entry; execution
	// order is recorded in the trace.
	NodeOutputs map[string]string `json:"node_outputs"`
	// LastOutput is the most recent node output, marker included.
	LastOutput string `json:"last_output"`
	// CurrentNode is the ID of the node that produced LastOutput.
	CurrentNode string `json:"current_node"`
}

// newExecutionState creates the initial state for a run.
func newExecutionState(input string) *ExecutionState {
	return &ExecutionState{
		Input:       input,
		NodeOutputs: make(map[string]string),
	}
}

// clone returns a copy of the state with its own NodeOutputs map.
func (s *ExecutionState) clone() *ExecutionState {
	outputs := make(map[string]string, len(s.NodeOutputs))
	for k, v := range s.NodeOutputs {
		outputs[k] = v
	}
	return &ExecutionState{
		Input:       s.Input,
		NodeOutputs: outputs,
		LastOutput:  s.LastOutput,
		CurrentNode: s.CurrentNode,
	}
}

// isError reports whether an output encodes a node failure.
// Matching is case-insensitive on the prefix so callers cannot be
// fooled by "error:" vs "ERROR:" variations, but an output merely
// mentioning errors mid-text is not a failure.
func isError(output string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(output)), "ERROR:")
}

// Summary is a derived view of a finished run.
type Summary struct {
	// NodesExecuted counts distinct nodes that produced output.
	NodesExecuted int `json:"nodes_executed"`
	// NodeOutputs holds each node's latest output.
	NodeOutputs map[string]string `json:"node_outputs"`
	// FinalOutput is the last produced output with the routing marker
	// stripped.
	FinalOutput string `json:"final_output"`
	// CurrentNode is the last node that executed.
	CurrentNode string `json:"current_node"`
	// HasError is true when the final output begins with ErrorPrefix.
	HasError bool `json:"has_error"`
}

// Summarize derives a Summary from a final execution state.
func Summarize(state *ExecutionState) Summary {
	if state == nil {
		return Summary{NodeOutputs: map[string]string{}}
	}
	outputs := make(map[string]string, len(state.NodeOutputs))
	for k, v := range state.NodeOutputs {
		outputs[k] = v
	}
	return Summary{
		NodesExecuted: len(outputs),
		NodeOutputs:   outputs,
		FinalOutput:   strings.TrimSpace(markerPattern.ReplaceAllString(state.LastOutput, "")),
		CurrentNode:   state.CurrentNode,
		HasError:      isError(state.LastOutput),
	}
}
