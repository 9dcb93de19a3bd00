package flowork

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/floworkhq/flowork/pkg/flowork/observability"
	"github.com/floworkhq/flowork/pkg/flowork/steplog"
	"go.opentelemetry.io/otel/trace"
)

// Step records one routing decision in a run's trace.
type Step struct {
	// NodeID is the node that executed.
	NodeID string `json:"node_id"`
	// Key is the routing key the router resolved.
	Key string `json:"key"`
	// Target is the node the run moved to, or End.
	Target string `json:"target"`
}

// errNodeFailed marks node spans whose output carries the error prefix.
var errNodeFailed = errors.New("node produced error output")

// Run executes the graph from its entry node until the terminal
// sentinel is reached or the recursion limit is exhausted. It returns
// the final execution state and the ordered trace of routing steps.
//
// Node failures never abort the run: they are encoded in the state as
// "ERROR: ..." outputs and routed through each node's error key, so a
// workflow can define its own recovery route. A run that exhausts the
// recursion limit returns whatever state was last produced, with a
// trace exactly RecursionLimit() long. The only returned error is the
// nil-context precondition.
//
// Example:
//
//	state, steps, err := graph.Run(ctx, "summarize this ticket")
//	if err != nil {
//	    return err
//	}
//	summary := flowork.Summarize(state)
func (cg *CompiledGraph) Run(ctx context.Context, input string, opts ...RunOption) (*ExecutionState, []Step, error) {
	if ctx == nil {
		return nil, nil, ErrNilContext
	}

	cfg := cg.defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	start := time.Now()
	observability.LogRunStart(cfg.logger, cfg.runID, cg.workflowID)

	execCtx := ctx
	var runSpan trace.Span
	if cfg.tracingEnabled {
		execCtx, runSpan = cfg.spans.StartRunSpan(ctx, cg.workflowID, cfg.runID)
	}

	state := newExecutionState(input)
	steps := make([]Step, 0, cg.recursionLimit)
	current := cg.entry

	for current != End && len(steps) < cg.recursionLimit {
		runner := cg.runners[current]
		nodeLogger := observability.EnrichLogger(cfg.logger, cfg.runID, current)
		observability.LogNodeStart(nodeLogger, current, runner.node.Name)

		nodeCtx := execCtx
		var nodeSpan trace.Span
		if cfg.tracingEnabled {
			nodeCtx, nodeSpan = cfg.spans.StartNodeSpan(execCtx, current)
		}

		nodeStart := time.Now()
		state = runner.run(nodeCtx, nodeLogger, state)
		nodeDuration := time.Since(nodeStart)

		failed := isError(state.LastOutput)
		cfg.metrics.RecordNodeExecution(nodeCtx, current, nodeDuration, failed)
		if cfg.tracingEnabled {
			var spanErr error
			if failed {
				spanErr = errNodeFailed
			}
			cfg.spans.EndSpanWithError(nodeSpan, spanErr)
		}
		observability.LogNodeComplete(nodeLogger, current, float64(nodeDuration.Milliseconds()))

		key := cg.router.Resolve(state, cg.tables[current])
		target := cg.tables[current][key]
		observability.LogRoute(nodeLogger, current, key, target)

		step := Step{NodeID: current, Key: key, Target: target}
		steps = append(steps, step)

		if cfg.stepLog != nil {
			cg.logStep(execCtx, &cfg, step, len(steps), state)
		}

		current = target
	}

	duration := time.Since(start)
	terminal := current == End
	cfg.metrics.RecordRun(ctx, terminal && !isError(state.LastOutput), duration)
	if cfg.tracingEnabled {
		cfg.spans.EndSpanWithError(runSpan, nil)
	}
	observability.LogRunComplete(cfg.logger, cfg.runID, float64(duration.Milliseconds()), len(steps), terminal)

	return state, steps, nil
}

// logStep appends a step to the configured step log. Write failures
// are logged and never abort the run.
func (cg *CompiledGraph) logStep(ctx context.Context, cfg *runConfig, step Step, seq int, state *ExecutionState) {
	snapshot, err := json.Marshal(state)
	if err != nil {
		observability.LogStepLogError(cfg.logger, step.NodeID, err)
		return
	}

	entry := steplog.Entry{
		RunID:     cfg.runID,
		Seq:       seq,
		NodeID:    step.NodeID,
		Key:       step.Key,
		Target:    step.Target,
		State:     snapshot,
		Timestamp: time.Now().UTC(),
	}
	if err := cfg.stepLog.Append(entry); err != nil {
		observability.LogStepLogError(cfg.logger, step.NodeID, err)
		return
	}
	cfg.metrics.RecordStepLogged(ctx, step.NodeID, int64(len(snapshot)))
}
