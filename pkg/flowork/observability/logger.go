// Package observability provides structured logging, metrics, and
// tracing for workflow runs.
//
// Logging uses slog (Go stdlib); metrics and tracing use OpenTelemetry.
// Both have no-op implementations for when they are disabled.
package observability

import "log/slog"

// EnrichLogger adds run context to a logger.
// Returns a new logger with run_id and node_id fields.
func EnrichLogger(logger *slog.Logger, runID, nodeID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("node_id", nodeID),
	)
}

// LogRunStart logs the start of a workflow run.
func LogRunStart(logger *slog.Logger, runID, workflowID string) {
	if logger == nil {
		return
	}
	logger.Info("workflow run starting",
		slog.String("run_id", runID),
		slog.String("workflow_id", workflowID),
	)
}

// LogRunComplete logs run completion, successful or not. A run that
// exhausts its recursion limit completes with terminal=false.
func LogRunComplete(logger *slog.Logger, runID string, durationMs float64, steps int, terminal bool) {
	if logger == nil {
		return
	}
	logger.Info("workflow run completed",
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("steps", steps),
		slog.Bool("reached_terminal", terminal),
	)
}

// LogNodeStart logs node execution start.
func LogNodeStart(logger *slog.Logger, nodeID, nodeName string) {
	if logger == nil {
		return
	}
	logger.Debug("node starting",
		slog.String("node_id", nodeID),
		slog.String("node_name", nodeName),
	)
}

// LogNodeComplete logs node completion.
func LogNodeComplete(logger *slog.Logger, nodeID string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("node completed",
		slog.String("node_id", nodeID),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogNodeFailure logs a soft node failure. The run continues through
// the node's error route, so this is a warning, not an error.
func LogNodeFailure(logger *slog.Logger, nodeID, cause string) {
	if logger == nil {
		return
	}
	logger.Warn("node failed, routing via error key",
		slog.String("node_id", nodeID),
		slog.String("cause", cause),
	)
}

// LogRoute logs a routing decision.
func LogRoute(logger *slog.Logger, nodeID, key, target string) {
	if logger == nil {
		return
	}
	logger.Debug("routing decision",
		slog.String("node_id", nodeID),
		slog.String("key", key),
		slog.String("target", target),
	)
}

// LogStepLogError logs a step-log write failure (non-fatal).
func LogStepLogError(logger *slog.Logger, nodeID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("step log write failed",
		slog.String("node_id", nodeID),
		slog.String("error", err.Error()),
	)
}
