package flowork

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/floworkhq/flowork/pkg/flowork/observability"
	"github.com/floworkhq/flowork/pkg/flowork/steplog"
)

// runConfig holds per-run settings assembled from RunOptions.
type runConfig struct {
	runID          string
	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	tracingEnabled bool
	stepLog        steplog.Store
}

// RunOption configures a single Run invocation.
type RunOption func(*runConfig)

func (cg *CompiledGraph) defaultRunConfig() runConfig {
	return runConfig{
		runID:   uuid.New().String(),
		logger:  cg.logger,
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// WithRunID sets an explicit run identifier instead of a generated
// UUID. Useful for correlating runs with external request IDs.
func WithRunID(id string) RunOption {
	return func(cfg *runConfig) {
		if id != "" {
			cfg.runID = id
		}
	}
}

// WithRunLogger overrides the compiler's logger for this run.
func WithRunLogger(logger *slog.Logger) RunOption {
	return func(cfg *runConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithMetrics records per-node and per-run metrics to the given
// recorder.
func WithMetrics(m observability.MetricsRecorder) RunOption {
	return func(cfg *runConfig) {
		if m != nil {
			cfg.metrics = m
		}
	}
}

// WithTracing enables span creation for the run and each node
// execution.
func WithTracing(sm observability.SpanManager) RunOption {
	return func(cfg *runConfig) {
		if sm != nil {
			cfg.spans = sm
			cfg.tracingEnabled = true
		}
	}
}

// WithStepLog persists every routing step and state snapshot to the
// given store, enabling replay and resume.
func WithStepLog(store steplog.Store) RunOption {
	return func(cfg *runConfig) {
		cfg.stepLog = store
	}
}
