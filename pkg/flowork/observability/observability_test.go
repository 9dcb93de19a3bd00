package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEnrichLogger tests run context enrichment.
func TestEnrichLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	enriched := EnrichLogger(logger, "run-1", "node-a")
	require.NotNil(t, enriched)
	enriched.Info("test message")

	out := buf.String()
	assert.Contains(t, out, "run_id=run-1")
	assert.Contains(t, out, "node_id=node-a")

	assert.Nil(t, EnrichLogger(nil, "run-1", "node-a"))
}

// TestLogHelpers_NilLoggerSafe tests that every helper tolerates a nil
// logger.
func TestLogHelpers_NilLoggerSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		LogRunStart(nil, "r", "w")
		LogRunComplete(nil, "r", 1.0, 3, true)
		LogNodeStart(nil, "n", "Name")
		LogNodeComplete(nil, "n", 1.0)
		LogNodeFailure(nil, "n", "cause")
		LogRoute(nil, "n", "key", "target")
		LogStepLogError(nil, "n", errors.New("boom"))
	})
}

// TestLogRunComplete_Fields tests the run completion record.
func TestLogRunComplete_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	LogRunComplete(logger, "run-1", 42.5, 7, false)

	out := buf.String()
	assert.Contains(t, out, "run_id=run-1")
	assert.Contains(t, out, "steps=7")
	assert.Contains(t, out, "reached_terminal=false")
}

// TestNoopMetrics tests that the no-op recorder is callable.
func TestNoopMetrics(t *testing.T) {
	var m MetricsRecorder = NoopMetrics{}
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordNodeExecution(ctx, "n", time.Second, false)
		m.RecordRun(ctx, true, time.Second)
		m.RecordStepLogged(ctx, "n", 128)
	})
}

// TestNoopSpanManager tests the no-op span lifecycle.
func TestNoopSpanManager(t *testing.T) {
	var sm SpanManager = NoopSpanManager{}
	ctx := context.Background()

	runCtx, runSpan := sm.StartRunSpan(ctx, "wf", "run")
	assert.Equal(t, ctx, runCtx)
	require.NotNil(t, runSpan)

	nodeCtx, nodeSpan := sm.StartNodeSpan(runCtx, "n")
	assert.Equal(t, runCtx, nodeCtx)

	assert.NotPanics(t, func() {
		sm.EndSpanWithError(nodeSpan, errors.New("boom"))
		sm.EndSpanWithError(runSpan, nil)
		sm.AddSpanEvent(ctx, "event")
	})
}

// TestNewMetricsRecorder tests that construction never fails even
// without a configured meter provider.
func TestNewMetricsRecorder(t *testing.T) {
	m := NewMetricsRecorder()
	require.NotNil(t, m)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordNodeExecution(ctx, "n", time.Millisecond, true)
		m.RecordRun(ctx, false, time.Millisecond)
	})
}
