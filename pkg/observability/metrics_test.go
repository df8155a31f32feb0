package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()
	base := domain.EventBase{RunID: "r1", Workflow: "dbt-migration"}

	hooks.OnNodeEnter(ctx, &domain.NodeEvent{EventBase: base, NodeID: "orchestrator"})
	hooks.OnNodeEnter(ctx, &domain.NodeEvent{EventBase: base, NodeID: "orchestrator"})
	hooks.OnNodeLeave(ctx, &domain.NodeEvent{EventBase: base, NodeID: "orchestrator", Latency: time.Millisecond})
	hooks.OnToolReturn(ctx, &domain.ToolEvent{EventBase: base, Capability: "sheet-query", Latency: 20 * time.Millisecond})
	hooks.OnToolReturn(ctx, &domain.ToolEvent{
		EventBase:  base,
		Capability: "sheet-query",
		Fault:      &domain.Fault{Kind: domain.FaultToolError},
	})
	hooks.OnModelReturn(ctx, &domain.ModelEvent{EventBase: base, NodeID: "extract", Fault: &domain.Fault{Kind: domain.FaultModelError}})
	hooks.OnRunFinish(ctx, &domain.RunEvent{EventBase: base, Steps: 3, Fault: &domain.Fault{Kind: domain.FaultStepLimitExceeded}})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.NodeVisits.WithLabelValues("dbt-migration", "orchestrator")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Faults.WithLabelValues("tool-error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Faults.WithLabelValues("model-error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Faults.WithLabelValues("step-limit-exceeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("dbt-migration", "step-limit-exceeded")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.ToolDuration), "one series per outcome")

	expected := `
# HELP agentgraph_runs_total Finished runs by workflow and outcome.
# TYPE agentgraph_runs_total counter
agentgraph_runs_total{outcome="step-limit-exceeded",workflow="dbt-migration"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "agentgraph_runs_total"))
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.LoggingHooks(logger)
	ctx := context.Background()

	hooks.OnNodeLeave(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{RunID: "r1"},
		NodeID:    "fetch",
		Fault:     &domain.Fault{Kind: domain.FaultToolError, Message: "connection refused"},
	})
	hooks.OnRunFinish(ctx, &domain.RunEvent{EventBase: domain.EventBase{RunID: "r1", Workflow: "greet"}, Steps: 2})

	out := buf.String()
	assert.Contains(t, out, "msg=node_fault")
	assert.Contains(t, out, `err="connection refused"`)
	assert.Contains(t, out, "level=INFO msg=run_finish")
}
