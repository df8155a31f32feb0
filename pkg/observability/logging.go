package observability

import (
	"context"
	"log/slog"

	"github.com/meshed/agentgraph/pkg/domain"
)

// LoggingHooks writes one structured line per lifecycle event.
// Node and adapter events log at debug level; faults and run completion at info or warn.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter", "run_id", e.RunID, "node_id", e.NodeID, "step", e.Step)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			if e.Fault != nil {
				logger.WarnContext(ctx, "node_fault", "run_id", e.RunID, "node_id", e.NodeID, "step", e.Step, "kind", e.Fault.Kind, "err", e.Fault.Message)
				return
			}
			logger.DebugContext(ctx, "node_leave", "run_id", e.RunID, "node_id", e.NodeID, "step", e.Step, "latency", e.Latency)
		},
		OnToolCall: func(ctx context.Context, e *domain.ToolEvent) {
			logger.DebugContext(ctx, "tool_call", "run_id", e.RunID, "node_id", e.NodeID, "capability", e.Capability)
		},
		OnToolReturn: func(ctx context.Context, e *domain.ToolEvent) {
			logger.DebugContext(ctx, "tool_return",
				"run_id", e.RunID,
				"capability", e.Capability,
				"is_error", e.Fault != nil,
				"latency", e.Latency,
			)
		},
		OnModelReturn: func(ctx context.Context, e *domain.ModelEvent) {
			logger.DebugContext(ctx, "model_return",
				"run_id", e.RunID,
				"node_id", e.NodeID,
				"is_error", e.Fault != nil,
				"latency", e.Latency,
			)
		},
		OnRunFinish: func(ctx context.Context, e *domain.RunEvent) {
			if e.Fault != nil {
				logger.WarnContext(ctx, "run_finish", "run_id", e.RunID, "workflow", e.Workflow, "steps", e.Steps, "fault", e.Fault.Kind)
				return
			}
			logger.InfoContext(ctx, "run_finish", "run_id", e.RunID, "workflow", e.Workflow, "steps", e.Steps)
		},
	}
}
