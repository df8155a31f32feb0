package nodekit

import (
	"context"
	"log/slog"
	"time"

	"github.com/meshed/agentgraph/internal/logging"
	"github.com/meshed/agentgraph/pkg/domain"
)

type runKey struct{}

// RunInfo is the run metadata the engine attaches to a node's context.
type RunInfo struct {
	RunID    string
	Workflow string
	Node     string
	Logger   *slog.Logger
	Hooks    domain.LifecycleHooks
	Now      func() time.Time
}

// WithRun returns a context carrying info.
func WithRun(ctx context.Context, info RunInfo) context.Context {
	return context.WithValue(ctx, runKey{}, info)
}

// Run extracts the run metadata from ctx. Outside a run it returns a zero RunInfo
// with a no-op logger.
func Run(ctx context.Context) RunInfo {
	if info, ok := ctx.Value(runKey{}).(RunInfo); ok {
		if info.Logger == nil {
			info.Logger = logging.NewNop()
		}
		return info
	}
	return RunInfo{Logger: logging.NewNop()}
}

// Logger returns the run logger, already scoped to the run and node.
func Logger(ctx context.Context) *slog.Logger {
	return Run(ctx).Logger
}

func (r RunInfo) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

func (r RunInfo) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: r.now(),
		Type:      t,
		RunID:     r.RunID,
		Workflow:  r.Workflow,
	}
}
