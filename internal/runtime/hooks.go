package runtime

import (
	"context"
	"time"

	"github.com/meshed/agentgraph/pkg/domain"
)

func (r *run) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: r.engine.now(),
		Type:      t,
		RunID:     r.id,
		Workflow:  r.workflow,
	}
}

func (r *run) emitNodeEnter(ctx context.Context, node string, step int) {
	if r.engine.hooks.OnNodeEnter == nil {
		return
	}
	r.engine.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
		EventBase: r.base(domain.EventNodeEnter),
		NodeID:    node,
		Step:      step,
	})
}

func (r *run) emitNodeLeave(ctx context.Context, s *domain.State, elapsed time.Duration) {
	if r.engine.hooks.OnNodeLeave == nil {
		return
	}
	r.engine.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
		EventBase: r.base(domain.EventNodeLeave),
		NodeID:    s.Cursor,
		Step:      s.Step,
		Fault:     s.Fault,
		Latency:   elapsed,
	})
}

func (r *run) emitRunFinish(ctx context.Context, s *domain.State) {
	if r.engine.hooks.OnRunFinish == nil || s == nil {
		return
	}
	r.engine.hooks.OnRunFinish(ctx, &domain.RunEvent{
		EventBase: r.base(domain.EventRunFinish),
		Steps:     s.Step,
		Fault:     s.Fault,
	})
}
