package nodekit

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/meshed/agentgraph/pkg/domain"
)

// Guard wraps node so that a panic, or a nil result, becomes a node-panic fault on
// the input state instead of crashing the run.
func Guard(node domain.Node) domain.Node {
	return domain.NodeFunc(func(ctx context.Context, s *domain.State) (out *domain.State) {
		defer func() {
			if r := recover(); r != nil {
				Logger(ctx).Error("Node panicked", "panic", r, "stack", string(debug.Stack()))
				out = s.WithFault(domain.NewFault(domain.FaultNodePanic, "panic: %v", r))
			}
		}()
		out = node.Execute(ctx, s)
		if out == nil {
			out = s.WithFault(domain.NewFault(domain.FaultNodePanic, "node returned no state"))
		}
		return out
	})
}

// Describe is a convenience for nodes that only append a system note.
func Describe(s *domain.State, format string, args ...any) *domain.State {
	return s.Append(domain.RoleSystem, domain.KindText, fmt.Sprintf(format, args...))
}
