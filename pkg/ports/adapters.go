package ports

import (
	"context"

	"github.com/meshed/agentgraph/pkg/domain"
)

// ToolAdapter invokes a named remote capability.
//
// Results are JSON-compatible values (maps, slices, strings, numbers). Failures should
// be returned as *domain.Fault; any other error is normalized by the calling node.
type ToolAdapter interface {
	Invoke(ctx context.Context, call domain.ToolCall) (any, error)
}

// CapabilityLister is implemented by tool adapters that can describe what they serve.
type CapabilityLister interface {
	ListCapabilities(ctx context.Context) ([]domain.Capability, error)
}

// ModelAdapter sends an already rendered prompt to a language model.
// Structured output is parsed by the node, never by the adapter.
type ModelAdapter interface {
	Generate(ctx context.Context, call domain.ModelCall) (string, error)
}

// ToolFunc adapts a plain function to ToolAdapter.
type ToolFunc func(ctx context.Context, call domain.ToolCall) (any, error)

// Invoke calls f.
func (f ToolFunc) Invoke(ctx context.Context, call domain.ToolCall) (any, error) {
	return f(ctx, call)
}

// ModelFunc adapts a plain function to ModelAdapter.
type ModelFunc func(ctx context.Context, call domain.ModelCall) (string, error)

// Generate calls f.
func (f ModelFunc) Generate(ctx context.Context, call domain.ModelCall) (string, error) {
	return f(ctx, call)
}
