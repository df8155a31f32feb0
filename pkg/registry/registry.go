package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/meshed/agentgraph/pkg/domain"
)

// ToolFunction defines the signature for an in-process tool implementation.
// It receives a context and a map of arguments, and returns a result or error.
type ToolFunction func(ctx context.Context, args map[string]any) (any, error)

type entry struct {
	fn   ToolFunction
	info domain.Capability
}

// Registry serves in-process capabilities through ports.ToolAdapter.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]entry
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]entry),
	}
}

// Register adds a tool to the registry.
// If a tool with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn ToolFunction) {
	r.RegisterCapability(domain.Capability{Name: name}, fn)
}

// RegisterCapability adds a tool together with its description.
func (r *Registry) RegisterCapability(info domain.Capability, fn ToolFunction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[info.Name] = entry{fn: fn, info: info}
}

// Invoke looks up a capability by name and executes it.
func (r *Registry) Invoke(ctx context.Context, call domain.ToolCall) (any, error) {
	r.mu.RLock()
	e, ok := r.tools[call.Capability]
	r.mu.RUnlock()

	if !ok {
		return nil, &domain.Fault{
			Kind:    domain.FaultToolError,
			Code:    domain.CodeNotFound,
			Message: fmt.Sprintf("%s: %s", domain.ErrUnknownCapability, call.Capability),
		}
	}

	return e.fn(ctx, call.Args)
}

// ListCapabilities implements ports.CapabilityLister.
func (r *Registry) ListCapabilities(ctx context.Context) ([]domain.Capability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps := make([]domain.Capability, 0, len(r.tools))
	for _, e := range r.tools {
		caps = append(caps, e.info)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i].Name < caps[j].Name })
	return caps, nil
}
