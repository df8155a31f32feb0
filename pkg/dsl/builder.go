package dsl

import (
	"context"
	"fmt"

	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/graph"
)

// Builder manages workflow construction.
type Builder struct {
	name        string
	description string
	start       string
	maxSteps    int
	fields      map[string]any

	nodes map[string]*NodeBuilder
	order []string
	table *graph.Table
}

// New creates a new workflow builder.
func New(name string) *Builder {
	return &Builder{
		name:     name,
		maxSteps: graph.DefaultMaxSteps,
		nodes:    make(map[string]*NodeBuilder),
		table:    graph.NewTable(),
	}
}

// Describe sets the workflow description shown in listings.
func (b *Builder) Describe(text string) *Builder {
	b.description = text
	return b
}

// Start sets the entry node. Defaults to the first node added.
func (b *Builder) Start(name string) *Builder {
	b.start = name
	return b
}

// MaxSteps sets the step cap.
func (b *Builder) MaxSteps(n int) *Builder {
	b.maxSteps = n
	return b
}

// Field sets a default initial field.
func (b *Builder) Field(key string, value any) *Builder {
	if b.fields == nil {
		b.fields = make(map[string]any)
	}
	b.fields[key] = value
	return b
}

// Add registers a node under name and returns its builder.
// If the name already exists, the existing builder is returned and node is ignored.
func (b *Builder) Add(name string, node domain.Node) *NodeBuilder {
	if nb, ok := b.nodes[name]; ok {
		return nb
	}
	nb := &NodeBuilder{
		name:  name,
		node:  node,
		route: b.table.Route(name),
	}
	b.nodes[name] = nb
	b.order = append(b.order, name)
	return nb
}

// Func registers a plain function as a node.
func (b *Builder) Func(name string, fn func(ctx context.Context, s *domain.State) *domain.State) *NodeBuilder {
	return b.Add(name, domain.NodeFunc(fn))
}

// Build compiles the workflow and checks it, including router totality.
func (b *Builder) Build() (*graph.Workflow, error) {
	nodes := make(map[string]domain.Node, len(b.nodes))
	for name, nb := range b.nodes {
		if nb.node == nil {
			return nil, fmt.Errorf("%w: node %q has no implementation", domain.ErrInvalidWorkflow, name)
		}
		nodes[name] = nb.node
	}

	start := b.start
	if start == "" && len(b.order) > 0 {
		start = b.order[0]
	}

	wf := &graph.Workflow{
		Name:        b.name,
		Description: b.description,
		Start:       start,
		Nodes:       graph.NewRegistry(nodes),
		Router:      b.table,
		MaxSteps:    b.maxSteps,
		Fields:      b.fields,
	}
	if err := wf.Check(); err != nil {
		return nil, fmt.Errorf("failed to build workflow: %w", err)
	}
	return wf, nil
}
