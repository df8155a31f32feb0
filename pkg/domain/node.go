package domain

import "context"

// Terminal is the router signal that ends a run.
const Terminal = "__terminal__"

// Node is a unit of work in a workflow.
//
// Execute receives the current snapshot and returns the next one. Adapter faults
// must be captured into the returned state (trace entry plus optional Fault), never
// returned or panicked.
type Node interface {
	Execute(ctx context.Context, s *State) *State
}

// NodeFunc adapts a plain function to Node.
type NodeFunc func(ctx context.Context, s *State) *State

// Execute calls f.
func (f NodeFunc) Execute(ctx context.Context, s *State) *State {
	return f(ctx, s)
}

// Router chooses the node that runs after the current one, or Terminal.
// It must be decidable from the state alone.
type Router interface {
	Next(s *State) string
}

// RouterFunc adapts a plain function to Router.
type RouterFunc func(s *State) string

// Next calls f.
func (f RouterFunc) Next(s *State) string {
	return f(s)
}
