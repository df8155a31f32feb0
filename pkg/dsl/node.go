package dsl

import (
	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/graph"
)

// NodeBuilder provides a fluent API for routing out of one node.
type NodeBuilder struct {
	name  string
	node  domain.Node
	route *graph.Route
}

// Go adds an unconditional transition to the target node.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.route.Otherwise(target)
	return n
}

// Branch adds a conditional transition to the target node.
// Branches are tried in the order they are declared, before Go.
func (n *NodeBuilder) Branch(pred graph.Predicate, target string) *NodeBuilder {
	n.route.When(pred, target)
	return n
}

// Error sets the recovery target taken when the node leaves a fault.
func (n *NodeBuilder) Error(target string) *NodeBuilder {
	n.route.OnFault(target)
	return n
}

// Terminal marks the node as the end of the flow.
func (n *NodeBuilder) Terminal() *NodeBuilder {
	n.route.End()
	return n
}

// Name returns the node name.
func (n *NodeBuilder) Name() string {
	return n.name
}
