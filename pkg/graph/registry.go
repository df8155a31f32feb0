package graph

import (
	"sort"

	"github.com/meshed/agentgraph/pkg/domain"
)

// Registry maps node names to implementations. It has no mutating methods.
type Registry struct {
	nodes map[string]domain.Node
}

// NewRegistry copies nodes into a new registry.
func NewRegistry(nodes map[string]domain.Node) *Registry {
	r := &Registry{nodes: make(map[string]domain.Node, len(nodes))}
	for name, n := range nodes {
		r.nodes[name] = n
	}
	return r
}

// Lookup returns the node registered under name.
func (r *Registry) Lookup(name string) (domain.Node, bool) {
	if r == nil {
		return nil, false
	}
	n, ok := r.nodes[name]
	return n, ok && n != nil
}

// Names returns the registered names in lexical order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.nodes))
	for name := range r.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered nodes.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.nodes)
}
