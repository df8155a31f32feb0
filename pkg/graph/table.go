package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/meshed/agentgraph/pkg/domain"
)

// EdgeKind distinguishes how an edge is taken.
type EdgeKind string

const (
	EdgeRule    EdgeKind = "rule"
	EdgeDefault EdgeKind = "default"
	EdgeFault   EdgeKind = "fault"
)

// Edge is one possible transition of a Table, used for exports and validation.
type Edge struct {
	From  string
	To    string
	Label string
	Kind  EdgeKind
}

type rule struct {
	pred   Predicate
	target string
}

// Route is the routing declaration for one cursor.
type Route struct {
	cursor   string
	rules    []rule
	fallback string
	onFault  string
}

// When adds a rule: if pred holds, go to target. Rules are tried in declaration order.
func (r *Route) When(pred Predicate, target string) *Route {
	r.rules = append(r.rules, rule{pred: pred, target: target})
	return r
}

// Otherwise sets the target used when no rule matches.
func (r *Route) Otherwise(target string) *Route {
	r.fallback = target
	return r
}

// End declares the cursor terminal when no rule matches.
func (r *Route) End() *Route {
	return r.Otherwise(domain.Terminal)
}

// OnFault sets the recovery target taken when the state carries a fault.
// Without it a faulted state ends the run.
func (r *Route) OnFault(target string) *Route {
	r.onFault = target
	return r
}

// Table is a declarative router: per-cursor ordered rules, a default, and an
// optional fault recovery target. It implements domain.Router.
//
// A Table must not be modified once a run uses it.
type Table struct {
	routes map[string]*Route
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{routes: make(map[string]*Route)}
}

// Route returns the declaration for cursor, creating it on first use.
func (t *Table) Route(cursor string) *Route {
	if r, ok := t.routes[cursor]; ok {
		return r
	}
	r := &Route{cursor: cursor}
	t.routes[cursor] = r
	return r
}

// Next implements domain.Router.
//
// A faulted state goes to the cursor's recovery target or ends the run. Otherwise the
// first matching rule wins, then the default. An undecided route returns "", which the
// engine reports as an unknown-node fault.
func (t *Table) Next(s *domain.State) string {
	r := t.routes[s.Cursor]
	if s.Fault != nil {
		if r != nil && r.onFault != "" {
			return r.onFault
		}
		return domain.Terminal
	}
	if r == nil {
		return ""
	}
	for _, rl := range r.rules {
		if rl.pred.Test != nil && rl.pred.Test(s) {
			return rl.target
		}
	}
	return r.fallback
}

// Edges lists every declared transition, ordered by source then declaration.
func (t *Table) Edges() []Edge {
	var edges []Edge
	for _, cursor := range t.cursors() {
		r := t.routes[cursor]
		for _, rl := range r.rules {
			edges = append(edges, Edge{From: cursor, To: rl.target, Label: rl.pred.Label, Kind: EdgeRule})
		}
		if r.fallback != "" {
			edges = append(edges, Edge{From: cursor, To: r.fallback, Kind: EdgeDefault})
		}
		if r.onFault != "" {
			edges = append(edges, Edge{From: cursor, To: r.onFault, Label: "fault", Kind: EdgeFault})
		}
	}
	return edges
}

func (t *Table) cursors() []string {
	cursors := make([]string, 0, len(t.routes))
	for c := range t.routes {
		cursors = append(cursors, c)
	}
	sort.Strings(cursors)
	return cursors
}

// Validate checks the table against reg: every node has a route with a default,
// every route belongs to a node, every target exists or is terminal, and every
// rule has a test. All problems are reported together.
func (t *Table) Validate(reg *Registry) error {
	var errs []error

	for _, name := range reg.Names() {
		r, ok := t.routes[name]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: node %q has no route", domain.ErrInvalidWorkflow, name))
			continue
		}
		if r.fallback == "" {
			errs = append(errs, fmt.Errorf("%w: route %q has no default target", domain.ErrInvalidWorkflow, name))
		}
	}

	for _, cursor := range t.cursors() {
		if _, ok := reg.Lookup(cursor); !ok {
			errs = append(errs, fmt.Errorf("%w: route declared for %q", domain.ErrUnknownNode, cursor))
		}
		for i, rl := range t.routes[cursor].rules {
			if rl.pred.Test == nil {
				errs = append(errs, fmt.Errorf("%w: rule %d of %q has no test", domain.ErrInvalidWorkflow, i, cursor))
			}
		}
	}

	for _, e := range t.Edges() {
		if e.To == domain.Terminal {
			continue
		}
		if _, ok := reg.Lookup(e.To); !ok {
			errs = append(errs, fmt.Errorf("%w: %q routes to %q", domain.ErrUnknownNode, e.From, e.To))
		}
	}

	return errors.Join(errs...)
}
