package graph

import (
	"fmt"

	"github.com/meshed/agentgraph/pkg/domain"
)

// DefaultMaxSteps bounds runs whose definition leaves MaxSteps unset.
const DefaultMaxSteps = 25

// Workflow is a complete, runnable definition.
type Workflow struct {
	Name        string
	Description string
	Start       string
	Nodes       *Registry
	Router      domain.Router

	// MaxSteps caps the number of node executions of one run.
	MaxSteps int

	// Fields are merged under the caller's initial fields at run start.
	Fields map[string]any
}

// Validate performs the checks the engine requires before the first step.
func (w *Workflow) Validate() error {
	if w == nil {
		return fmt.Errorf("%w: nil workflow", domain.ErrInvalidWorkflow)
	}
	if w.Nodes == nil || w.Nodes.Len() == 0 {
		return fmt.Errorf("%w: %q has no nodes", domain.ErrInvalidWorkflow, w.Name)
	}
	if w.Router == nil {
		return fmt.Errorf("%w: %q has no router", domain.ErrInvalidWorkflow, w.Name)
	}
	if w.MaxSteps <= 0 {
		return fmt.Errorf("%w: max steps must be positive, got %d", domain.ErrInvalidWorkflow, w.MaxSteps)
	}
	if _, ok := w.Nodes.Lookup(w.Start); !ok {
		return fmt.Errorf("%w: start node %q", domain.ErrUnknownNode, w.Start)
	}
	return nil
}

// Check is Validate plus router table totality, when the router is a Table.
func (w *Workflow) Check() error {
	if err := w.Validate(); err != nil {
		return err
	}
	if t, ok := w.Router.(*Table); ok {
		if err := t.Validate(w.Nodes); err != nil {
			return fmt.Errorf("workflow %q: %w", w.Name, err)
		}
	}
	return nil
}

// Initial builds the first state of a run from the workflow defaults, the caller's
// fields and the human request. An empty request adds no trace entry.
func (w *Workflow) Initial(request string, fields map[string]any) *domain.State {
	merged := make(map[string]any, len(w.Fields)+len(fields))
	for k, v := range w.Fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	s := domain.NewState(merged)
	if request != "" {
		s = s.AppendMessage(domain.HumanMessage(request))
	}
	return s
}
