package ports

import (
	"context"

	"github.com/meshed/agentgraph/pkg/domain"
)

// WorkflowInfo describes a registered workflow for listings.
type WorkflowInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Start       string   `json:"start"`
	Nodes       []string `json:"nodes"`
	MaxSteps    int      `json:"max_steps"`
}

// WorkflowService is the driving port used by outer surfaces (HTTP, MCP).
// It runs named workflows to completion and exposes their records.
type WorkflowService interface {
	// Workflows lists the workflows that can be started.
	Workflows() []WorkflowInfo

	// Start runs the named workflow with the given initial request and fields.
	// It returns an error only when the workflow is unknown or invalid; run faults
	// are reported inside the record.
	Start(ctx context.Context, workflow string, request string, fields map[string]any) (*domain.RunRecord, error)

	// Graph renders the named workflow as a Mermaid flowchart.
	Graph(workflow string) (string, error)

	// Runs gives access to stored run records.
	Runs() RunStore
}

// StreamingService is implemented by services that report every step of a run
// while it executes. onStep receives the previous snapshot (nil first) and the new one.
type StreamingService interface {
	WorkflowService
	StartStream(ctx context.Context, workflow string, request string, fields map[string]any, onStep func(prev, next *domain.State)) (*domain.RunRecord, error)
}
