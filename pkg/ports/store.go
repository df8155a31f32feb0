package ports

import (
	"context"

	"github.com/meshed/agentgraph/pkg/domain"
)

// RunStore defines the interface for persisting finished run records.
// Records are artifacts for inspection; they are never used to resume a run.
type RunStore interface {
	// Save persists the record under record.ID, replacing any previous value.
	Save(ctx context.Context, record *domain.RunRecord) error

	// Load retrieves the record for a run ID.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.RunRecord, error)

	// Delete removes the record for a run ID.
	Delete(ctx context.Context, runID string) error

	// List returns the IDs of all stored runs.
	List(ctx context.Context) ([]string, error)
}
