package ports

import (
	"context"
	"testing"
	"time"

	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRunStoreContract runs a suite of tests to verify that a RunStore implementation
// adheres to the defined interface contract.
func RunRunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	runID := "contract-test-run-" + time.Now().Format("20060102150405")

	newRecord := func(id string) *domain.RunRecord {
		final := domain.NewState(map[string]any{"staging_table": "stg_orders", "count": 42}).
			WithCursor("summarize").
			Append(domain.RoleHuman, domain.KindText, "migrate stg_orders")
		final.RunID = id
		return &domain.RunRecord{
			ID:         id,
			Workflow:   "contract",
			StartedAt:  time.Now().UTC().Add(-time.Second),
			FinishedAt: time.Now().UTC(),
			Steps:      3,
			Final:      final,
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		record := newRecord(runID)

		err := store.Save(ctx, record)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, record.Workflow, loaded.Workflow)
		assert.Equal(t, record.Steps, loaded.Steps)
		require.NotNil(t, loaded.Final)
		assert.Equal(t, "summarize", loaded.Final.Cursor)
		assert.Equal(t, "stg_orders", loaded.Final.Fields["staging_table"])
		// JSON backed stores turn ints into float64; only presence is part of the contract.
		assert.NotNil(t, loaded.Final.Fields["count"])
		require.Len(t, loaded.Final.Trace, 1)
		assert.Equal(t, domain.RoleHuman, loaded.Final.Trace[0].Role)
	})

	t.Run("Fault Survives", func(t *testing.T) {
		id := runID + "-fault"
		record := newRecord(id)
		record.Final = record.Final.WithFault(domain.NewFault(domain.FaultToolError, "connection refused"))
		require.NoError(t, store.Save(ctx, record))
		defer func() { _ = store.Delete(ctx, id) }()

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, loaded.Fault())
		assert.Equal(t, domain.FaultToolError, loaded.Fault().Kind)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, newRecord(runID))
		require.NoError(t, err)

		err = store.Delete(ctx, runID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		_ = store.Save(ctx, newRecord(id1))
		_ = store.Save(ctx, newRecord(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})
}
