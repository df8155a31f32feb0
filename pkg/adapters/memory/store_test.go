package memory_test

import (
	"context"
	"testing"

	"github.com/meshed/agentgraph/pkg/adapters/memory"
	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunRunStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	record := &domain.RunRecord{ID: "r1", Final: domain.NewState(map[string]any{"k": "v"})}
	require.NoError(t, store.Save(ctx, record))

	record.Final.Fields["k"] = "mutated"

	loaded, err := store.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "v", loaded.Final.Fields["k"])
}

func TestMemoryStore_CapacityEvictsOldest(t *testing.T) {
	store := memory.NewStore(memory.WithCapacity(2))
	ctx := context.Background()

	for _, id := range []string{"a", "b", "a", "c"} {
		require.NoError(t, store.Save(ctx, &domain.RunRecord{ID: id}))
	}

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids)

	_, err = store.Load(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)

	require.NoError(t, store.Delete(ctx, "b"))
	require.NoError(t, store.Save(ctx, &domain.RunRecord{ID: "d"}))
	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, ids)
}
