package runs_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/meshed/agentgraph/pkg/adapters/memory"
	"github.com/meshed/agentgraph/pkg/adapters/redis"
	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/ports"
	"github.com/meshed/agentgraph/pkg/runs"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowService simulates a run that takes time and tracks overlap.
type slowService struct {
	store   *memory.Store
	active  atomic.Int32
	overlap atomic.Bool
	count   atomic.Int32
}

func (s *slowService) Workflows() []ports.WorkflowInfo { return nil }
func (s *slowService) Graph(string) (string, error)    { return "", nil }
func (s *slowService) Runs() ports.RunStore            { return s.store }

func (s *slowService) Start(ctx context.Context, workflow, request string, fields map[string]any) (*domain.RunRecord, error) {
	if workflow == "missing" {
		return nil, domain.ErrInvalidWorkflow
	}
	if s.active.Add(1) > 1 {
		s.overlap.Store(true)
	}
	defer s.active.Add(-1)
	time.Sleep(10 * time.Millisecond)

	n := s.count.Add(1)
	record := &domain.RunRecord{ID: "run-" + string(rune('a'+n)), Workflow: workflow, Final: domain.NewState(fields)}
	return record, s.store.Save(ctx, record)
}

func newService() *slowService {
	return &slowService{store: memory.NewStore()}
}

func startConcurrently(t *testing.T, m *runs.Manager, n int, request func(i int) string, fields func(i int) map[string]any) {
	t.Helper()
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.Start(context.Background(), "dbt-migration", request(i), fields(i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
}

func TestManager_SerializesSameRequest(t *testing.T) {
	svc := newService()
	m := runs.NewManager(svc)

	startConcurrently(t, m, 8,
		func(int) string { return "migrate stg_orders" },
		func(int) map[string]any { return nil })

	assert.False(t, svc.overlap.Load(), "runs with the same key must not overlap")
	assert.Equal(t, int32(8), svc.count.Load())
}

func TestManager_FieldKeyWithoutFieldDoesNotLock(t *testing.T) {
	svc := newService()
	m := runs.NewManager(svc, runs.WithKeyFunc(runs.FieldKey("clickhouse_stg_table")))

	startConcurrently(t, m, 8,
		func(int) string { return "same" },
		func(int) map[string]any { return nil })

	assert.Equal(t, int32(8), svc.count.Load())
}

func TestManager_FieldKeySerializes(t *testing.T) {
	svc := newService()
	m := runs.NewManager(svc, runs.WithKeyFunc(runs.FieldKey("clickhouse_stg_table")))

	startConcurrently(t, m, 6,
		func(i int) string { return string(rune('a' + i)) },
		func(int) map[string]any { return map[string]any{"clickhouse_stg_table": "stg_orders"} })

	assert.False(t, svc.overlap.Load())
}

func TestManager_PropagatesErrors(t *testing.T) {
	m := runs.NewManager(newService())
	_, err := m.Start(context.Background(), "missing", "x", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidWorkflow)
}

type failingLocker struct{}

func (failingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	return nil, errors.New("redis down")
}

func TestManager_LockerFailureAbortsStart(t *testing.T) {
	svc := newService()
	m := runs.NewManager(svc, runs.WithLocker(failingLocker{}))

	_, err := m.Start(context.Background(), "dbt-migration", "x", nil)
	assert.ErrorContains(t, err, "distributed lock")
	assert.Equal(t, int32(0), svc.count.Load())
}

func TestManager_DistributedLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()

	svc := newService()
	// Two managers model two replicas sharing one redis.
	a := runs.NewManager(svc, runs.WithLocker(redis.NewLocker(client, "test:")), runs.WithLockTTL(time.Minute))
	b := runs.NewManager(svc, runs.WithLocker(redis.NewLocker(client, "test:")), runs.WithLockTTL(time.Minute))

	var wg sync.WaitGroup
	for _, m := range []*runs.Manager{a, b, a, b} {
		wg.Add(1)
		go func(m *runs.Manager) {
			defer wg.Done()
			_, err := m.Start(context.Background(), "dbt-migration", "migrate stg_orders", nil)
			assert.NoError(t, err)
		}(m)
	}
	wg.Wait()

	assert.False(t, svc.overlap.Load(), "replicas must not overlap")
	assert.False(t, mr.Exists("test:lock:dbt-migration:migrate stg_orders"), "lock released")
}

func TestManager_Delete(t *testing.T) {
	svc := newService()
	m := runs.NewManager(svc)

	record, err := m.Start(context.Background(), "dbt-migration", "x", nil)
	require.NoError(t, err)

	require.NoError(t, m.Delete(context.Background(), record.ID))
	_, err = m.Runs().Load(context.Background(), record.ID)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}
