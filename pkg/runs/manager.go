package runs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/meshed/agentgraph/internal/logging"
	"github.com/meshed/agentgraph/pkg/domain"
	"github.com/meshed/agentgraph/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 5 * time.Minute

// KeyFunc derives the exclusivity key of a run start. An empty key disables locking.
type KeyFunc func(workflow, request string, fields map[string]any) string

// RequestKey serializes runs of the same workflow with the same request text.
func RequestKey(workflow, request string, fields map[string]any) string {
	return workflow + ":" + strings.TrimSpace(request)
}

// FieldKey serializes runs of the same workflow sharing the value of an initial field.
// Starts without the field are not locked.
func FieldKey(field string) KeyFunc {
	return func(workflow, request string, fields map[string]any) string {
		v, ok := fields[field]
		if !ok || v == nil {
			return ""
		}
		return fmt.Sprintf("%s:%v", workflow, v)
	}
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes run starts by key.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	service ports.WorkflowService

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker ports.DistributedLocker
	ttl    time.Duration
	key    KeyFunc
	logger *slog.Logger
}

var _ ports.StreamingService = (*Manager)(nil)

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the distributed lock TTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

// WithKeyFunc replaces RequestKey.
func WithKeyFunc(fn KeyFunc) Option {
	return func(m *Manager) {
		m.key = fn
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager wraps service.
func NewManager(service ports.WorkflowService, opts ...Option) *Manager {
	m := &Manager{
		service: service,
		locks:   make(map[string]*lockEntry),
		ttl:     DefaultLockTTL,
		key:     RequestKey,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Workflows delegates to the service.
func (m *Manager) Workflows() []ports.WorkflowInfo {
	return m.service.Workflows()
}

// Graph delegates to the service.
func (m *Manager) Graph(workflow string) (string, error) {
	return m.service.Graph(workflow)
}

// Runs delegates to the service.
func (m *Manager) Runs() ports.RunStore {
	return m.service.Runs()
}

// Start runs the workflow while holding the lock for its key.
func (m *Manager) Start(ctx context.Context, workflow string, request string, fields map[string]any) (*domain.RunRecord, error) {
	return m.StartStream(ctx, workflow, request, fields, nil)
}

// StartStream is Start reporting every step. Steps are only reported when the
// wrapped service implements ports.StreamingService.
func (m *Manager) StartStream(ctx context.Context, workflow string, request string, fields map[string]any, onStep func(prev, next *domain.State)) (*domain.RunRecord, error) {
	start := func(ctx context.Context) (*domain.RunRecord, error) {
		if s, ok := m.service.(ports.StreamingService); ok && onStep != nil {
			return s.StartStream(ctx, workflow, request, fields, onStep)
		}
		return m.service.Start(ctx, workflow, request, fields)
	}

	key := m.key(workflow, request, fields)
	if key == "" {
		return start(ctx)
	}

	var record *domain.RunRecord
	err := m.WithLock(ctx, key, func(ctx context.Context) error {
		var err error
		record, err = start(ctx)
		return err
	})
	return record, err
}

// Delete removes a stored run while holding the lock for its ID.
func (m *Manager) Delete(ctx context.Context, runID string) error {
	return m.WithLock(ctx, "run:"+runID, func(ctx context.Context) error {
		return m.service.Runs().Delete(ctx, runID)
	})
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(key) after unlocking.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

// WithLock executes fn while holding the local and, if configured, distributed lock for key.
func (m *Manager) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := m.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(key)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, key, m.ttl)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// The run context may be done by now; release regardless.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"key", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
