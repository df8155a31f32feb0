package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/meshed/agentgraph/pkg/domain"
)

// Store keeps run records in process memory. Safe for concurrent use.
//
// With a capacity set, saving a new run past the limit evicts the run that
// was first saved longest ago. Re-saving an existing ID keeps its position.
type Store struct {
	mu       sync.RWMutex
	records  map[string]*domain.RunRecord
	order    []string
	capacity int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithCapacity bounds how many runs are retained. Zero or less keeps all.
func WithCapacity(n int) StoreOption {
	return func(s *Store) {
		s.capacity = n
	}
}

// NewStore creates an empty in-memory store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{records: make(map[string]*domain.RunRecord)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores a private copy of record.
func (s *Store) Save(ctx context.Context, record *domain.RunRecord) error {
	snapshot := copyRecord(record)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; !exists {
		s.order = append(s.order, record.ID)
		if s.capacity > 0 && len(s.order) > s.capacity {
			evicted := s.order[0]
			s.order = s.order[1:]
			delete(s.records, evicted)
		}
	}
	s.records[record.ID] = snapshot
	return nil
}

// Load returns a copy of the stored record, or ErrRunNotFound.
func (s *Store) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[runID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return copyRecord(record), nil
}

// Delete removes the record. Unknown IDs are ignored.
func (s *Store) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[runID]; !ok {
		return nil
	}
	delete(s.records, runID)
	s.order = slices.DeleteFunc(s.order, func(id string) bool { return id == runID })
	return nil
}

// List returns stored run IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := slices.Collect(maps.Keys(s.records))
	slices.Sort(ids)
	return ids, nil
}

func copyRecord(r *domain.RunRecord) *domain.RunRecord {
	out := *r
	out.Final = r.Final.Clone()
	return &out
}
