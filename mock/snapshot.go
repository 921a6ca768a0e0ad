package mock

import (
	"context"
	"sync"

	"github.com/fwojciec/crestwatch"
)

var _ crestwatch.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore is a mock implementation of crestwatch.SnapshotStore.
type SnapshotStore struct {
	LoadFn func(ctx context.Context) (crestwatch.UpdateSet, bool, error)
	SaveFn func(ctx context.Context, set crestwatch.UpdateSet) error
}

func (s *SnapshotStore) Load(ctx context.Context) (crestwatch.UpdateSet, bool, error) {
	return s.LoadFn(ctx)
}

func (s *SnapshotStore) Save(ctx context.Context, set crestwatch.UpdateSet) error {
	return s.SaveFn(ctx, set)
}

var _ crestwatch.SnapshotStore = (*MemorySnapshotStore)(nil)

// MemorySnapshotStore is an in-memory crestwatch.SnapshotStore that records
// how many times it was saved.
type MemorySnapshotStore struct {
	mu    sync.Mutex
	set   crestwatch.UpdateSet
	ok    bool
	saves int
}

// NewMemorySnapshotStore returns a store holding set, or an empty store if
// set is nil.
func NewMemorySnapshotStore(set crestwatch.UpdateSet) *MemorySnapshotStore {
	return &MemorySnapshotStore{set: set, ok: set != nil}
}

func (s *MemorySnapshotStore) Load(_ context.Context) (crestwatch.UpdateSet, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(crestwatch.UpdateSet(nil), s.set...), s.ok, nil
}

func (s *MemorySnapshotStore) Save(_ context.Context, set crestwatch.UpdateSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = append(crestwatch.UpdateSet{}, set...)
	s.ok = true
	s.saves++
	return nil
}

// Saves returns the number of successful Save calls.
func (s *MemorySnapshotStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
