package services

import (
	"context"
	"sync"
	"sync/atomic"

	"spendlog/internal/core"
	"spendlog/internal/kv"
)

// Snapshot is a disposable in-memory copy of the persisted records and
// categories. It is rebuilt from storage on Refresh; Version increases on
// every rebuild that is applied.
type Snapshot struct {
	accessor *Accessor
	started  atomic.Uint64

	mu         sync.RWMutex
	records    []core.Record
	categories []string
	version    uint64
	applied    uint64
}

func NewSnapshot(accessor *Accessor) *Snapshot {
	return &Snapshot{accessor: accessor}
}

// Refresh reloads both collections from storage. Refreshes may overlap; a
// result is discarded when a refresh started later has already been applied.
// Loads run outside the lock: initializing a missing key writes to storage,
// which may call Refresh again on the same goroutine.
func (s *Snapshot) Refresh(ctx context.Context) {
	gen := s.started.Add(1)
	records := s.accessor.LoadRecords(ctx)
	categories := s.accessor.LoadCategories(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen < s.applied {
		return
	}
	s.applied = gen
	s.records = records
	s.categories = categories
	s.version++
}

// Data returns the current collections and their version. Callers must not
// modify the returned slices.
func (s *Snapshot) Data() (records []core.Record, categories []string, version uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records, s.categories, s.version
}

// Version returns the number of applied refreshes.
func (s *Snapshot) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Watch refreshes the snapshot whenever either tracked key changes. The
// returned func stops watching.
func (s *Snapshot) Watch(n kv.Notifier) func() {
	refresh := func(string) { s.Refresh(context.Background()) }
	cancels := make([]func(), 0, len(kv.TrackedKeys))
	for _, key := range kv.TrackedKeys {
		cancels = append(cancels, n.OnChange(key, refresh))
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}
