package orchestrator

import (
	"sync"

	"github.com/atelleria/sessionwatch/models"
)

// SnapshotStore holds the single shared mutable snapshot. The value is
// replaced whole at the end of each pass, so concurrent readers never
// observe a partially updated snapshot.
type SnapshotStore struct {
	mu   sync.RWMutex
	snap models.LiveSnapshot
}

// NewSnapshotStore creates a store seeded with a disabled snapshot.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Get returns the latest snapshot.
func (s *SnapshotStore) Get() models.LiveSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Replace swaps in a new snapshot as a whole value.
func (s *SnapshotStore) Replace(snap models.LiveSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
}

// Update applies fn to the stored snapshot under the write lock and returns
// the result. Producers that derive a change from the current value (the
// countdown tick) must use this instead of Get+Replace, or a pass replacing
// the store in between would be silently reverted.
func (s *SnapshotStore) Update(fn func(*models.LiveSnapshot)) models.LiveSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.snap)
	return s.snap
}
