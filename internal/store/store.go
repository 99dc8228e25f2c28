// Package store holds the current spend record set in memory. The store is
// an explicit instance handed to collaborators, not a package-level
// singleton, so tests can construct isolated stores.
package store

import (
	"sort"
	"sync"

	"cloudspend/internal/core"
)

// Store is the process-wide record set: ordered by date descending with
// stable ties, swapped wholesale on upload or reset. The swap is atomic
// relative to readers; a query sees either the pre- or post-swap set, never
// a partially replaced one.
type Store struct {
	mu       sync.RWMutex
	records  []core.SpendRecord
	uploaded bool
}

func New() *Store {
	return &Store{records: []core.SpendRecord{}}
}

// Records returns a snapshot of the current record set, date descending.
func (s *Store) Records() []core.SpendRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.SpendRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the current record count.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Uploaded reports whether the current set came from an upload rather than
// the configured sources.
func (s *Store) Uploaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uploaded
}

// Replace atomically swaps in an externally supplied ("uploaded") set.
func (s *Store) Replace(records []core.SpendRecord) {
	s.swap(records, true)
}

// SetInitial atomically swaps in the source-derived set and clears the
// uploaded marker. Used at startup and on reset.
func (s *Store) SetInitial(records []core.SpendRecord) {
	s.swap(records, false)
}

func (s *Store) swap(records []core.SpendRecord, uploaded bool) {
	sorted := make([]core.SpendRecord, len(records))
	copy(sorted, records)
	// Stable: records on the same date keep their arrival order.
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date.Time)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = sorted
	s.uploaded = uploaded
}
