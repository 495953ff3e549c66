// Package candidate holds the append-only collection of raw extractions.
package candidate

import (
	"sync"

	"github.com/sells-group/bankfacts/internal/model"
)

// Store is the process-wide, append-only candidate collection. Append order
// is preserved; the waterfall uses it to break rank ties.
type Store struct {
	mu      sync.RWMutex
	items   []model.Candidate
	version uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Append adds candidates in the order given. Duplicate instance ids are
// retained; they group under the same logical key at resolution time.
func (s *Store) Append(cs ...model.Candidate) {
	if len(cs) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, cs...)
	s.version++
}

// All returns a snapshot of every candidate in append order.
func (s *Store) All() []model.Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Candidate, len(s.items))
	copy(out, s.items)
	return out
}

// ByKey returns the candidates for one logical fact in append order.
func (s *Store) ByKey(key model.FactKey) []model.Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Candidate
	for _, c := range s.items {
		if c.Key == key {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of stored candidates.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Version changes whenever the candidate set changes.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// ReplaceEstimates removes priority-4 candidates for the given keys and
// appends batch, as one step. Non-estimate candidates are never removed.
// It returns the number of superseded estimates.
func (s *Store) ReplaceEstimates(keys map[model.FactKey]bool, batch []model.Candidate) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0:0]
	removed := 0
	for _, c := range s.items {
		if c.IsEstimate() && keys[c.Key] {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	s.items = append(kept, batch...)
	s.version++
	return removed
}

// Reset discards every candidate.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.version++
}
