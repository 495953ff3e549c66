package store

import (
	"context"
	"sync"

	"github.com/sells-group/bankfacts/internal/model"
)

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	statuses   model.StatusMap
	candidates []model.Candidate
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{statuses: make(model.StatusMap)}
}

func (m *MemoryStore) LoadStatuses(_ context.Context) (model.StatusMap, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(model.StatusMap, len(m.statuses))
	for k, v := range m.statuses {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) SaveStatus(_ context.Context, key model.FactKey, st model.ValidationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[key] = st
	return nil
}

func (m *MemoryStore) SaveStatuses(_ context.Context, sm model.StatusMap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range sm {
		m.statuses[k] = v
	}
	return nil
}

func (m *MemoryStore) DeleteAllStatuses(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = make(model.StatusMap)
	return nil
}

func (m *MemoryStore) SaveCandidates(_ context.Context, cs []model.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidates = append([]model.Candidate(nil), cs...)
	return nil
}

func (m *MemoryStore) LoadCandidates(_ context.Context) ([]model.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Candidate(nil), m.candidates...), nil
}

func (m *MemoryStore) Migrate(_ context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
