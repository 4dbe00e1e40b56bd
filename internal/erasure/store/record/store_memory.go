package record

import (
	"context"
	"sync"

	"minty/internal/erasure/models"
	id "minty/pkg/domain"
	"minty/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store for tests and single-node setups.
type MemoryStore struct {
	mu      sync.RWMutex
	records []models.Record
}

var _ Store = (*MemoryStore)(nil)

func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, record models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *MemoryStore) FindByDeletionID(_ context.Context, deletionID id.DeletionID) (models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, record := range s.records {
		if record.DeletionID == deletionID {
			return record, nil
		}
	}
	return models.Record{}, sentinel.ErrNotFound
}

func (s *MemoryStore) List(_ context.Context) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}
