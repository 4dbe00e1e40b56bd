// Package history keeps the in-process, append-only log of sealed erasure
// runs. It is deliberately not durable: the PII-stripped record store is the
// artifact that survives restarts, while full results (which still carry the
// subject identifier) live only as long as the process.
package history

import (
	"sync"

	"minty/internal/erasure/models"
	id "minty/pkg/domain"
)

// Store is an append-only collection of sealed DeletionResults in run order.
// Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	results []models.DeletionResult
	byID    map[id.DeletionID]int
}

// New creates an empty history.
func New() *Store {
	return &Store{byID: make(map[id.DeletionID]int)}
}

// Append records a sealed result. Results are stored by value so later
// mutation of the caller's copy cannot reach into history.
func (s *Store) Append(result models.DeletionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[result.ID] = len(s.results)
	s.results = append(s.results, result)
}

// FindByID returns the sealed result for a deletion ID.
func (s *Store) FindByID(deletionID id.DeletionID) (models.DeletionResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[deletionID]
	if !ok {
		return models.DeletionResult{}, false
	}
	return s.results[idx], true
}

// List returns a copy of all sealed results in run order.
func (s *Store) List() []models.DeletionResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.DeletionResult, len(s.results))
	copy(out, s.results)
	return out
}

// Len returns the number of sealed results.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}
