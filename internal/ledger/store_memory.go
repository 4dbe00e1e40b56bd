package ledger

import (
	"context"
	"sort"
	"sync"

	id "minty/pkg/domain"
	"minty/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store for one domain. Safe for concurrent use.
type MemoryStore struct {
	domain Domain

	mu    sync.RWMutex
	items map[id.ItemID]Item
}

// NewMemoryStore creates an empty in-memory store for the given domain.
func NewMemoryStore(domain Domain) *MemoryStore {
	return &MemoryStore{
		domain: domain,
		items:  make(map[id.ItemID]Item),
	}
}

// Domain returns the data domain this store holds.
func (s *MemoryStore) Domain() Domain {
	return s.domain
}

func (s *MemoryStore) Put(_ context.Context, item Item) error {
	if item.ID.IsNil() {
		item.ID = id.NewItemID()
	}
	item.Domain = s.domain

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
	return nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Item
	for _, item := range s.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	// Deterministic order keeps deletion and export output stable.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *MemoryStore) DeleteByID(_ context.Context, userID id.UserID, itemID id.ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok || item.UserID != userID {
		return sentinel.ErrNotFound
	}
	delete(s.items, itemID)
	return nil
}
