package cache

import (
	"context"
	"sort"
	"strings"
	"sync"

	"minty/pkg/platform/sentinel"
)

// MemoryNamespace is an in-memory Namespace. Safe for concurrent use.
type MemoryNamespace struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryNamespace creates an empty in-memory namespace.
func NewMemoryNamespace() *MemoryNamespace {
	return &MemoryNamespace{values: make(map[string][]byte)}
}

func (n *MemoryNamespace) Set(_ context.Context, key string, value []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	copied := make([]byte, len(value))
	copy(copied, value)
	n.values[key] = copied
	return nil
}

func (n *MemoryNamespace) Get(_ context.Context, key string) ([]byte, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	value, ok := n.values[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return value, nil
}

func (n *MemoryNamespace) KeysWithPrefix(_ context.Context, prefix string) ([]string, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	var keys []string
	for key := range n.values {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (n *MemoryNamespace) Remove(_ context.Context, key string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.values[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(n.values, key)
	return nil
}
