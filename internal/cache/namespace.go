// Package cache provides the namespaced local key-value layer and the purge
// collaborator that clears ephemeral partitions during account erasure.
package cache

import (
	"context"
)

// Reserved key prefixes. Preference records and session artifacts live in the
// namespace under these prefixes; erasure verification asserts none remain
// for a deleted user.
const (
	PrefixPreferences = "prefs:"
	PrefixSessions    = "session:"
)

// Namespace is a flat key-value space with prefix scans. Backed by Redis in
// production and by memory in tests and single-node setups.
type Namespace interface {
	Set(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	KeysWithPrefix(ctx context.Context, prefix string) ([]string, error)
	Remove(ctx context.Context, key string) error
}

var (
	_ Namespace = (*MemoryNamespace)(nil)
	_ Namespace = (*RedisNamespace)(nil)
)
