// Package session persists login sessions as namespaced keys
// ("session:<user>:<session>"). Running sessions through the shared namespace
// means erasure verification can independently assert no session artifacts
// remain for a deleted user, and the Redis/memory choice is made once, at the
// namespace level.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"minty/internal/cache"
	"minty/internal/identity/models"
	id "minty/pkg/domain"
	"minty/pkg/platform/sentinel"
)

// Store is the session persistence contract the identity service consumes.
type Store interface {
	Save(ctx context.Context, session *models.Session) error
	ListByUser(ctx context.Context, userID id.UserID) ([]models.Session, error)
	DeleteByUser(ctx context.Context, userID id.UserID) error
}

// NamespaceStore implements Store over a cache.Namespace.
type NamespaceStore struct {
	ns cache.Namespace
}

var _ Store = (*NamespaceStore)(nil)

func New(ns cache.Namespace) *NamespaceStore {
	return &NamespaceStore{ns: ns}
}

func sessionKey(userID id.UserID, sessionID id.SessionID) string {
	return cache.PrefixSessions + userID.String() + ":" + sessionID.String()
}

func (s *NamespaceStore) Save(ctx context.Context, session *models.Session) error {
	encoded, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.ns.Set(ctx, sessionKey(session.UserID, session.ID), encoded)
}

func (s *NamespaceStore) ListByUser(ctx context.Context, userID id.UserID) ([]models.Session, error) {
	keys, err := s.ns.KeysWithPrefix(ctx, cache.PrefixSessions+userID.String()+":")
	if err != nil {
		return nil, err
	}

	sessions := make([]models.Session, 0, len(keys))
	for _, key := range keys {
		value, err := s.ns.Get(ctx, key)
		if err != nil {
			// A session removed between scan and read is not an error.
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			return nil, err
		}
		var session models.Session
		if err := json.Unmarshal(value, &session); err != nil {
			return nil, fmt.Errorf("decode session %s: %w", key, err)
		}
		sessions = append(sessions, session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions, nil
}

func (s *NamespaceStore) DeleteByUser(ctx context.Context, userID id.UserID) error {
	keys, err := s.ns.KeysWithPrefix(ctx, cache.PrefixSessions+userID.String()+":")
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.ns.Remove(ctx, key); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
	}
	return nil
}
