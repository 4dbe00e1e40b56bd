package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"minty/internal/cache"
	"minty/internal/identity/models"
	id "minty/pkg/domain"
)

type SessionStoreSuite struct {
	suite.Suite
	ns    *cache.MemoryNamespace
	store *NamespaceStore
}

func TestSessionStoreSuite(t *testing.T) {
	suite.Run(t, new(SessionStoreSuite))
}

func (s *SessionStoreSuite) SetupTest() {
	s.ns = cache.NewMemoryNamespace()
	s.store = New(s.ns)
}

func (s *SessionStoreSuite) newSession(userID id.UserID, createdAt time.Time) *models.Session {
	return &models.Session{
		ID:              id.SessionID(uuid.New()),
		UserID:          userID,
		CreatedAt:       createdAt,
		AuthenticatedAt: createdAt,
	}
}

func (s *SessionStoreSuite) TestListByUser() {
	ctx := context.Background()
	alice := id.UserID(uuid.New())
	bob := id.UserID(uuid.New())
	base := time.Now().UTC().Truncate(time.Second)

	s.Require().NoError(s.store.Save(ctx, s.newSession(alice, base.Add(time.Minute))))
	s.Require().NoError(s.store.Save(ctx, s.newSession(alice, base)))
	s.Require().NoError(s.store.Save(ctx, s.newSession(bob, base)))

	sessions, err := s.store.ListByUser(ctx, alice)
	s.Require().NoError(err)
	s.Require().Len(sessions, 2)
	s.True(sessions[0].CreatedAt.Before(sessions[1].CreatedAt), "sessions ordered by creation")
	for _, session := range sessions {
		s.Equal(alice, session.UserID)
	}
}

func (s *SessionStoreSuite) TestDeleteByUser() {
	ctx := context.Background()
	alice := id.UserID(uuid.New())
	bob := id.UserID(uuid.New())
	now := time.Now()

	s.Require().NoError(s.store.Save(ctx, s.newSession(alice, now)))
	s.Require().NoError(s.store.Save(ctx, s.newSession(alice, now)))
	s.Require().NoError(s.store.Save(ctx, s.newSession(bob, now)))

	s.Require().NoError(s.store.DeleteByUser(ctx, alice))

	sessions, err := s.store.ListByUser(ctx, alice)
	s.Require().NoError(err)
	s.Empty(sessions)

	// Namespace holds no session artifacts for the deleted user.
	keys, err := s.ns.KeysWithPrefix(ctx, cache.PrefixSessions+alice.String()+":")
	s.Require().NoError(err)
	s.Empty(keys)

	remaining, err := s.store.ListByUser(ctx, bob)
	s.Require().NoError(err)
	s.Len(remaining, 1)
}

func (s *SessionStoreSuite) TestDeleteByUserIsIdempotent() {
	ctx := context.Background()
	s.Require().NoError(s.store.DeleteByUser(ctx, id.UserID(uuid.New())))
}
