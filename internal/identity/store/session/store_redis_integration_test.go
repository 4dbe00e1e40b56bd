//go:build integration

package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"minty/internal/cache"
	"minty/internal/identity/models"
	id "minty/pkg/domain"
)

func TestNamespaceStore_Redis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	store := New(cache.NewRedisNamespace(client))
	user := id.UserID(uuid.New())
	now := time.Now().UTC().Truncate(time.Second)

	session := &models.Session{
		ID:              id.SessionID(uuid.New()),
		UserID:          user,
		Device:          "Firefox 130; Linux",
		CreatedAt:       now,
		AuthenticatedAt: now,
	}
	require.NoError(t, store.Save(ctx, session))

	sessions, err := store.ListByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, session.ID, sessions[0].ID)
	require.Equal(t, session.Device, sessions[0].Device)

	require.NoError(t, store.DeleteByUser(ctx, user))
	sessions, err = store.ListByUser(ctx, user)
	require.NoError(t, err)
	require.Empty(t, sessions)
}
