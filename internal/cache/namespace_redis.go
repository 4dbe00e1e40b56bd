package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"minty/pkg/platform/sentinel"
)

// RedisNamespace is a Redis-backed Namespace. This is the production
// implementation for deployments where multiple instances share state.
type RedisNamespace struct {
	client *redis.Client
}

// NewRedisNamespace wraps a Redis client as a Namespace.
func NewRedisNamespace(client *redis.Client) *RedisNamespace {
	return &RedisNamespace{client: client}
}

func (n *RedisNamespace) Set(ctx context.Context, key string, value []byte) error {
	if err := n.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (n *RedisNamespace) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := n.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (n *RedisNamespace) KeysWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := n.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %s*: %w", prefix, err)
	}
	return keys, nil
}

func (n *RedisNamespace) Remove(ctx context.Context, key string) error {
	removed, err := n.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	if removed == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
