package kv

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists session state in Redis with no expiry, mirroring the
// browser-local storage the service replaces.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool) {
	val, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("kv read failed", "key", key, "error", err)
		}
		return "", false
	}
	return val, true
}

func (s *RedisStore) Set(ctx context.Context, key, value string) {
	if err := s.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		slog.Warn("kv write failed", "key", key, "error", err)
	}
}

func (s *RedisStore) Delete(ctx context.Context, key string) {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		slog.Warn("kv delete failed", "key", key, "error", err)
	}
}
