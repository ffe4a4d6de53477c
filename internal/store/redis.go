package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps preferences as plain string keys under a prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func OpenRedis(ctx context.Context, url, prefix string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStore(client, prefix), nil
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "dashboard:pref:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) Key(key string) string {
	return r.prefix + key
}

func (r *RedisStore) LoadPreference(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.Key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

func (r *RedisStore) SavePreference(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.Key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}
