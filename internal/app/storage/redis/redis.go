// Package redis provides a Redis-backed storage implementation, used when
// the cached client state should be shared across devices or survive local
// resets.
package redis

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/go-redis/redis/v8"

	"github.com/gazexpress/gazexpress/internal/app/storage"
)

// Store persists entries in Redis. Keys are namespaced so several
// applications can share one instance.
type Store struct {
	client *goredis.Client
	prefix string
}

var _ storage.KV = (*Store)(nil)

// New connects to the Redis instance at addr. The prefix is prepended to
// every key; it defaults to "gazexpress:".
func New(ctx context.Context, addr, password, prefix string) (*Store, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("redis address required")
	}
	if prefix == "" {
		prefix = "gazexpress:"
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Store{client: client, prefix: prefix}, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if err == goredis.Nil {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}
