// Package redis implements storage.Backend on Redis string keys.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"datagate/internal/storage"
)

const defaultKeyPrefix = "datagate:"

// Backend maps (collection, key) to the Redis key <prefix><collection>:<key>.
// Values never expire.
type Backend struct {
	client redis.Cmdable
	prefix string
}

// Option configures a Backend.
type Option func(*Backend)

// WithKeyPrefix namespaces every key, letting several deployments share a database.
func WithKeyPrefix(prefix string) Option {
	return func(b *Backend) {
		b.prefix = prefix
	}
}

func New(client redis.Cmdable, opts ...Option) *Backend {
	b := &Backend{client: client, prefix: defaultKeyPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *Backend) redisKey(collection, key string) string {
	return b.prefix + collection + ":" + key
}

func (b *Backend) Get(ctx context.Context, collection, key string) ([]byte, error) {
	value, err := b.client.Get(ctx, b.redisKey(collection, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return value, nil
}

func (b *Backend) Put(ctx context.Context, collection, key string, value []byte) error {
	if err := b.client.Set(ctx, b.redisKey(collection, key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
