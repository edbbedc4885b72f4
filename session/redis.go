package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores each session record as a Redis hash.
//
// The go-redis client owns the connection pool: every command checks a connection out and
// returns it, blocking up to the client's PoolTimeout when the pool is exhausted.
//
//	Performance: one Redis round-trip per GetField/SetField.
type RedisBackend struct {
	client redis.UniversalClient
}

// NewRedisBackend wraps an already configured client. The caller keeps ownership of the
// client unless it later calls Close on the backend.
func NewRedisBackend(client redis.UniversalClient) *RedisBackend {
	return &RedisBackend{client: client}
}

// GetField runs HGET key field.
func (b *RedisBackend) GetField(ctx context.Context, key, field string) (string, error) {
	if b == nil || b.client == nil {
		return "", ErrConnection
	}
	value, err := b.client.HGet(ctx, key, field).Result()
	if err != nil {
		return "", mapRedisError(err)
	}
	return value, nil
}

// SetField runs HSET key field value.
func (b *RedisBackend) SetField(ctx context.Context, key, field, value string) error {
	if b == nil || b.client == nil {
		return ErrConnection
	}
	if err := b.client.HSet(ctx, key, field, value).Err(); err != nil {
		return mapRedisError(err)
	}
	return nil
}

// Ping checks that the server is reachable.
func (b *RedisBackend) Ping(ctx context.Context) error {
	if b == nil || b.client == nil {
		return ErrConnection
	}
	if err := b.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Close closes the underlying client and its pool.
func (b *RedisBackend) Close() error {
	if b == nil || b.client == nil {
		return nil
	}
	return b.client.Close()
}

// mapRedisError classifies go-redis errors: redis.Nil is absence, a server reply error
// (WRONGTYPE and friends) is a rejection, anything else never reached the server.
func mapRedisError(err error) error {
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	var reply redis.Error
	if errors.As(err, &reply) {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	return fmt.Errorf("%w: %v", ErrConnection, err)
}
