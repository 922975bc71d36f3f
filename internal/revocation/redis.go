// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/holomush/authflow/pkg/authflow"
)

// DefaultRedisPrefix namespaces authd keys in a shared Redis.
const DefaultRedisPrefix = "authflow:"

// RedisClient is the subset of the go-redis client used by RedisCache.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

var _ RedisClient = (*redis.Client)(nil)

// RedisCache stores revocation markers in Redis. Expiry is delegated to
// Redis key TTLs.
type RedisCache struct {
	client RedisClient
	prefix string
}

var _ authflow.RevocationCache = (*RedisCache)(nil)

// NewRedisCache creates a RedisCache. An empty prefix selects DefaultRedisPrefix.
func NewRedisCache(client RedisClient, prefix string) *RedisCache {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisCache{client: client, prefix: prefix}
}

// NewRedisClient opens a client for addr and checks it with PING.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, oops.Code("REVOCATION_REDIS_UNAVAILABLE").
			With("addr", addr).
			Wrap(err)
	}
	return client, nil
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

// Get reports whether key holds a marker.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, oops.Code("REVOCATION_GET_FAILED").
			With("operation", "redis get").
			With("key", key).
			Wrap(err)
	}
	return val, true, nil
}

// Set writes value under key. A zero ttl keeps the key until deleted.
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return oops.Code("REVOCATION_SET_FAILED").
			With("operation", "redis set").
			With("key", key).
			With("ttl", ttl).
			Wrap(err)
	}
	return nil
}

// Del removes key. Removing a missing key is not an error.
func (c *RedisCache) Del(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return oops.Code("REVOCATION_DEL_FAILED").
			With("operation", "redis del").
			With("key", key).
			Wrap(err)
	}
	return nil
}

// Ping checks connectivity for readiness probes.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
