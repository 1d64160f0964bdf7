package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/noah-isme/academic-record-api/pkg/errors"
)

// CacheRepository stores JSON encoded read models in Redis.
type CacheRepository struct {
	client redis.UniversalClient
}

// NewCacheRepository constructs a cache repository.
func NewCacheRepository(client redis.UniversalClient) *CacheRepository {
	return &CacheRepository{client: client}
}

// Get retrieves and unmarshals the cached value into dest.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set marshals value and stores it with the given TTL.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes the given keys in one round-trip.
func (r *CacheRepository) Delete(ctx context.Context, keys ...string) error {
	if r.client == nil || len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete %v: %w", keys, err)
	}
	return nil
}

// setIfCurrentScript stores ARGV[2] at KEYS[2] unless the fence at KEYS[1]
// already records a newer version than ARGV[1].
var setIfCurrentScript = redis.NewScript(`
local fence = tonumber(redis.call('GET', KEYS[1]) or '0')
if tonumber(ARGV[1]) < fence then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// fenceScript raises the fence at KEYS[1] to ARGV[1] and deletes KEYS[2..].
var fenceScript = redis.NewScript(`
local fence = tonumber(redis.call('GET', KEYS[1]) or '0')
if tonumber(ARGV[1]) > fence then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
end
for i = 2, #KEYS do
	redis.call('DEL', KEYS[i])
end
return 1
`)

// SetIfCurrent stores value only when version is not older than the fence.
// It reports whether the value was written.
func (r *CacheRepository) SetIfCurrent(ctx context.Context, fenceKey, key string, version int64, value interface{}, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return false, nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	stored, err := setIfCurrentScript.Run(ctx, r.client, []string{fenceKey, key}, version, payload, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("redis fenced set %s: %w", key, err)
	}
	return stored == 1, nil
}

// Fence records version as committed and deletes keys in one atomic step, so a
// reader holding an older version can no longer repopulate them.
func (r *CacheRepository) Fence(ctx context.Context, fenceKey string, version int64, ttl time.Duration, keys ...string) error {
	if r.client == nil {
		return nil
	}
	if err := fenceScript.Run(ctx, r.client, append([]string{fenceKey}, keys...), version, ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("redis fence %s: %w", fenceKey, err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (r *CacheRepository) Ping(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Ping(ctx).Err()
}
