package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheNotAvailable = errors.New("cache not available")
	ErrCacheNotFound     = errors.New("cache not found")
)

const scanCount = 100

// Keyspace is a prefixed view over a redis client. Without a client every
// write is a no-op and every read reports ErrCacheNotAvailable.
type Keyspace struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewKeyspace(client *redis.Client, prefix string, ttl time.Duration) *Keyspace {
	return &Keyspace{client: client, prefix: prefix, ttl: ttl}
}

func (k *Keyspace) Key(key string) string {
	return k.prefix + key
}

// TTL is the default lifetime for entries written without an explicit one.
func (k *Keyspace) TTL() time.Duration {
	return k.ttl
}

// Get decodes the JSON value stored at key into dest.
func (k *Keyspace) Get(ctx context.Context, key string, dest any) error {
	if k.client == nil {
		return ErrCacheNotAvailable
	}

	raw, err := k.client.Get(ctx, k.Key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return ErrCacheNotFound
	case err != nil:
		return fmt.Errorf("cache get %s: %w", k.Key(key), err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("cache decode %s: %w", k.Key(key), err)
	}
	return nil
}

// Set stores value as JSON. A zero ttl falls back to the keyspace default.
func (k *Keyspace) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if k.client == nil {
		return nil
	}
	if ttl == 0 {
		ttl = k.ttl
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", k.Key(key), err)
	}
	return k.client.Set(ctx, k.Key(key), raw, ttl).Err()
}

func (k *Keyspace) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	if k.client == nil {
		return nil
	}
	return k.client.Set(ctx, k.Key(key), value, ttl).Err()
}

func (k *Keyspace) Delete(ctx context.Context, keys ...string) error {
	if k.client == nil || len(keys) == 0 {
		return nil
	}

	full := make([]string, 0, len(keys))
	for _, key := range keys {
		full = append(full, k.Key(key))
	}
	return k.client.Del(ctx, full...).Err()
}

// Generation returns the counter stored under gen:<name>, zero when unset or
// when no client is attached.
func (k *Keyspace) Generation(ctx context.Context, name string) int64 {
	if k.client == nil {
		return 0
	}
	gen, err := k.client.Get(ctx, k.Key("gen:"+name)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		slog.WarnContext(ctx, "Cache generation read failed", "error", err, "name", name)
	}
	return gen
}

// Bump advances the gen:<name> counter. Keys built from the old generation
// are never read again.
func (k *Keyspace) Bump(ctx context.Context, name string) error {
	if k.client == nil {
		return nil
	}
	return k.client.Incr(ctx, k.Key("gen:"+name)).Err()
}

// SetNX stores value only when key is absent and reports whether it did.
func (k *Keyspace) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if k.client == nil {
		return false, ErrCacheNotAvailable
	}

	stored, err := k.client.SetNX(ctx, k.Key(key), value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache setnx %s: %w", k.Key(key), err)
	}
	return stored, nil
}

// InvalidatePattern deletes every key of the keyspace matching pattern.
// Keys are walked with SCAN and removed in one pipeline.
func (k *Keyspace) InvalidatePattern(ctx context.Context, pattern string) error {
	if k.client == nil {
		return nil
	}

	pipe := k.client.Pipeline()
	iter := k.client.Scan(ctx, 0, k.Key(pattern), scanCount).Iterator()
	for iter.Next(ctx) {
		pipe.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan %s: %w", k.Key(pattern), err)
	}
	if pipe.Len() == 0 {
		return nil
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache invalidate %s: %w", k.Key(pattern), err)
	}
	return nil
}

// Fetch returns the cached value at key, or calls load and stores its result
// before returning. Cache failures never fail the call; load errors are
// returned wrapped.
func Fetch[T any](ctx context.Context, k *Keyspace, key string, load func() (T, error)) (T, error) {
	var cached T
	err := k.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheNotFound) && !errors.Is(err, ErrCacheNotAvailable) {
		slog.WarnContext(ctx, "Cache read failed, loading from source", "error", err, "key", k.Key(key))
	}

	value, err := load()
	if err != nil {
		var zero T
		return zero, fmt.Errorf("cache load %s: %w", k.Key(key), err)
	}

	if err := k.Set(ctx, key, value, 0); err != nil {
		slog.WarnContext(ctx, "Cache write failed", "error", err, "key", k.Key(key))
	}
	return value, nil
}

// CacheManager groups the keyspaces used by the service.
type CacheManager struct {
	// Course holds course rows under id:<n> and filtered listings under list:*
	Course *Keyspace
	// Token holds spent activation token ids
	Token *Keyspace

	client *redis.Client
}

func NewCacheManager(client *redis.Client) *CacheManager {
	return &CacheManager{
		Course: NewKeyspace(client, "course:", 5*time.Minute),
		Token:  NewKeyspace(client, "token:", 0),
		client: client,
	}
}

func (cm *CacheManager) Enabled() bool {
	return cm.client != nil
}

func (cm *CacheManager) HealthCheck(ctx context.Context) error {
	if cm.client == nil {
		return ErrCacheNotAvailable
	}
	if err := cm.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache health check failed: %w", err)
	}
	return nil
}
