package cache

import (
    "context"
    "log"
    "time"

    "github.com/redis/go-redis/v9"
)

// Redis is a Cache backed by a shared Redis instance so that multiple
// replicas see the same entries and invalidations.  All operations are
// best-effort: a Redis error degrades to a cache miss and is logged
// rather than surfaced to the request.
type Redis struct {
    rdb    *redis.Client
    prefix string
}

// NewRedis wraps the given client.  The prefix namespaces every key so
// the cache can share a database with the rate limiter.
func NewRedis(rdb *redis.Client, prefix string) *Redis {
    if prefix == "" {
        prefix = "browse"
    }
    return &Redis{rdb: rdb, prefix: prefix}
}

// New returns a Redis-backed cache when a client is available and falls
// back to the in-process cache otherwise.
func New(rdb *redis.Client, prefix string) Cache {
    if rdb == nil {
        return NewMemory()
    }
    return NewRedis(rdb, prefix)
}

func (r *Redis) key(k string) string { return r.prefix + ":" + k }

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
    bs, err := r.rdb.Get(ctx, r.key(key)).Bytes()
    if err != nil {
        return nil, false
    }
    return bs, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
    if ttl <= 0 {
        return
    }
    if err := r.rdb.SetEx(ctx, r.key(key), value, ttl).Err(); err != nil {
        log.Printf("cache: set %s failed: %v", key, err)
    }
}

// InvalidatePrefix deletes every key under the given prefix.  SCAN is
// used instead of KEYS so invalidation does not block the server.
func (r *Redis) InvalidatePrefix(ctx context.Context, prefix string) {
    iter := r.rdb.Scan(ctx, 0, r.key(prefix)+"*", 100).Iterator()
    for iter.Next(ctx) {
        if err := r.rdb.Del(ctx, iter.Val()).Err(); err != nil {
            log.Printf("cache: del %s failed: %v", iter.Val(), err)
        }
    }
    if err := iter.Err(); err != nil {
        log.Printf("cache: scan %s failed: %v", prefix, err)
    }
}
