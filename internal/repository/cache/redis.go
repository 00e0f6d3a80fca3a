package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kittylit/kittylit/internal/db"
	"github.com/kittylit/kittylit/internal/domain"
)

// RedisKeyPrefix namespaces bucket payloads written by the warm-up job.
var RedisKeyPrefix = domain.KeyPrefix + "rec:"

// kvStore is the consumer interface for the Redis snapshot source (ISP).
type kvStore interface {
	Scan(ctx context.Context, pattern string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
}

// RedisSource reads and writes bucket payloads stored as plain Redis strings.
type RedisSource struct {
	store kvStore
}

// NewRedisSource creates a Redis-backed snapshot source.
func NewRedisSource(s kvStore) *RedisSource {
	return &RedisSource{store: s}
}

// Load scans every bucket key and returns the payloads keyed by bucket.
// Keys that expire between SCAN and GET are skipped.
func (r *RedisSource) Load(ctx context.Context) (map[string][]byte, error) {
	keys, err := r.store.Scan(ctx, RedisKeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan buckets: %w", err)
	}

	entries := make(map[string][]byte, len(keys))
	for _, k := range keys {
		data, err := r.store.Get(ctx, k)
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("get bucket %s: %w", k, err)
		}
		entries[strings.TrimPrefix(k, RedisKeyPrefix)] = data
	}
	return entries, nil
}

// Put writes one bucket payload with a TTL.
func (r *RedisSource) Put(ctx context.Context, bucket string, payload []byte, ttl time.Duration) error {
	if err := r.store.SetWithTTL(ctx, RedisKeyPrefix+bucket, payload, ttl); err != nil {
		return fmt.Errorf("put bucket %s: %w", bucket, err)
	}
	return nil
}

// Ping checks connectivity to the snapshot source.
func (r *RedisSource) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}
