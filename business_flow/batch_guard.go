package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/inventory-asn/config"
	"github.com/amirphl/inventory-asn/utils"
	"github.com/redis/go-redis/v9"
)

const batchGuardKeyPrefix = "asn:batch:"

// BatchGuard remembers generation batches so a replayed submission is rejected
type BatchGuard interface {
	// Reserve returns false when key was already reserved and has not expired
	Reserve(ctx context.Context, key string) (bool, error)
	// Release forgets key so a failed batch can be resubmitted
	Release(ctx context.Context, key string) error
}

// RedisBatchGuard reserves batch keys with SETNX and a TTL
type RedisBatchGuard struct {
	rc     *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisBatchGuard creates a Redis-backed batch guard
func NewRedisBatchGuard(rc *redis.Client, cacheConfig config.CacheConfig) *RedisBatchGuard {
	ttl := cacheConfig.DefaultTTL
	if ttl <= 0 {
		ttl = utils.BatchGuardTTL
	}
	return &RedisBatchGuard{
		rc:     rc,
		prefix: cacheConfig.RedisPrefix,
		ttl:    ttl,
	}
}

func (g *RedisBatchGuard) key(batchKey string) string {
	return g.prefix + batchGuardKeyPrefix + batchKey
}

// Reserve implements BatchGuard
func (g *RedisBatchGuard) Reserve(ctx context.Context, key string) (bool, error) {
	ok, err := g.rc.SetNX(ctx, g.key(key), utils.UTCNowRFC3339(), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve batch key: %w", err)
	}
	return ok, nil
}

// Release implements BatchGuard
func (g *RedisBatchGuard) Release(ctx context.Context, key string) error {
	if err := g.rc.Del(ctx, g.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to release batch key: %w", err)
	}
	return nil
}
