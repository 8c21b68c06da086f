package businessflow

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/amirphl/inventory-asn/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/15"
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	return rc
}

func TestRedisBatchGuard(t *testing.T) {
	rc := testRedisClient(t)
	ctx := context.Background()
	prefix := "inventory-asn-test:" + uuid.NewString() + ":"

	guard := NewRedisBatchGuard(rc, config.CacheConfig{RedisPrefix: prefix, DefaultTTL: time.Minute})

	ok, err := guard.Reserve(ctx, "batch-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = guard.Reserve(ctx, "batch-1")
	require.NoError(t, err)
	assert.False(t, ok)

	ttl, err := rc.TTL(ctx, prefix+"asn:batch:batch-1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, guard.Release(ctx, "batch-1"))
	ok, err = guard.Reserve(ctx, "batch-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, guard.Release(ctx, "batch-1"))
}

func TestNewRedisBatchGuardDefaultTTL(t *testing.T) {
	guard := NewRedisBatchGuard(nil, config.CacheConfig{})
	assert.Equal(t, 24*time.Hour, guard.ttl)
}
