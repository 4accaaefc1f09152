package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinedb/cinedb/internal/testenv"
	"github.com/cinedb/cinedb/pkg/cache"
	"github.com/cinedb/cinedb/pkg/cache/redis"
)

func newEngine(t *testing.T) *redis.RedisEngine {
	t.Helper()
	engine, err := redis.New(redis.Config{Addr: testenv.RedisAddr(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

func TestRedisEngine(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t)
	key := "cinedb-test:" + uuid.NewString()

	_, err := engine.Get(ctx, key)
	require.ErrorIs(t, err, cache.ErrCacheMiss)

	require.NoError(t, engine.Set(ctx, key, []byte("value"), time.Minute))
	got, err := engine.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)

	require.NoError(t, engine.Delete(ctx, key))
	_, err = engine.Get(ctx, key)
	require.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestRedisEngineExpiry(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t)
	key := "cinedb-test:" + uuid.NewString()

	require.NoError(t, engine.Set(ctx, key, []byte("value"), 50*time.Millisecond))
	require.Eventually(t, func() bool {
		_, err := engine.Get(ctx, key)
		return err == cache.ErrCacheMiss
	}, 2*time.Second, 20*time.Millisecond)
}
