package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewMemoryIdempotencyStore(0)
	defer store.Close()

	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }
	ctx := context.Background()

	t.Run("first mark wins", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "evt-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = store.MarkProcessed(ctx, "evt-1", time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew)

		processed, err := store.IsProcessed(ctx, "evt-1")
		require.NoError(t, err)
		assert.True(t, processed)
	})

	t.Run("expired mark can be taken again", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "evt-2", time.Minute)
		require.NoError(t, err)
		current = current.Add(2 * time.Minute)

		processed, err := store.IsProcessed(ctx, "evt-2")
		require.NoError(t, err)
		assert.False(t, processed)

		isNew, err := store.MarkProcessed(ctx, "evt-2", time.Minute)
		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("forget releases the key", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "evt-3", time.Hour)
		require.NoError(t, err)
		require.NoError(t, store.Forget(ctx, "evt-3"))

		isNew, err := store.MarkProcessed(ctx, "evt-3", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("cleanup drops expired keys", func(t *testing.T) {
		before := store.Size()
		_, err := store.MarkProcessed(ctx, "evt-4", time.Second)
		require.NoError(t, err)
		current = current.Add(time.Hour)
		store.cleanup()
		assert.Less(t, store.Size(), before+1)
	})
}

func TestMemoryIdempotencyStore_ConcurrentMarks(t *testing.T) {
	store := NewMemoryIdempotencyStore(0)
	defer store.Close()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := store.MarkProcessed(context.Background(), "evt", time.Hour); ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

func TestMemoryIdempotencyStore_CloseIsIdempotent(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Millisecond)
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestRedisIdempotencyStore_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	store := NewRedisIdempotencyStore(client, "")
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "evt", time.Minute)
	assert.Error(t, err)
	_, err = store.IsProcessed(ctx, "evt")
	assert.Error(t, err)
	assert.Error(t, store.Forget(ctx, "evt"))
	assert.NoError(t, store.Close())
}

func TestNewIdempotencyStore(t *testing.T) {
	logger := zap.NewNop()

	t.Run("memory", func(t *testing.T) {
		store, err := NewIdempotencyStore(config.IdempotencyConfig{Backend: config.BackendMemory}, nil, logger)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &MemoryIdempotencyStore{}, store)
	})

	t.Run("redis requires a client", func(t *testing.T) {
		_, err := NewIdempotencyStore(config.IdempotencyConfig{Backend: config.BackendRedis}, nil, logger)
		assert.Error(t, err)
	})

	t.Run("redis", func(t *testing.T) {
		client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
		defer client.Close()
		store, err := NewIdempotencyStore(config.IdempotencyConfig{Backend: config.BackendRedis}, client, logger)
		require.NoError(t, err)
		assert.IsType(t, &RedisIdempotencyStore{}, store)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := NewIdempotencyStore(config.IdempotencyConfig{Backend: "memcached"}, nil, logger)
		assert.Error(t, err)
	})
}
