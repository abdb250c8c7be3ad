package repository

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupGetMissesFailFast(t *testing.T) {
	withRedis(t, func(r *redis.Client) {
		cache := NewRedisLookupCache(r, "lookups")
		ctx := context.Background()

		value, ok, err := cache.Get(ctx, "product:PROD-404")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, "", value)
	})
}

func TestLookupSetBatchAndGetAll(t *testing.T) {
	withRedis(t, func(r *redis.Client) {
		cache := NewRedisLookupCache(r, "lookups")
		ctx := context.Background()

		entries := map[string]string{
			"currency:USD": "1.0",
			"currency:EUR": "1.09",
			"currency:GBP": "1.27",
		}
		require.NoError(t, cache.SetBatch(ctx, entries))

		value, ok, err := cache.Get(ctx, "currency:EUR")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "1.09", value)

		all, err := cache.GetAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, entries, all)

		size, err := cache.Size(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), size)
	})
}

func TestLookupPreloadIsIdempotent(t *testing.T) {
	withRedis(t, func(r *redis.Client) {
		cache := NewRedisLookupCache(r, "lookups")
		ctx := context.Background()

		require.NoError(t, cache.SetBatch(ctx, map[string]string{"currency:USD": "1.0"}))
		require.NoError(t, cache.SetBatch(ctx, map[string]string{"currency:USD": "1.0"}))

		size, err := cache.Size(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), size)
	})
}

func TestLookupClear(t *testing.T) {
	withRedis(t, func(r *redis.Client) {
		cache := NewRedisLookupCache(r, "lookups")
		ctx := context.Background()

		require.NoError(t, cache.Set(ctx, "currency:USD", "1.0"))
		require.NoError(t, cache.Clear(ctx))

		ok, err := cache.Exists(ctx, "currency:USD")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
