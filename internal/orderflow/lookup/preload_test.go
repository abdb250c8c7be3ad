package lookup

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderflow/orderflow/internal/common/database"
	"github.com/orderflow/orderflow/internal/orderflow/repository"
	"github.com/orderflow/orderflow/internal/orderflow/stagingdb/schema"
)

func TestPreloadAllCachesReferenceTables(t *testing.T) {
	migrations, err := schema.Migrations()
	require.NoError(t, err)

	err = database.WithTestDb(migrations, func(db *pgxpool.Pool) error {
		mr := miniredis.RunT(t)
		redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer redisClient.Close()
		cache := repository.NewRedisLookupCache(redisClient, "lookups")
		ctx := context.Background()

		stats, err := NewPreloader(db, cache).PreloadAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 15, stats.Products)
		assert.Equal(t, 7, stats.Currencies)
		assert.Equal(t, 10, stats.Regions)

		size, err := cache.Size(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(32), size)

		product, err := NewProductResolver(cache).Resolve(ctx, "PROD-001")
		require.NoError(t, err)
		assert.Equal(t, "Wireless Mouse", product.ProductName)

		rate, err := NewCurrencyResolver(cache).Resolve(ctx, "USD")
		require.NoError(t, err)
		assert.Equal(t, 1.0, rate)

		region, err := NewRegionResolver(cache).Resolve(ctx, "US-NY")
		require.NoError(t, err)
		assert.Equal(t, "ZONE-EAST", region.ShippingZone)

		// a second run is a refresh, not an accumulation
		_, err = NewPreloader(db, cache).PreloadAll(ctx)
		require.NoError(t, err)
		size, err = cache.Size(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(32), size)
		return nil
	})
	if errors.Is(err, database.ErrTestDbUnavailable) {
		t.Skipf("%v", err)
	}
	require.NoError(t, err)
}
