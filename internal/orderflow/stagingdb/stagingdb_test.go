package stagingdb

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderflow/orderflow/internal/common/database"
	"github.com/orderflow/orderflow/internal/orderflow/metrics"
	"github.com/orderflow/orderflow/internal/orderflow/model"
	"github.com/orderflow/orderflow/internal/orderflow/stagingdb/schema"
)

func TestBulkInsertAndPromoteRoundTrip(t *testing.T) {
	withStagingStore(t, func(store *PostgresStagingStore, db *pgxpool.Pool) {
		ctx := context.Background()

		staged, err := store.BulkInsert(ctx, enrichedRecords(3))
		require.NoError(t, err)
		assert.Equal(t, int64(3), staged)

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)

		promoted, err := store.Promote(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), promoted)

		count, err = store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)

		durable, err := store.DurableCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), durable)

		// the durable row carries the reference fields as enriched
		var productName, city, shippingZone string
		var amountUsd float64
		err = db.QueryRow(ctx,
			`SELECT product_name, city, shipping_zone, amount_usd FROM orders WHERE order_id = $1`,
			"ORD-000001").Scan(&productName, &city, &shippingZone, &amountUsd)
		require.NoError(t, err)
		assert.Equal(t, "Wireless Mouse", productName)
		assert.Equal(t, "New York", city)
		assert.Equal(t, "ZONE-EAST", shippingZone)
		assert.InDelta(t, 49.98, amountUsd, 0.001)
	})
}

func TestPromoteOnEmptyStaging(t *testing.T) {
	withStagingStore(t, func(store *PostgresStagingStore, db *pgxpool.Pool) {
		promoted, err := store.Promote(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(0), promoted)
	})
}

func TestPromoteCollapsesRepeatedOrderIds(t *testing.T) {
	withStagingStore(t, func(store *PostgresStagingStore, db *pgxpool.Pool) {
		ctx := context.Background()

		rows := enrichedRecords(2)
		rows[1].OrderID = rows[0].OrderID
		_, err := store.BulkInsert(ctx, rows)
		require.NoError(t, err)

		promoted, err := store.Promote(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), promoted)

		// staging is emptied even for the row that lost the tie
		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})
}

func TestTruncateEmptiesStagingOnly(t *testing.T) {
	withStagingStore(t, func(store *PostgresStagingStore, db *pgxpool.Pool) {
		ctx := context.Background()

		_, err := store.BulkInsert(ctx, enrichedRecords(2))
		require.NoError(t, err)
		_, err = store.Promote(ctx)
		require.NoError(t, err)

		_, err = store.BulkInsert(ctx, enrichedRecords(1))
		require.NoError(t, err)
		require.NoError(t, store.Truncate(ctx))

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)

		durable, err := store.DurableCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), durable)
	})
}

func TestRefreshAndListViews(t *testing.T) {
	withStagingStore(t, func(store *PostgresStagingStore, db *pgxpool.Pool) {
		ctx := context.Background()

		_, err := store.BulkInsert(ctx, enrichedRecords(5))
		require.NoError(t, err)
		_, err = store.Promote(ctx)
		require.NoError(t, err)
		require.NoError(t, store.RefreshViews(ctx))

		views, err := store.ListViews(ctx)
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, "order_totals_by_category", views[0].Name)
		assert.Equal(t, "order_totals_by_region", views[1].Name)
		for _, view := range views {
			assert.True(t, view.Populated)
			assert.NotEmpty(t, view.Size)
		}
	})
}

func withStagingStore(t *testing.T, action func(store *PostgresStagingStore, db *pgxpool.Pool)) {
	t.Helper()
	migrations, err := schema.Migrations()
	require.NoError(t, err)

	err = database.WithTestDb(migrations, func(db *pgxpool.Pool) error {
		action(NewPostgresStagingStore(db, metrics.Get()), db)
		return nil
	})
	if errors.Is(err, database.ErrTestDbUnavailable) {
		t.Skipf("%v", err)
	}
	require.NoError(t, err)
}

func enrichedRecords(count int) []*model.EnrichedRecord {
	rawContext, _ := json.Marshal(map[string]string{"session_id": "s-1"})
	rows := make([]*model.EnrichedRecord, count)
	for i := 0; i < count; i++ {
		rows[i] = &model.EnrichedRecord{
			Record: model.Record{
				OrderID:        fmt.Sprintf("ORD-%06d", i+1),
				CustomerID:     "CUST-00000001",
				ProductID:      "PROD-001",
				Quantity:       2,
				UnitPrice:      24.99,
				Currency:       "USD",
				RegionCode:     "US-NY",
				OrderTimestamp: time.Now().UTC(),
				RawContext:     rawContext,
			},
			ProductName:     "Wireless Mouse",
			ProductCategory: "Electronics",
			BasePrice:       24.99,
			CurrencyRate:    1.0,
			AmountUSD:       49.98,
			City:            "New York",
			Country:         "USA",
			Timezone:        "America/New_York",
			ShippingZone:    "ZONE-EAST",
			EnrichedAt:      time.Now().UTC(),
		}
	}
	return rows
}
