package stagingdb

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/orderflow/orderflow/internal/orderflow/metrics"
	"github.com/orderflow/orderflow/internal/orderflow/model"
)

const stagingTable = "orders_staging"

// StagingStore owns the staging table lifecycle and the promotion step.
// Staging is fast and disposable; durable rows are append-only from the
// pipeline's perspective.
type StagingStore interface {
	BulkInsert(ctx context.Context, rows []*model.EnrichedRecord) (int64, error)
	Count(ctx context.Context) (int64, error)
	Truncate(ctx context.Context) error
	Promote(ctx context.Context) (int64, error)
	DurableCount(ctx context.Context) (int64, error)
	RefreshViews(ctx context.Context) error
	ListViews(ctx context.Context) ([]model.AggregateViewInfo, error)
}

type PostgresStagingStore struct {
	db      *pgxpool.Pool
	metrics *metrics.Metrics
}

func NewPostgresStagingStore(db *pgxpool.Pool, metrics *metrics.Metrics) *PostgresStagingStore {
	return &PostgresStagingStore{db: db, metrics: metrics}
}

// BulkInsert writes all rows into the staging table with a single copy
// protocol transfer. There is no partial credit: either every row lands or
// the whole batch fails.
func (s *PostgresStagingStore) BulkInsert(ctx context.Context, rows []*model.EnrichedRecord) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	count, err := s.db.CopyFrom(ctx,
		pgx.Identifier{stagingTable},
		[]string{
			"order_id", "customer_id", "product_id", "product_name", "product_category",
			"quantity", "unit_price", "currency", "currency_rate", "amount_usd",
			"region_code", "city", "country", "timezone", "shipping_zone",
			"order_timestamp", "raw_context", "enriched_at",
		},
		pgx.CopyFromSlice(len(rows), func(i int) ([]interface{}, error) {
			row := rows[i]
			return []interface{}{
				row.OrderID, row.CustomerID, row.ProductID, row.ProductName, row.ProductCategory,
				row.Quantity, row.UnitPrice, row.Currency, row.CurrencyRate, row.AmountUSD,
				row.RegionCode, row.City, row.Country, row.Timezone, row.ShippingZone,
				row.OrderTimestamp, []byte(row.RawContext), row.EnrichedAt,
			}, nil
		}),
	)
	if err != nil {
		s.metrics.RecordDBError(metrics.DBOperationBulkInsert)
		return 0, errors.WithMessage(err, "error bulk inserting into staging")
	}
	return count, nil
}

func (s *PostgresStagingStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+stagingTable).Scan(&count)
	if err != nil {
		s.metrics.RecordDBError(metrics.DBOperationRead)
	}
	return count, err
}

func (s *PostgresStagingStore) Truncate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, "TRUNCATE "+stagingTable)
	return err
}

// Promote moves all currently staged, validated rows into the durable table
// through a single server side function, so the move is atomic from the
// caller's point of view. On failure staging is left untouched.
func (s *PostgresStagingStore) Promote(ctx context.Context) (int64, error) {
	var promoted int64
	err := s.db.QueryRow(ctx, "SELECT promote_staging_to_orders()").Scan(&promoted)
	if err != nil {
		s.metrics.RecordDBError(metrics.DBOperationPromote)
		return 0, errors.WithMessage(err, "error promoting staging to durable storage")
	}
	return promoted, nil
}

func (s *PostgresStagingStore) DurableCount(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM orders").Scan(&count)
	if err != nil {
		s.metrics.RecordDBError(metrics.DBOperationRead)
	}
	return count, err
}

// RefreshViews recomputes every aggregate view wholesale through a server
// side helper function.
func (s *PostgresStagingStore) RefreshViews(ctx context.Context) error {
	_, err := s.db.Exec(ctx, "SELECT refresh_order_aggregates()")
	if err != nil {
		s.metrics.RecordDBError(metrics.DBOperationRefreshViews)
		return errors.WithMessage(err, "error refreshing aggregate views")
	}
	return nil
}

func (s *PostgresStagingStore) ListViews(ctx context.Context) ([]model.AggregateViewInfo, error) {
	rows, err := s.db.Query(ctx, `
		SELECT matviewname,
		       ispopulated,
		       pg_size_pretty(pg_total_relation_size(schemaname||'.'||matviewname))
		FROM pg_matviews
		WHERE schemaname = 'public'
		ORDER BY matviewname`)
	if err != nil {
		s.metrics.RecordDBError(metrics.DBOperationRead)
		return nil, err
	}
	defer rows.Close()

	var views []model.AggregateViewInfo
	for rows.Next() {
		view := model.AggregateViewInfo{}
		if err := rows.Scan(&view.Name, &view.Populated, &view.Size); err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, rows.Err()
}
