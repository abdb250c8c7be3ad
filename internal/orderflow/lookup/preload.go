package lookup

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/orderflow/orderflow/internal/orderflow/model"
	"github.com/orderflow/orderflow/internal/orderflow/repository"
)

var psql = goqu.Dialect("postgres")

// PreloadStats reports how many rows of each reference table were cached.
type PreloadStats struct {
	Products   int
	Currencies int
	Regions    int
}

// Preloader snapshots the small reference tables from postgres into the
// lookup cache so enrichment never joins against the relational store.
// Preloading is a full, idempotent refresh.
type Preloader struct {
	db    *pgxpool.Pool
	cache repository.LookupCache
}

func NewPreloader(db *pgxpool.Pool, cache repository.LookupCache) *Preloader {
	return &Preloader{db: db, cache: cache}
}

func (p *Preloader) PreloadAll(ctx context.Context) (PreloadStats, error) {
	stats := PreloadStats{}

	products, err := p.preloadProducts(ctx)
	if err != nil {
		return stats, err
	}
	stats.Products = products

	currencies, err := p.preloadCurrencies(ctx)
	if err != nil {
		return stats, err
	}
	stats.Currencies = currencies

	regions, err := p.preloadRegions(ctx)
	if err != nil {
		return stats, err
	}
	stats.Regions = regions

	log.Infof("Cached %d products, %d currencies, %d regions", stats.Products, stats.Currencies, stats.Regions)
	return stats, nil
}

func (p *Preloader) preloadProducts(ctx context.Context) (int, error) {
	query, _, err := psql.From("product_catalog").
		Select("product_id", "product_name", "category", "base_price").ToSQL()
	if err != nil {
		return 0, err
	}

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return 0, errors.WithMessage(err, "error reading product_catalog")
	}
	defer rows.Close()

	entries := map[string]string{}
	for rows.Next() {
		var productId string
		info := model.ProductInfo{}
		if err := rows.Scan(&productId, &info.ProductName, &info.Category, &info.BasePrice); err != nil {
			return 0, err
		}
		data, err := json.Marshal(info)
		if err != nil {
			return 0, err
		}
		entries[productKeyPrefix+productId] = string(data)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	return len(entries), p.cache.SetBatch(ctx, entries)
}

func (p *Preloader) preloadCurrencies(ctx context.Context) (int, error) {
	query, _, err := psql.From("currency_rates").
		Select("currency_code", "rate_to_usd").ToSQL()
	if err != nil {
		return 0, err
	}

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return 0, errors.WithMessage(err, "error reading currency_rates")
	}
	defer rows.Close()

	entries := map[string]string{}
	for rows.Next() {
		var currencyCode string
		var rate float64
		if err := rows.Scan(&currencyCode, &rate); err != nil {
			return 0, err
		}
		entries[currencyKeyPrefix+currencyCode] = strconv.FormatFloat(rate, 'f', -1, 64)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	return len(entries), p.cache.SetBatch(ctx, entries)
}

func (p *Preloader) preloadRegions(ctx context.Context) (int, error) {
	query, _, err := psql.From("region_zones").
		Select("region_code", "city", "country", "timezone", "shipping_zone").ToSQL()
	if err != nil {
		return 0, err
	}

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return 0, errors.WithMessage(err, "error reading region_zones")
	}
	defer rows.Close()

	entries := map[string]string{}
	for rows.Next() {
		var regionCode string
		info := model.RegionInfo{}
		if err := rows.Scan(&regionCode, &info.City, &info.Country, &info.Timezone, &info.ShippingZone); err != nil {
			return 0, err
		}
		data, err := json.Marshal(info)
		if err != nil {
			return 0, err
		}
		entries[regionKeyPrefix+regionCode] = string(data)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	return len(entries), p.cache.SetBatch(ctx, entries)
}
