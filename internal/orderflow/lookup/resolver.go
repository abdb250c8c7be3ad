package lookup

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"

	"github.com/orderflow/orderflow/internal/orderflow/model"
	"github.com/orderflow/orderflow/internal/orderflow/repository"
)

const (
	productKeyPrefix  = "product:"
	currencyKeyPrefix = "currency:"
	regionKeyPrefix   = "region:"
)

// ErrNotFound is returned by resolvers when a reference entry is absent from
// the cache. It is a per-record validation failure, not a pipeline error.
var ErrNotFound = errors.New("reference entry not found")

// ProductResolver resolves a product code into the cached catalog entry.
type ProductResolver struct {
	cache repository.LookupCache
}

func NewProductResolver(cache repository.LookupCache) *ProductResolver {
	return &ProductResolver{cache: cache}
}

func (r *ProductResolver) Resolve(ctx context.Context, productId string) (*model.ProductInfo, error) {
	value, ok, err := r.cache.Get(ctx, productKeyPrefix+productId)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "product %s", productId)
	}
	info := &model.ProductInfo{}
	if err := json.Unmarshal([]byte(value), info); err != nil {
		return nil, errors.WithMessagef(err, "malformed cache entry for product %s", productId)
	}
	return info, nil
}

// CurrencyResolver resolves a currency code into its USD conversion rate.
// Rates are cached as plain decimal strings.
type CurrencyResolver struct {
	cache repository.LookupCache
}

func NewCurrencyResolver(cache repository.LookupCache) *CurrencyResolver {
	return &CurrencyResolver{cache: cache}
}

func (r *CurrencyResolver) Resolve(ctx context.Context, currencyCode string) (float64, error) {
	value, ok, err := r.cache.Get(ctx, currencyKeyPrefix+currencyCode)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errors.Wrapf(ErrNotFound, "currency %s", currencyCode)
	}
	rate, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.WithMessagef(err, "malformed cache entry for currency %s", currencyCode)
	}
	return rate, nil
}

// RegionResolver resolves a region code into the cached zone entry.
type RegionResolver struct {
	cache repository.LookupCache
}

func NewRegionResolver(cache repository.LookupCache) *RegionResolver {
	return &RegionResolver{cache: cache}
}

func (r *RegionResolver) Resolve(ctx context.Context, regionCode string) (*model.RegionInfo, error) {
	value, ok, err := r.cache.Get(ctx, regionKeyPrefix+regionCode)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "region %s", regionCode)
	}
	info := &model.RegionInfo{}
	if err := json.Unmarshal([]byte(value), info); err != nil {
		return nil, errors.WithMessagef(err, "malformed cache entry for region %s", regionCode)
	}
	return info, nil
}
