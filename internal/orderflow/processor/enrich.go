package processor

import (
	"context"
	"time"

	"github.com/orderflow/orderflow/internal/orderflow/lookup"
	"github.com/orderflow/orderflow/internal/orderflow/model"
	"github.com/orderflow/orderflow/internal/orderflow/repository"
)

// Enricher resolves every reference field of a record against the lookup
// cache. Any unresolved field fails the record, never the batch.
type Enricher struct {
	products   *lookup.ProductResolver
	currencies *lookup.CurrencyResolver
	regions    *lookup.RegionResolver
}

func NewEnricher(cache repository.LookupCache) *Enricher {
	return &Enricher{
		products:   lookup.NewProductResolver(cache),
		currencies: lookup.NewCurrencyResolver(cache),
		regions:    lookup.NewRegionResolver(cache),
	}
}

func (e *Enricher) Enrich(ctx context.Context, record *model.Record) (*model.EnrichedRecord, error) {
	product, err := e.products.Resolve(ctx, record.ProductID)
	if err != nil {
		return nil, err
	}
	rate, err := e.currencies.Resolve(ctx, record.Currency)
	if err != nil {
		return nil, err
	}
	region, err := e.regions.Resolve(ctx, record.RegionCode)
	if err != nil {
		return nil, err
	}

	return &model.EnrichedRecord{
		Record:          *record,
		ProductName:     product.ProductName,
		ProductCategory: product.Category,
		BasePrice:       product.BasePrice,
		CurrencyRate:    rate,
		AmountUSD:       record.UnitPrice * float64(record.Quantity) * rate,
		City:            region.City,
		Country:         region.Country,
		Timezone:        region.Timezone,
		ShippingZone:    region.ShippingZone,
		EnrichedAt:      time.Now(),
	}, nil
}
