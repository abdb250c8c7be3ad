package model

import (
	"encoding/json"
	"time"
)

// Record is a single order as produced upstream. Records are immutable:
// ownership passes from producer to queue to whichever worker pops them.
type Record struct {
	OrderID        string          `json:"order_id"`
	CustomerID     string          `json:"customer_id"`
	ProductID      string          `json:"product_id"`
	Quantity       int             `json:"quantity"`
	UnitPrice      float64         `json:"unit_price"`
	Currency       string          `json:"currency"`
	RegionCode     string          `json:"region_code"`
	OrderTimestamp time.Time       `json:"order_timestamp"`
	RawContext     json.RawMessage `json:"raw_context,omitempty"`
}

// EnrichedRecord is a Record with every reference field resolved against the
// lookup cache. A record is only staged once fully enriched.
type EnrichedRecord struct {
	Record
	ProductName     string
	ProductCategory string
	BasePrice       float64
	CurrencyRate    float64
	AmountUSD       float64
	City            string
	Country         string
	Timezone        string
	ShippingZone    string
	EnrichedAt      time.Time
}

// ProductInfo is the cached form of a product_catalog row.
type ProductInfo struct {
	ProductName string  `json:"product_name"`
	Category    string  `json:"category"`
	BasePrice   float64 `json:"base_price"`
}

// RegionInfo is the cached form of a region_zones row.
type RegionInfo struct {
	City         string `json:"city"`
	Country      string `json:"country"`
	Timezone     string `json:"timezone"`
	ShippingZone string `json:"shipping_zone"`
}
