package ingest

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orderflow/orderflow/internal/orderflow/model"
)

// Reference codes matching the seeded lookup tables.
var (
	productIds = []string{
		"PROD-001", "PROD-002", "PROD-003", "PROD-004", "PROD-005",
		"PROD-006", "PROD-007", "PROD-008", "PROD-009", "PROD-010",
		"PROD-011", "PROD-012", "PROD-013", "PROD-014", "PROD-015",
	}
	currencies  = []string{"USD", "EUR", "GBP", "CAD", "AUD", "JPY", "INR"}
	regionCodes = []string{
		"US-NY", "US-CA", "US-IL", "US-MA", "US-WA",
		"US-FL", "US-TX", "US-CO", "CA-ON", "CA-BC",
	}
)

// Generator produces synthetic order records for tests and the generate
// command. A configurable fraction of records reuses a previously generated
// identifier to exercise the deduplication window.
type Generator struct {
	duplicateRate float64
	rand          *rand.Rand
	seenOrderIds  []string
}

func NewGenerator(duplicateRate float64, seed int64) *Generator {
	return &Generator{
		duplicateRate: duplicateRate,
		rand:          rand.New(rand.NewSource(seed)),
	}
}

func (g *Generator) Generate(timestamp time.Time) *model.Record {
	var orderId string
	if len(g.seenOrderIds) > 0 && g.rand.Float64() < g.duplicateRate {
		orderId = g.seenOrderIds[g.rand.Intn(len(g.seenOrderIds))]
	} else {
		orderId = "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
		g.seenOrderIds = append(g.seenOrderIds, orderId)
	}

	productId := productIds[g.rand.Intn(len(productIds))]
	rawContext, _ := json.Marshal(map[string]string{
		"session_id": uuid.NewString(),
		"source":     "generator",
	})

	return &model.Record{
		OrderID:        orderId,
		CustomerID:     fmt.Sprintf("CUST-%08d", g.rand.Intn(100000000)),
		ProductID:      productId,
		Quantity:       1 + g.rand.Intn(5),
		UnitPrice:      float64(int(g.rand.Float64()*150000))/100 + 1,
		Currency:       currencies[g.rand.Intn(len(currencies))],
		RegionCode:     regionCodes[g.rand.Intn(len(regionCodes))],
		OrderTimestamp: timestamp,
		RawContext:     rawContext,
	}
}

// GenerateBatch spreads timestamps evenly across the given window.
func (g *Generator) GenerateBatch(count int, start time.Time, spread time.Duration) []*model.Record {
	records := make([]*model.Record, count)
	for i := 0; i < count; i++ {
		offset := time.Duration(0)
		if count > 0 {
			offset = spread / time.Duration(count) * time.Duration(i)
		}
		records[i] = g.Generate(start.Add(offset))
	}
	return records
}

// GenerateBurst produces count records all carrying the same timestamp,
// useful for exercising high-concurrency paths.
func (g *Generator) GenerateBurst(count int, timestamp time.Time) []*model.Record {
	records := make([]*model.Record, count)
	for i := 0; i < count; i++ {
		records[i] = g.Generate(timestamp)
	}
	return records
}

// Reset clears the pool of identifiers eligible for duplication.
func (g *Generator) Reset() {
	g.seenOrderIds = nil
}
