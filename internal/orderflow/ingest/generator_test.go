package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateProducesValidRecords(t *testing.T) {
	generator := NewGenerator(0, 1)
	now := time.Now().UTC()

	record := generator.Generate(now)
	assert.Regexp(t, `^ORD-[0-9A-F]{12}$`, record.OrderID)
	assert.Regexp(t, `^CUST-\d{8}$`, record.CustomerID)
	assert.Contains(t, productIds, record.ProductID)
	assert.Contains(t, currencies, record.Currency)
	assert.Contains(t, regionCodes, record.RegionCode)
	assert.GreaterOrEqual(t, record.Quantity, 1)
	assert.LessOrEqual(t, record.Quantity, 5)
	assert.Greater(t, record.UnitPrice, 0.0)
	assert.True(t, now.Equal(record.OrderTimestamp))
	assert.NotEmpty(t, record.RawContext)
}

func TestDuplicateRateIsApproximatelyHonoured(t *testing.T) {
	generator := NewGenerator(0.05, 42)
	records := generator.GenerateBatch(5000, time.Now(), time.Hour)

	seen := map[string]bool{}
	duplicates := 0
	for _, record := range records {
		if seen[record.OrderID] {
			duplicates++
		}
		seen[record.OrderID] = true
	}

	rate := float64(duplicates) / float64(len(records))
	assert.InDelta(t, 0.05, rate, 0.02)
}

func TestZeroDuplicateRateNeverRepeats(t *testing.T) {
	generator := NewGenerator(0, 7)
	records := generator.GenerateBatch(1000, time.Now(), time.Hour)

	seen := map[string]bool{}
	for _, record := range records {
		require.False(t, seen[record.OrderID])
		seen[record.OrderID] = true
	}
}

func TestGenerateBurstSharesTimestamp(t *testing.T) {
	generator := NewGenerator(0, 7)
	timestamp := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	records := generator.GenerateBurst(50, timestamp)
	require.Len(t, records, 50)
	for _, record := range records {
		assert.True(t, timestamp.Equal(record.OrderTimestamp))
	}
}

func TestBurstDuplicatesComeFromTheBurstItself(t *testing.T) {
	generator := NewGenerator(0.5, 11)
	records := generator.GenerateBurst(300, time.Now())

	emitted := map[string]bool{}
	for _, record := range records {
		emitted[record.OrderID] = true
	}
	// the duplication pool must only hold identifiers that were handed out,
	// so a duplicate never references an order that was never ingested
	for _, orderId := range generator.seenOrderIds {
		assert.True(t, emitted[orderId])
	}
}

func TestResetClearsDuplicationPool(t *testing.T) {
	generator := NewGenerator(1.0, 7)
	first := generator.Generate(time.Now())
	second := generator.Generate(time.Now())
	assert.Equal(t, first.OrderID, second.OrderID)

	generator.Reset()
	third := generator.Generate(time.Now())
	assert.NotEqual(t, first.OrderID, third.OrderID)
}
