package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFillDaily(t *testing.T) {
	now := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)

	byDate := map[string]DailyReport{
		"2026-08-29": {
			Date:              "2026-08-29",
			Orders:            4,
			Revenue:           decimal.NewFromFloat(320.00),
			AverageOrderValue: decimal.NewFromFloat(80.00),
		},
		"2026-08-31": {
			Date:              "2026-08-31",
			Orders:            1,
			Revenue:           decimal.NewFromFloat(45.50),
			AverageOrderValue: decimal.NewFromFloat(45.50),
		},
	}

	got := fillDaily(now, 4, byDate)
	require.Len(t, got, 4)

	// Oldest first, every calendar day present.
	assert.Equal(t, "2026-08-28", got[0].Date)
	assert.Equal(t, "2026-08-29", got[1].Date)
	assert.Equal(t, "2026-08-30", got[2].Date)
	assert.Equal(t, "2026-08-31", got[3].Date)

	// Days without orders come back as zero buckets.
	assert.Zero(t, got[0].Orders)
	assert.True(t, got[0].Revenue.IsZero())
	assert.True(t, got[0].AverageOrderValue.IsZero())
	assert.Zero(t, got[2].Orders)
	assert.True(t, got[2].Revenue.IsZero())

	// Populated days keep their aggregates.
	assert.Equal(t, 4, got[1].Orders)
	assert.True(t, got[1].Revenue.Equal(decimal.NewFromFloat(320.00)))
	assert.Equal(t, 1, got[3].Orders)
	assert.True(t, got[3].AverageOrderValue.Equal(decimal.NewFromFloat(45.50)))
}

func TestFillDailyAllEmpty(t *testing.T) {
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	got := fillDaily(now, 7, nil)
	require.Len(t, got, 7)
	assert.Equal(t, "2026-08-25", got[0].Date)
	assert.Equal(t, "2026-08-31", got[6].Date)
	for _, r := range got {
		assert.Zero(t, r.Orders)
		assert.True(t, r.Revenue.IsZero())
	}
}

func TestRevenueStatuses(t *testing.T) {
	// In-flight and completed orders count toward revenue; unpaid and
	// cancelled orders never do.
	assert.ElementsMatch(t,
		[]string{"PAID", "PREPARING", "READY", "COMPLETED"}, revenueStatuses)
	assert.NotContains(t, revenueStatuses, "PENDING_PAYMENT")
	assert.NotContains(t, revenueStatuses, "CANCELLED")
}
