package reports

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokyojung/internal/core"
)

func sampleRows() []exportRow {
	return []exportRow{
		{
			QueueNumber:   1,
			CustomerName:  "Somchai",
			Date:          "2026-08-30",
			Time:          "09:15:00",
			Status:        "COMPLETED",
			TotalAmount:   decimal.NewFromFloat(120.50),
			PaymentMethod: "CASH",
			Items:         "Kanom Krok x2, Thai Tea x1",
		},
		{
			QueueNumber:   2,
			CustomerName:  "Malee, \"the regular\"",
			Date:          "2026-08-30",
			Time:          "09:20:00",
			Status:        "PAID",
			TotalAmount:   decimal.NewFromFloat(40),
			PaymentMethod: "PROMPTPAY",
			Items:         "Kanom Krok x1",
		},
	}
}

func TestRenderCSV(t *testing.T) {
	out, err := renderCSV(sampleRows())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"Queue Number", "Customer Name", "Date", "Time", "Status",
		"Total Amount", "Payment Method", "Items"}, records[0])

	assert.Equal(t, []string{"1", "Somchai", "2026-08-30", "09:15:00", "COMPLETED",
		"120.50", "CASH", "Kanom Krok x2, Thai Tea x1"}, records[1])

	// Names with commas and quotes must survive the round trip.
	assert.Equal(t, `Malee, "the regular"`, records[2][1])
	assert.Equal(t, "40.00", records[2][5])
}

func TestRenderCSVEmpty(t *testing.T) {
	out, err := renderCSV(nil)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1, "header only")
}

func TestRenderPDF(t *testing.T) {
	generatedAt := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	out, err := renderPDF("7d", generatedAt, sampleRows())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "output must be a PDF document")
}

func TestRenderPDFTruncatesDetails(t *testing.T) {
	rows := make([]exportRow, pdfOrderLimit+10)
	for i := range rows {
		rows[i] = exportRow{
			QueueNumber:  i + 1,
			CustomerName: "Customer",
			Date:         "2026-08-30",
			TotalAmount:  decimal.NewFromInt(50),
		}
	}

	out, err := renderPDF("30d", time.Now(), rows)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestSanitizePDFText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Somchai", "Somchai"},
		{"สมชาย", "?????"},
		{"Café", "Caf?"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizePDFText(tt.in))
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		period  string
		want    int
		wantErr bool
	}{
		{"", 7, false},
		{"7d", 7, false},
		{"30d", 30, false},
		{"90d", 90, false},
		{"365d", 0, true},
		{"week", 0, true},
	}

	for _, tt := range tests {
		t.Run("period "+tt.period, func(t *testing.T) {
			got, err := parsePeriod(tt.period)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, core.CodeBadRequest, core.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
