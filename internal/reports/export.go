package reports

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"tokyojung/internal/core"
)

// pdfOrderLimit caps the order detail section of a PDF export.
const pdfOrderLimit = 20

// ExportResult carries an exported report. CSV content is UTF-8 text; PDF
// content is base64.
type ExportResult struct {
	Format   string `json:"format"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// exportRow is one order flattened for export.
type exportRow struct {
	QueueNumber   int
	CustomerName  string
	Date          string
	Time          string
	Status        string
	TotalAmount   decimal.Decimal
	PaymentMethod string
	Items         string
}

// Export renders the period's qualifying orders as CSV or PDF.
func (s *Service) Export(ctx context.Context, period, format string) (*ExportResult, error) {
	days, err := parsePeriod(period)
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = "7d"
	}
	if format != "csv" && format != "pdf" {
		return nil, core.Field("format", "format must be csv or pdf")
	}

	orderRows, err := s.exportRows(ctx, days)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("tokyojung-report-%s-%d.%s", period, time.Now().UnixMilli(), format)

	if format == "csv" {
		content, err := renderCSV(orderRows)
		if err != nil {
			return nil, core.Wrap(core.CodeInternal, err, "render csv")
		}
		return &ExportResult{Format: "csv", Filename: filename, Content: string(content)}, nil
	}

	content, err := renderPDF(period, time.Now().In(s.location), orderRows)
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "render pdf")
	}
	return &ExportResult{
		Format:   "pdf",
		Filename: filename,
		Content:  base64.StdEncoding.EncodeToString(content),
	}, nil
}

func (s *Service) exportRows(ctx context.Context, days int) ([]exportRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT o.queue_number, o.customer_name,
			to_char(o.created_at, 'YYYY-MM-DD'), to_char(o.created_at, 'HH24:MI:SS'),
			o.status, o.total_amount, COALESCE(o.payment_method, ''),
			COALESCE(string_agg(mi.name || ' x' || oi.quantity, ', ' ORDER BY oi.id), '')
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		LEFT JOIN menu_items mi ON mi.id = oi.menu_item_id
		WHERE o.business_date >= $1::date AND o.status = ANY($2)
		GROUP BY o.id
		ORDER BY o.created_at`,
		s.periodStart(days), revenueStatuses)
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "query export orders")
	}
	defer rows.Close()

	out := []exportRow{}
	for rows.Next() {
		var r exportRow
		err := rows.Scan(&r.QueueNumber, &r.CustomerName, &r.Date, &r.Time,
			&r.Status, &r.TotalAmount, &r.PaymentMethod, &r.Items)
		if err != nil {
			return nil, core.Wrap(core.CodeInternal, err, "scan export order")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "scan export orders")
	}
	return out, nil
}

func renderCSV(rows []exportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Queue Number", "Customer Name", "Date", "Time", "Status",
		"Total Amount", "Payment Method", "Items"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.QueueNumber),
			r.CustomerName,
			r.Date,
			r.Time,
			r.Status,
			r.TotalAmount.StringFixed(2),
			r.PaymentMethod,
			r.Items,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderPDF(period string, generatedAt time.Time, rows []exportRow) ([]byte, error) {
	totalOrders := len(rows)
	totalRevenue := decimal.Zero
	for _, r := range rows {
		totalRevenue = totalRevenue.Add(r.TotalAmount)
	}
	avgOrder := decimal.Zero
	if totalOrders > 0 {
		avgOrder = totalRevenue.DivRound(decimal.NewFromInt(int64(totalOrders)), 2)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Tokyojung Sales Report")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s", period))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.Format("2006-01-02 15:04:05")))
	pdf.Ln(10)

	pdf.Cell(0, 6, fmt.Sprintf("Total Orders: %d", totalOrders))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Total Revenue: THB %s", totalRevenue.StringFixed(2)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Average Order Value: THB %s", avgOrder.StringFixed(2)))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Order Details")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	for i, r := range rows {
		if i == pdfOrderLimit {
			pdf.Cell(0, 6, fmt.Sprintf("... and %d more orders", totalOrders-pdfOrderLimit))
			pdf.Ln(6)
			break
		}
		line := fmt.Sprintf("#%d  %s  THB %s  %s",
			r.QueueNumber, sanitizePDFText(r.CustomerName), r.TotalAmount.StringFixed(2), r.Date)
		pdf.Cell(0, 6, line)
		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sanitizePDFText replaces characters outside the core font's codepage so
// Thai customer names do not render as garbage in the detail lines.
func sanitizePDFText(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 0x80 {
			b.WriteRune(r)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}
