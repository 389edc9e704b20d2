// Package reports derives sales aggregates from the order log. Revenue
// counts orders in {PAID, PREPARING, READY, COMPLETED}; cancelled and
// unpaid orders are excluded everywhere.
package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"tokyojung/internal/core"
	"tokyojung/internal/models"
)

type Service struct {
	pool     *pgxpool.Pool
	location *time.Location
}

func NewService(pool *pgxpool.Pool, location *time.Location) *Service {
	return &Service{pool: pool, location: location}
}

// revenueStatuses mirrors models.RevenueStatuses as plain strings for SQL
// array parameters.
var revenueStatuses = func() []string {
	out := make([]string, len(models.RevenueStatuses))
	for i, st := range models.RevenueStatuses {
		out[i] = string(st)
	}
	return out
}()

// TodayStats is the dashboard headline.
type TodayStats struct {
	TodayOrders   int             `json:"todayOrders"`
	TodayRevenue  decimal.Decimal `json:"todayRevenue"`
	PendingOrders int             `json:"pendingOrders"`
}

// DailyReport is one calendar-day bucket.
type DailyReport struct {
	Date              string          `json:"date"`
	Orders            int             `json:"orders"`
	Revenue           decimal.Decimal `json:"revenue"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
}

// MenuItemReport is a per-item rollup across a period.
type MenuItemReport struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Category      models.Category `json:"category"`
	TotalQuantity int             `json:"totalQuantity"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	OrderCount    int             `json:"orderCount"`
}

// TopItem is one entry of a period report's top-10 list.
type TopItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// PeriodReport is the period summary.
type PeriodReport struct {
	Period            string          `json:"period"`
	TotalOrders       int             `json:"totalOrders"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
	TopItems          []TopItem       `json:"topItems"`
}

// parsePeriod maps a period string to a day count. Empty defaults to 7d.
func parsePeriod(period string) (int, error) {
	switch period {
	case "", "7d":
		return 7, nil
	case "30d":
		return 30, nil
	case "90d":
		return 90, nil
	}
	return 0, core.Field("period", "period must be one of 7d, 30d, 90d")
}

func (s *Service) today() string {
	return time.Now().In(s.location).Format("2006-01-02")
}

func (s *Service) periodStart(days int) string {
	return time.Now().In(s.location).AddDate(0, 0, -(days - 1)).Format("2006-01-02")
}

// TodayStats returns today's order count, today's in-flight-or-completed
// revenue, and the number of orders currently waiting on the kitchen.
func (s *Service) TodayStats(ctx context.Context) (*TodayStats, error) {
	stats := &TodayStats{TodayRevenue: decimal.Zero}
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE business_date = $1::date),
			COALESCE(SUM(total_amount) FILTER (
				WHERE business_date = $1::date
				AND status = ANY($2)), 0),
			COUNT(*) FILTER (WHERE status IN ('PAID', 'PREPARING'))
		FROM orders`,
		s.today(), revenueStatuses,
	).Scan(&stats.TodayOrders, &stats.TodayRevenue, &stats.PendingOrders)
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "query today stats")
	}
	return stats, nil
}

// Daily returns one bucket per calendar day over the trailing window,
// oldest first. Days with no qualifying orders yield zero rows.
func (s *Service) Daily(ctx context.Context, days int) ([]DailyReport, error) {
	if days <= 0 {
		days = 7
	}
	if days > 365 {
		return nil, core.Field("days", "days must be between 1 and 365")
	}

	rows, err := s.pool.Query(ctx, `
		SELECT to_char(business_date, 'YYYY-MM-DD'), COUNT(*), SUM(total_amount)
		FROM orders
		WHERE business_date >= $1::date AND status = ANY($2)
		GROUP BY business_date`,
		s.periodStart(days), revenueStatuses)
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "query daily report")
	}
	defer rows.Close()

	byDate := make(map[string]DailyReport)
	for rows.Next() {
		var r DailyReport
		if err := rows.Scan(&r.Date, &r.Orders, &r.Revenue); err != nil {
			return nil, core.Wrap(core.CodeInternal, err, "scan daily report")
		}
		r.AverageOrderValue = r.Revenue.DivRound(decimal.NewFromInt(int64(r.Orders)), 2)
		byDate[r.Date] = r
	}
	if err := rows.Err(); err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "scan daily report")
	}

	return fillDaily(time.Now().In(s.location), days, byDate), nil
}

// fillDaily lays the trailing window out oldest first, inserting a zero
// bucket for every calendar day without qualifying orders.
func fillDaily(now time.Time, days int, byDate map[string]DailyReport) []DailyReport {
	reports := make([]DailyReport, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		if r, ok := byDate[date]; ok {
			reports = append(reports, r)
			continue
		}
		reports = append(reports, DailyReport{
			Date:              date,
			Revenue:           decimal.Zero,
			AverageOrderValue: decimal.Zero,
		})
	}
	return reports
}

// MenuItems returns per-item rollups for the period, sorted by revenue.
func (s *Service) MenuItems(ctx context.Context, period string) ([]MenuItemReport, error) {
	days, err := parsePeriod(period)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT mi.id, mi.name, mi.category,
			SUM(oi.quantity), SUM(oi.total_price), COUNT(DISTINCT oi.order_id)
		FROM order_items oi
		JOIN menu_items mi ON mi.id = oi.menu_item_id
		JOIN orders o ON o.id = oi.order_id
		WHERE o.business_date >= $1::date AND o.status = ANY($2)
		GROUP BY mi.id, mi.name, mi.category
		ORDER BY SUM(oi.total_price) DESC`,
		s.periodStart(days), revenueStatuses)
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "query menu item report")
	}
	defer rows.Close()

	reports := []MenuItemReport{}
	for rows.Next() {
		var r MenuItemReport
		err := rows.Scan(&r.ID, &r.Name, &r.Category, &r.TotalQuantity, &r.TotalRevenue, &r.OrderCount)
		if err != nil {
			return nil, core.Wrap(core.CodeInternal, err, "scan menu item report")
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "scan menu item report")
	}
	return reports, nil
}

// Period returns the summary for a period, including the top 10 items by
// revenue.
func (s *Service) Period(ctx context.Context, period string) (*PeriodReport, error) {
	days, err := parsePeriod(period)
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = "7d"
	}

	report := &PeriodReport{
		Period:            period,
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
		TopItems:          []TopItem{},
	}

	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_amount), 0)
		FROM orders
		WHERE business_date >= $1::date AND status = ANY($2)`,
		s.periodStart(days), revenueStatuses,
	).Scan(&report.TotalOrders, &report.TotalRevenue)
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "query period report")
	}
	if report.TotalOrders > 0 {
		report.AverageOrderValue = report.TotalRevenue.
			DivRound(decimal.NewFromInt(int64(report.TotalOrders)), 2)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT mi.name, SUM(oi.quantity), SUM(oi.total_price)
		FROM order_items oi
		JOIN menu_items mi ON mi.id = oi.menu_item_id
		JOIN orders o ON o.id = oi.order_id
		WHERE o.business_date >= $1::date AND o.status = ANY($2)
		GROUP BY mi.name
		ORDER BY SUM(oi.total_price) DESC
		LIMIT 10`,
		s.periodStart(days), revenueStatuses)
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "query top items")
	}
	defer rows.Close()

	for rows.Next() {
		var t TopItem
		if err := rows.Scan(&t.Name, &t.Quantity, &t.Revenue); err != nil {
			return nil, core.Wrap(core.CodeInternal, err, "scan top item")
		}
		report.TopItems = append(report.TopItems, t)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "scan top items")
	}
	return report, nil
}
