// Package orders owns the order pipeline: creation with server-side pricing
// and queue numbering, the lifecycle state machine, and the read paths used
// by the dashboard and the customer app.
package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tokyojung/internal/core"
	"tokyojung/internal/models"
	"tokyojung/internal/queue"
)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const orderColumns = `id, queue_number, to_char(business_date, 'YYYY-MM-DD'), customer_name,
	status, total_amount, notes, payment_method, processed_by_id, created_at, updated_at`

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.QueueNumber, &o.BusinessDate, &o.CustomerName,
		&o.Status, &o.TotalAmount, &o.Notes, &o.PaymentMethod, &o.ProcessedByID,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

const itemColumns = `oi.id, oi.order_id, oi.menu_item_id, mi.name, oi.quantity,
	oi.unit_price, oi.total_price, oi.notes`

func scanItems(rows pgx.Rows) ([]models.OrderItem, error) {
	defer rows.Close()
	items := []models.OrderItem{}
	for rows.Next() {
		var it models.OrderItem
		err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name,
			&it.Quantity, &it.UnitPrice, &it.TotalPrice, &it.Notes)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Create validates, prices and inserts a new order inside one transaction.
// Queue number allocation holds a per-business-date advisory lock until the
// commit, so numbers are unique and gapless under concurrent creations.
func (r *Repo) Create(ctx context.Context, req models.CreateOrderRequest, businessDate string, notes *string) (*models.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	queueNumber, err := queue.Allocate(ctx, tx, businessDate)
	if err != nil {
		return nil, err
	}

	// Menu rows are read inside the order transaction so prices and
	// availability are consistent with the commit point.
	ids := make([]int64, 0, len(req.Items))
	for _, it := range req.Items {
		ids = append(ids, it.MenuItemID)
	}
	menu, err := r.loadMenuItems(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	lines, total, err := priceOrder(req.Items, menu)
	if err != nil {
		return nil, err
	}

	order, err := scanOrder(tx.QueryRow(ctx, `
		INSERT INTO orders (queue_number, business_date, customer_name, total_amount, notes)
		VALUES ($1, $2::date, $3, $4, $5)
		RETURNING `+orderColumns,
		queueNumber, businessDate, req.CustomerName, total, notes))
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "insert order")
	}

	for i := range lines {
		line := &lines[i]
		line.OrderID = order.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, menu_item_id, quantity, unit_price, total_price, notes)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			order.ID, line.MenuItemID, line.Quantity, line.UnitPrice, line.TotalPrice, line.Notes,
		).Scan(&line.ID)
		if err != nil {
			return nil, core.Wrap(core.CodeInternal, err, "insert order item")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "commit transaction")
	}

	order.Items = lines
	return order, nil
}

func (r *Repo) loadMenuItems(ctx context.Context, tx pgx.Tx, ids []int64) (map[int64]models.MenuItem, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, name, price, available
		FROM menu_items WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "query menu items")
	}
	defer rows.Close()

	menu := make(map[int64]models.MenuItem, len(ids))
	for rows.Next() {
		var m models.MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Price, &m.Available); err != nil {
			return nil, core.Wrap(core.CodeInternal, err, "scan menu item")
		}
		menu[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "scan menu items")
	}
	return menu, nil
}

// Transition fires one state machine event against the order row. The row is
// read FOR UPDATE so concurrent transitions on the same order serialise; the
// from-state is verified under that lock and an invalid transition leaves
// the row untouched. Cancel on an already-cancelled order is a no-op.
func (r *Repo) Transition(ctx context.Context, orderID int64, event TransitionEvent, actorID int64, payment *models.PaymentMethod) (*models.Order, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, core.Wrap(core.CodeInternal, err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	current, err := scanOrder(tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, core.E(core.CodeNotFound, "order %d not found", orderID)
	}
	if err != nil {
		return nil, false, core.Wrap(core.CodeInternal, err, "lock order")
	}

	to, noop, err := Next(current.Status, event)
	if err != nil {
		return nil, false, err
	}

	if noop {
		items, err := r.itemsFor(ctx, tx, current.ID)
		if err != nil {
			return nil, false, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, false, core.Wrap(core.CodeInternal, err, "commit transaction")
		}
		current.Items = items
		return current, true, nil
	}

	// payment_method is captured once on pay and immutable afterwards.
	updated, err := scanOrder(tx.QueryRow(ctx, `
		UPDATE orders
		SET status          = $2,
		    payment_method  = COALESCE(payment_method, $3),
		    processed_by_id = $4,
		    updated_at      = now()
		WHERE id = $1
		RETURNING `+orderColumns,
		orderID, to, payment, actorID))
	if err != nil {
		return nil, false, core.Wrap(core.CodeInternal, err, "update order")
	}

	items, err := r.itemsFor(ctx, tx, updated.ID)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, core.Wrap(core.CodeInternal, err, "commit transaction")
	}

	updated.Items = items
	return updated, false, nil
}

func (r *Repo) itemsFor(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, orderID int64) ([]models.OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT `+itemColumns+`
		FROM order_items oi
		JOIN menu_items mi ON mi.id = oi.menu_item_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`, orderID)
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "query order items")
	}
	items, err := scanItems(rows)
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "scan order items")
	}
	return items, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.E(core.CodeNotFound, "order %d not found", id)
	}
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "query order")
	}

	order.Items, err = r.itemsFor(ctx, r.pool, order.ID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// GetByQueueNumber resolves the customer-facing number within one business
// date; numbers recycle daily.
func (r *Repo) GetByQueueNumber(ctx context.Context, businessDate string, queueNumber int) (*models.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE business_date = $1::date AND queue_number = $2`,
		businessDate, queueNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.E(core.CodeNotFound, "queue number %d not found for %s", queueNumber, businessDate)
	}
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "query order")
	}

	order.Items, err = r.itemsFor(ctx, r.pool, order.ID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// List returns recent orders for the dashboard, newest first, optionally
// filtered by status.
func (r *Repo) List(ctx context.Context, status *models.OrderStatus, limit int) ([]models.Order, error) {
	var statusFilter *string
	if status != nil {
		s := string(*status)
		statusFilter = &s
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2`, statusFilter, limit)
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "query orders")
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, core.Wrap(core.CodeInternal, err, "scan order")
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "scan orders")
	}

	for i := range orders {
		orders[i].Items, err = r.itemsFor(ctx, r.pool, orders[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}
