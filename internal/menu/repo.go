// Package menu implements menu CRUD and availability toggling with an
// append-only audit log.
package menu

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"tokyojung/internal/core"
	"tokyojung/internal/models"
)

const foreignKeyViolation = "23503"

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const itemColumns = `id, name, name_en, description, price, category, image, available, created_at, updated_at`

func scanItem(row pgx.Row) (*models.MenuItem, error) {
	var m models.MenuItem
	err := row.Scan(&m.ID, &m.Name, &m.NameEn, &m.Description, &m.Price,
		&m.Category, &m.Image, &m.Available, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func collectItems(rows pgx.Rows) ([]models.MenuItem, error) {
	defer rows.Close()
	items := []models.MenuItem{}
	for rows.Next() {
		m, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

// ListAvailable returns items visible to customers, ordered by (category, name).
func (r *Repo) ListAvailable(ctx context.Context) ([]models.MenuItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+itemColumns+` FROM menu_items WHERE available ORDER BY category, name`)
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "query menu")
	}
	items, err := collectItems(rows)
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "scan menu")
	}
	return items, nil
}

// ListAll returns every item, including unavailable ones.
func (r *Repo) ListAll(ctx context.Context) ([]models.MenuItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+itemColumns+` FROM menu_items ORDER BY category, name`)
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "query menu")
	}
	items, err := collectItems(rows)
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "scan menu")
	}
	return items, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*models.MenuItem, error) {
	m, err := scanItem(r.pool.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM menu_items WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.E(core.CodeNotFound, "menu item %d not found", id)
	}
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "query menu item")
	}
	return m, nil
}

// CreateInput carries the admin create payload.
type CreateInput struct {
	Name        string          `json:"name"`
	NameEn      *string         `json:"nameEn,omitempty"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    models.Category `json:"category"`
	Image       *string         `json:"image,omitempty"`
}

func (r *Repo) Create(ctx context.Context, in CreateInput) (*models.MenuItem, error) {
	m, err := scanItem(r.pool.QueryRow(ctx, `
		INSERT INTO menu_items (name, name_en, description, price, category, image)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+itemColumns,
		in.Name, in.NameEn, in.Description, in.Price, in.Category, in.Image))
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "insert menu item")
	}
	return m, nil
}

// UpdateInput is a partial patch; nil fields are left untouched. Changing
// Price never rewrites historical order line snapshots.
type UpdateInput struct {
	Name        *string          `json:"name,omitempty"`
	NameEn      *string          `json:"nameEn,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Category    *models.Category `json:"category,omitempty"`
	Image       *string          `json:"image,omitempty"`
	Available   *bool            `json:"available,omitempty"`
}

func (r *Repo) Update(ctx context.Context, id int64, in UpdateInput) (*models.MenuItem, error) {
	m, err := scanItem(r.pool.QueryRow(ctx, `
		UPDATE menu_items
		SET name        = COALESCE($2, name),
		    name_en     = COALESCE($3, name_en),
		    description = COALESCE($4, description),
		    price       = COALESCE($5, price),
		    category    = COALESCE($6, category),
		    image       = COALESCE($7, image),
		    available   = COALESCE($8, available),
		    updated_at  = now()
		WHERE id = $1
		RETURNING `+itemColumns,
		id, in.Name, in.NameEn, in.Description, in.Price, in.Category, in.Image, in.Available))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.E(core.CodeNotFound, "menu item %d not found", id)
	}
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "update menu item")
	}
	return m, nil
}

// SetAvailability flips the flag and appends the audit row in one transaction.
func (r *Repo) SetAvailability(ctx context.Context, id int64, available bool, reason *string) (*models.MenuItem, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	m, err := scanItem(tx.QueryRow(ctx, `
		UPDATE menu_items SET available = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+itemColumns, id, available))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.E(core.CodeNotFound, "menu item %d not found", id)
	}
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "update availability")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO availability_log (menu_item_id, available, reason)
		VALUES ($1, $2, $3)`, id, available, reason)
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "insert availability log")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "commit transaction")
	}
	return m, nil
}

// Delete removes an item. Items referenced by any order line or availability
// log row fail with CONFLICT; history keeps its snapshots.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return core.E(core.CodeConflict, "menu item %d is referenced by order or audit history", id)
		}
		return core.Wrap(core.CodeInternal, err, "delete menu item")
	}
	if tag.RowsAffected() == 0 {
		return core.E(core.CodeNotFound, "menu item %d not found", id)
	}
	return nil
}
