// Package users provides typed access to staff accounts.
package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tokyojung/internal/core"
	"tokyojung/internal/models"
)

const uniqueViolation = "23505"

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const userColumns = `id, email, name, role, password_hash, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks a user up case-insensitively.
func (r *Repo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.E(core.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "query user")
	}
	return u, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.E(core.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, core.Wrap(core.CodeInternal, err, "query user")
	}
	return u, nil
}

// Create inserts a staff account. A duplicate email fails with CONFLICT.
func (r *Repo) Create(ctx context.Context, email, name string, role models.Role, passwordHash string) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, role, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		email, name, role, passwordHash))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, core.E(core.CodeConflict, "email already in use")
		}
		return nil, core.Wrap(core.CodeInternal, err, "insert user")
	}
	return u, nil
}

// UpdateProfile patches name and/or email. An email held by another user
// fails with CONFLICT.
func (r *Repo) UpdateProfile(ctx context.Context, id int64, name, email *string) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
		UPDATE users
		SET name  = COALESCE($2, name),
		    email = COALESCE($3, email)
		WHERE id = $1
		RETURNING `+userColumns,
		id, name, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.E(core.CodeNotFound, "user not found")
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, core.E(core.CodeConflict, "email already in use")
		}
		return nil, core.Wrap(core.CodeInternal, err, "update user")
	}
	return u, nil
}

func (r *Repo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return core.Wrap(core.CodeInternal, err, "update password")
	}
	if tag.RowsAffected() == 0 {
		return core.E(core.CodeNotFound, "user not found")
	}
	return nil
}
