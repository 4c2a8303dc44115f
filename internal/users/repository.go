// Package users manages user profiles and account state.
package users

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workdeck/backend/internal/apperr"
	"github.com/workdeck/backend/internal/models"
	"github.com/workdeck/backend/pkg/database"
)

const userColumns = `id, email, password_hash, full_name, phone, avatar,
	is_disabled, disabled_at, last_login_at, created_at, updated_at`

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a users repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.Avatar,
		&u.IsDisabled, &u.DisabledAt, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// List returns users filtered by a search term over email and full name.
func (r *Repository) List(ctx context.Context, search string, limit, offset int) ([]models.UserPublic, int, error) {
	const base = `FROM users
		WHERE ($1 = '' OR email ILIKE '%' || $1 || '%' OR full_name ILIKE '%' || $1 || '%')`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) `+base, search).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` `+base+` ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []models.UserPublic{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, u.ToPublic())
	}
	return list, total, rows.Err()
}

// UpdateProfile changes the mutable profile fields. Nil fields keep current
// values.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, fullName, phone, avatar *string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`UPDATE users SET
			full_name = COALESCE($2, full_name),
			phone = COALESCE($3, phone),
			avatar = COALESCE($4, avatar),
			updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, fullName, phone, avatar))
}

// UpdatePassword swaps the stored password hash.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

// Disable marks the account disabled. Already-disabled accounts refuse with
// BadRequest.
func (r *Repository) Disable(ctx context.Context, id uuid.UUID) error {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.IsDisabled {
		return apperr.BadRequest("account is already disabled")
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE users SET is_disabled = TRUE, disabled_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	return err
}

// Enable re-activates a disabled account.
func (r *Repository) Enable(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_disabled = FALSE, disabled_at = NULL, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}
