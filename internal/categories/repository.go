package categories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workdeck/backend/internal/apperr"
	"github.com/workdeck/backend/internal/models"
	"github.com/workdeck/backend/pkg/database"
)

const categoryColumns = `id, company_id, name, color, is_default, is_active, created_by, created_at, updated_at`

// Repository provides time entry category persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a categories repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanCategory(row interface{ Scan(...any) error }) (*models.TimeEntryCategory, error) {
	var cat models.TimeEntryCategory
	err := row.Scan(&cat.ID, &cat.CompanyID, &cat.Name, &cat.Color, &cat.IsDefault,
		&cat.IsActive, &cat.CreatedBy, &cat.CreatedAt, &cat.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// Create inserts a category. Marking it default clears the previous default
// in the same transaction so the company never carries two.
func (r *Repository) Create(ctx context.Context, companyID uuid.UUID, name string, color *string, isDefault bool, createdBy uuid.UUID) (*models.TimeEntryCategory, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, apperr.Internal("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if isDefault {
		if _, err := tx.Exec(ctx,
			`UPDATE time_entry_categories SET is_default = FALSE, updated_at = NOW()
			 WHERE company_id = $1 AND is_default = TRUE`, companyID); err != nil {
			return nil, apperr.Internal("clear default category", err)
		}
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO time_entry_categories (company_id, name, color, is_default, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+categoryColumns,
		companyID, name, color, isDefault, createdBy)
	cat, err := scanCategory(row)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("a category with this name already exists")
		}
		return nil, apperr.Internal("create category", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Internal("commit transaction", err)
	}
	return cat, nil
}

// List returns the company's categories, default first then by name.
func (r *Repository) List(ctx context.Context, companyID uuid.UUID, isActive *bool) ([]models.TimeEntryCategory, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+categoryColumns+` FROM time_entry_categories
		WHERE company_id = $1
		  AND ($2::boolean IS NULL OR is_active = $2)
		ORDER BY is_default DESC, name ASC`,
		companyID, isActive)
	if err != nil {
		return nil, apperr.Internal("list categories", err)
	}
	defer rows.Close()

	var list []models.TimeEntryCategory
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, apperr.Internal("scan category", err)
		}
		list = append(list, *cat)
	}
	return list, rows.Err()
}

// GetByID loads one category.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.TimeEntryCategory, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM time_entry_categories WHERE id = $1`, id)
	cat, err := scanCategory(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("category not found")
		}
		return nil, apperr.Internal("get category", err)
	}
	return cat, nil
}

// Update patches the given fields, swapping the default when requested.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, name, color *string, isDefault, isActive *bool) (*models.TimeEntryCategory, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, apperr.Internal("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if isDefault != nil && *isDefault {
		if _, err := tx.Exec(ctx,
			`UPDATE time_entry_categories SET is_default = FALSE, updated_at = NOW()
			 WHERE company_id = (SELECT company_id FROM time_entry_categories WHERE id = $1)
			   AND is_default = TRUE AND id <> $1`, id); err != nil {
			return nil, apperr.Internal("clear default category", err)
		}
	}

	row := tx.QueryRow(ctx, `
		UPDATE time_entry_categories SET
			name = COALESCE($2, name),
			color = COALESCE($3, color),
			is_default = COALESCE($4, is_default),
			is_active = COALESCE($5, is_active),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+categoryColumns,
		id, name, color, isDefault, isActive)
	cat, err := scanCategory(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("category not found")
		}
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("a category with this name already exists")
		}
		return nil, apperr.Internal("update category", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Internal("commit transaction", err)
	}
	return cat, nil
}

// Delete removes a category.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM time_entry_categories WHERE id = $1`, id)
	if err != nil {
		return apperr.Internal("delete category", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("category not found")
	}
	return nil
}
