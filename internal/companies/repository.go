// Package companies manages tenants and their lifecycle.
package companies

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workdeck/backend/internal/apperr"
	"github.com/workdeck/backend/internal/models"
	"github.com/workdeck/backend/pkg/database"
)

const companyColumns = `id, name, slug, logo, description, status, deleted_at, created_by, created_at, updated_at`

// Repository handles company persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a companies repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanCompany(row interface{ Scan(...any) error }) (*models.Company, error) {
	var co models.Company
	err := row.Scan(&co.ID, &co.Name, &co.Slug, &co.Logo, &co.Description, &co.Status,
		&co.DeletedAt, &co.CreatedBy, &co.CreatedAt, &co.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("company not found")
		}
		return nil, err
	}
	return &co, nil
}

// systemRoles are created with every company. Member is the default role for
// invitees.
var systemRoles = []struct {
	name      string
	isDefault bool
}{
	{models.RoleOwner, false},
	{models.RoleAdmin, false},
	{models.RoleManager, false},
	{models.RoleMember, true},
}

// txQuerier is the slice of pgx.Tx the creation sequence needs. Tests
// substitute a fake.
type txQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CreateWithOwner creates the company, its four system roles, and an ACTIVE
// membership for the creator holding the Owner role, all in one transaction.
func (r *Repository) CreateWithOwner(ctx context.Context, name, slug string, logo, description *string, creatorID uuid.UUID) (*models.Company, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	co, err := createWithOwnerTx(ctx, tx, name, slug, logo, description, creatorID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return co, nil
}

// createWithOwnerTx runs the creation sequence on an open transaction. Any
// error aborts the whole sequence; nothing is committed here.
func createWithOwnerTx(ctx context.Context, tx txQuerier, name, slug string, logo, description *string, creatorID uuid.UUID) (*models.Company, error) {
	co, err := scanCompany(tx.QueryRow(ctx,
		`INSERT INTO companies (name, slug, logo, description, created_by)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+companyColumns,
		name, slug, logo, description, creatorID))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("company slug already exists")
		}
		return nil, err
	}

	var ownerRoleID uuid.UUID
	for _, sr := range systemRoles {
		var roleID uuid.UUID
		err := tx.QueryRow(ctx,
			`INSERT INTO roles (company_id, name, is_system, is_default)
			 VALUES ($1, $2, TRUE, $3)
			 RETURNING id`,
			co.ID, sr.name, sr.isDefault).Scan(&roleID)
		if err != nil {
			return nil, err
		}
		if sr.name == models.RoleOwner {
			ownerRoleID = roleID
		}
	}

	var membershipID uuid.UUID
	err = tx.QueryRow(ctx,
		`INSERT INTO memberships (company_id, user_id, status, activated_at)
		 VALUES ($1, $2, 'ACTIVE', NOW())
		 RETURNING id`,
		co.ID, creatorID).Scan(&membershipID)
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO membership_roles (membership_id, role_id) VALUES ($1, $2)`,
		membershipID, ownerRoleID)
	if err != nil {
		return nil, err
	}
	return co, nil
}

// ListFilter narrows the company listing.
type ListFilter struct {
	Search         string
	Status         *models.CompanyStatus
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// List returns companies with member counts.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]models.Company, int, error) {
	const base = `FROM companies c
		WHERE ($1 = '' OR c.name ILIKE '%' || $1 || '%' OR c.slug ILIKE '%' || $1 || '%')
		  AND ($2::text IS NULL OR c.status = $2)
		  AND ($3 OR c.deleted_at IS NULL)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) `+base, f.Search, f.Status, f.IncludeDeleted).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.name, c.slug, c.logo, c.description, c.status, c.deleted_at, c.created_by, c.created_at, c.updated_at,
			(SELECT COUNT(*) FROM memberships m WHERE m.company_id = c.id) `+base+`
		 ORDER BY c.created_at DESC LIMIT $4 OFFSET $5`,
		f.Search, f.Status, f.IncludeDeleted, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []models.Company{}
	for rows.Next() {
		var co models.Company
		if err := rows.Scan(&co.ID, &co.Name, &co.Slug, &co.Logo, &co.Description, &co.Status,
			&co.DeletedAt, &co.CreatedBy, &co.CreatedAt, &co.UpdatedAt, &co.MemberCount); err != nil {
			return nil, 0, err
		}
		list = append(list, co)
	}
	return list, total, rows.Err()
}

// GetByID returns one company with its member count.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	co, err := scanCompany(r.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM memberships WHERE company_id = $1`, id).Scan(&co.MemberCount)
	return co, err
}

// GetBySlug returns one company by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Company, error) {
	return scanCompany(r.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE slug = $1`, slug))
}

// SlugTaken reports whether a company (deleted included) already uses slug.
func (r *Repository) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM companies WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}

// Update changes mutable company fields. Nil fields keep current values.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, name, slug, logo, description *string, status *models.CompanyStatus) (*models.Company, error) {
	co, err := scanCompany(r.pool.QueryRow(ctx,
		`UPDATE companies SET
			name = COALESCE($2, name),
			slug = COALESCE($3, slug),
			logo = COALESCE($4, logo),
			description = COALESCE($5, description),
			status = COALESCE($6, status),
			updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+companyColumns,
		id, name, slug, logo, description, status))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("company slug already exists")
		}
		return nil, err
	}
	return co, nil
}

// SoftDelete marks the company deleted. Already-deleted refuses with
// BadRequest.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	co, err := scanCompany(r.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	if err != nil {
		return err
	}
	if co.DeletedAt != nil {
		return apperr.BadRequest("company is already deleted")
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE companies SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	return err
}

// Restore clears the soft-delete mark. Not-deleted refuses with BadRequest.
func (r *Repository) Restore(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	co, err := scanCompany(r.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if co.DeletedAt == nil {
		return nil, apperr.BadRequest("company is not deleted")
	}
	return scanCompany(r.pool.QueryRow(ctx,
		`UPDATE companies SET deleted_at = NULL, updated_at = NOW() WHERE id = $1
		 RETURNING `+companyColumns, id))
}
