package permissions

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workdeck/backend/internal/apperr"
	"github.com/workdeck/backend/internal/models"
	"github.com/workdeck/backend/pkg/database"
)

// PermissionWithUsage is a catalog entry plus assignment counts.
type PermissionWithUsage struct {
	models.Permission
	RoleCount int `json:"role_count"`
	UserCount int `json:"user_count"`
}

// Repository handles permission catalog persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a permissions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const usageColumns = `p.id, p.key, p.description, p.scope, p.created_at, p.updated_at,
	(SELECT COUNT(*) FROM role_permissions rp WHERE rp.permission_id = p.id),
	(SELECT COUNT(*) FROM user_global_permissions ugp WHERE ugp.permission_id = p.id)`

func scanUsage(row interface{ Scan(...any) error }) (*PermissionWithUsage, error) {
	var p PermissionWithUsage
	err := row.Scan(&p.ID, &p.Key, &p.Description, &p.Scope, &p.CreatedAt, &p.UpdatedAt,
		&p.RoleCount, &p.UserCount)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("permission not found")
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a catalog entry. Duplicate keys surface as Conflict.
func (r *Repository) Create(ctx context.Context, key string, description *string, scope models.PermissionScope) (*PermissionWithUsage, error) {
	var p PermissionWithUsage
	err := r.pool.QueryRow(ctx,
		`INSERT INTO permissions (key, description, scope) VALUES ($1, $2, $3)
		 RETURNING id, key, description, scope, created_at, updated_at`,
		key, description, scope).
		Scan(&p.ID, &p.Key, &p.Description, &p.Scope, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("permission key already exists")
		}
		return nil, err
	}
	return &p, nil
}

// List returns catalog entries with optional search and scope filters.
func (r *Repository) List(ctx context.Context, search string, scope *models.PermissionScope, limit, offset int) ([]PermissionWithUsage, int, error) {
	const base = `FROM permissions p
		WHERE ($1 = '' OR p.key ILIKE '%' || $1 || '%' OR p.description ILIKE '%' || $1 || '%')
		  AND ($2::text IS NULL OR p.scope = $2)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) `+base, search, scope).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+usageColumns+` `+base+` ORDER BY p.key LIMIT $3 OFFSET $4`,
		search, scope, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []PermissionWithUsage{}
	for rows.Next() {
		p, err := scanUsage(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *p)
	}
	return list, total, rows.Err()
}

// All returns the whole catalog without pagination, for pickers.
func (r *Repository) All(ctx context.Context) ([]models.Permission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, key, description, scope, created_at, updated_at FROM permissions ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Permission{}
	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.ID, &p.Key, &p.Description, &p.Scope, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// GetByID returns one catalog entry with usage counts.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*PermissionWithUsage, error) {
	return scanUsage(r.pool.QueryRow(ctx, `SELECT `+usageColumns+` FROM permissions p WHERE p.id = $1`, id))
}

// GetByKey returns one catalog entry by key, or NotFound.
func (r *Repository) GetByKey(ctx context.Context, key string) (*models.Permission, error) {
	var p models.Permission
	err := r.pool.QueryRow(ctx,
		`SELECT id, key, description, scope, created_at, updated_at FROM permissions WHERE key = $1`, key).
		Scan(&p.ID, &p.Key, &p.Description, &p.Scope, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("permission not found")
		}
		return nil, err
	}
	return &p, nil
}

// Update changes key, description or scope. Nil fields keep current values.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, key, description *string, scope *models.PermissionScope) (*PermissionWithUsage, error) {
	_, err := r.pool.Exec(ctx,
		`UPDATE permissions SET
			key = COALESCE($2, key),
			description = COALESCE($3, description),
			scope = COALESCE($4, scope),
			updated_at = NOW()
		 WHERE id = $1`, id, key, description, scope)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("permission key already exists")
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes an unused catalog entry. Entries still assigned to roles or
// users refuse with BadRequest.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.RoleCount > 0 || p.UserCount > 0 {
		return apperr.BadRequest("permission is still assigned to roles or users")
	}
	_, err = r.pool.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	return err
}

// GrantGlobal records a direct GLOBAL grant. Idempotent.
func (r *Repository) GrantGlobal(ctx context.Context, userID, permissionID, grantedBy uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_global_permissions (user_id, permission_id, granted_by)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, permission_id) DO NOTHING`,
		userID, permissionID, grantedBy)
	return err
}

// RevokeGlobal removes a direct GLOBAL grant.
func (r *Repository) RevokeGlobal(ctx context.Context, userID, permissionID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM user_global_permissions WHERE user_id = $1 AND permission_id = $2`,
		userID, permissionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("grant not found")
	}
	return nil
}

// UserGrants lists a user's direct GLOBAL grants with permission details.
func (r *Repository) UserGrants(ctx context.Context, userID uuid.UUID) ([]models.Permission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.key, p.description, p.scope, p.created_at, p.updated_at
		 FROM user_global_permissions ugp
		 INNER JOIN permissions p ON p.id = ugp.permission_id
		 WHERE ugp.user_id = $1
		 ORDER BY p.key`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Permission{}
	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.ID, &p.Key, &p.Description, &p.Scope, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
