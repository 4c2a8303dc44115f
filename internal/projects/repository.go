package projects

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workdeck/backend/internal/apperr"
	"github.com/workdeck/backend/internal/models"
	"github.com/workdeck/backend/pkg/database"
)

const projectColumns = `id, company_id, name, description, is_active, created_by, created_at, updated_at,
	(SELECT COUNT(*) FROM time_entries te WHERE te.project_id = projects.id) AS time_entry_count`

// Repository provides project persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a projects repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanProject(row interface{ Scan(...any) error }) (*models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.CompanyID, &p.Name, &p.Description, &p.IsActive,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &p.TimeEntryCount)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a project.
func (r *Repository) Create(ctx context.Context, companyID uuid.UUID, name string, description *string, createdBy uuid.UUID) (*models.Project, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO projects (company_id, name, description, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING `+projectColumns,
		companyID, name, description, createdBy)
	p, err := scanProject(row)
	if err != nil {
		return nil, apperr.Internal("create project", err)
	}
	return p, nil
}

// List returns a page of the company's projects, newest first.
func (r *Repository) List(ctx context.Context, companyID uuid.UUID, search string, isActive *bool, limit, offset int) ([]models.Project, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM projects
		WHERE company_id = $1
		  AND ($2 = '' OR name ILIKE '%'||$2||'%' OR description ILIKE '%'||$2||'%')
		  AND ($3::boolean IS NULL OR is_active = $3)`,
		companyID, search, isActive).Scan(&total)
	if err != nil {
		return nil, 0, apperr.Internal("count projects", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE company_id = $1
		  AND ($2 = '' OR name ILIKE '%'||$2||'%' OR description ILIKE '%'||$2||'%')
		  AND ($3::boolean IS NULL OR is_active = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`,
		companyID, search, isActive, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal("list projects", err)
	}
	defer rows.Close()

	list := make([]models.Project, 0, limit)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, apperr.Internal("scan project", err)
		}
		list = append(list, *p)
	}
	return list, total, rows.Err()
}

// GetByID loads one project.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	p, err := scanProject(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("project not found")
		}
		return nil, apperr.Internal("get project", err)
	}
	return p, nil
}

// Update patches the given fields.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, name, description *string, isActive *bool) (*models.Project, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE projects SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			is_active = COALESCE($4, is_active),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+projectColumns,
		id, name, description, isActive)
	p, err := scanProject(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("project not found")
		}
		return nil, apperr.Internal("update project", err)
	}
	return p, nil
}

// Delete removes a project. Projects with logged time cannot be deleted.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	var entries int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM time_entries WHERE project_id = $1`, id).Scan(&entries); err != nil {
		return apperr.Internal("count project time entries", err)
	}
	if entries > 0 {
		return apperr.Conflict("project has time entries and cannot be deleted")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return apperr.Internal("delete project", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("project not found")
	}
	return nil
}

// CompanyOf returns the owning company of a project.
func (r *Repository) CompanyOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var companyID uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT company_id FROM projects WHERE id = $1`, id).Scan(&companyID)
	if err != nil {
		if database.IsNoRows(err) {
			return uuid.Nil, apperr.NotFound("project not found")
		}
		return uuid.Nil, apperr.Internal("get project company", err)
	}
	return companyID, nil
}
