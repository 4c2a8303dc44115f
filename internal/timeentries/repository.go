package timeentries

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workdeck/backend/internal/apperr"
	"github.com/workdeck/backend/internal/models"
	"github.com/workdeck/backend/pkg/database"
)

const entryColumns = `te.id, te.company_id, te.user_id, te.logged_by_user_id, te.project_id,
	te.client_id, te.category_id, te.date, te.hours, te.start_time, te.end_time,
	te.title, te.description, te.is_overtime, te.applied_rate_per_hour,
	te.created_at, te.updated_at,
	u.id, u.email, u.full_name, u.avatar, p.name`

// ListFilter narrows the entry listing. Nil pointer fields are ignored.
// CompanyIDs scopes the result set; an empty slice matches nothing.
type ListFilter struct {
	CompanyIDs []uuid.UUID
	ProjectID  *uuid.UUID
	UserID     *uuid.UUID
	ClientID   *uuid.UUID
	CategoryID *uuid.UUID
	IsOvertime *bool
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}

// ProjectSummary aggregates hours logged against one project.
type ProjectSummary struct {
	ProjectID   *uuid.UUID `json:"project_id"`
	ProjectName string     `json:"project_name"`
	Hours       float64    `json:"hours"`
	Entries     int        `json:"entries"`
}

// Summary is the per-user hours rollup for a date range.
type Summary struct {
	TotalHours   float64          `json:"total_hours"`
	TotalEntries int              `json:"total_entries"`
	ByProject    []ProjectSummary `json:"by_project"`
	StartDate    time.Time        `json:"start_date"`
	EndDate      time.Time        `json:"end_date"`
}

// Repository provides time entry persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a time entries repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEntry(row interface{ Scan(...any) error }) (*models.TimeEntry, error) {
	var e models.TimeEntry
	var u models.UserPublic
	err := row.Scan(&e.ID, &e.CompanyID, &e.UserID, &e.LoggedByUserID, &e.ProjectID,
		&e.ClientID, &e.CategoryID, &e.Date, &e.Hours, &e.StartTime, &e.EndTime,
		&e.Title, &e.Description, &e.IsOvertime, &e.AppliedRatePerHour,
		&e.CreatedAt, &e.UpdatedAt,
		&u.ID, &u.Email, &u.FullName, &u.Avatar, &e.ProjectName)
	if err != nil {
		return nil, err
	}
	e.User = &u
	return &e, nil
}

// Insert stores a new entry and fills in the generated fields.
func (r *Repository) Insert(ctx context.Context, e *models.TimeEntry) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO time_entries
			(company_id, user_id, logged_by_user_id, project_id, client_id, category_id,
			 date, hours, start_time, end_time, title, description, is_overtime, applied_rate_per_hour)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`,
		e.CompanyID, e.UserID, e.LoggedByUserID, e.ProjectID, e.ClientID, e.CategoryID,
		e.Date, e.Hours, e.StartTime, e.EndTime, e.Title, e.Description,
		e.IsOvertime, e.AppliedRatePerHour).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return apperr.Internal("insert time entry", err)
	}
	return nil
}

// GetByID loads one entry with its user and project name attached.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.TimeEntry, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM time_entries te
		JOIN users u ON u.id = te.user_id
		LEFT JOIN projects p ON p.id = te.project_id
		WHERE te.id = $1`, id)
	e, err := scanEntry(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("time entry not found")
		}
		return nil, apperr.Internal("get time entry", err)
	}
	return e, nil
}

// Update rewrites the mutable fields of an entry.
func (r *Repository) Update(ctx context.Context, e *models.TimeEntry) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE time_entries SET
			project_id = $2, client_id = $3, category_id = $4,
			date = $5, hours = $6, start_time = $7, end_time = $8,
			title = $9, description = $10, is_overtime = $11, applied_rate_per_hour = $12,
			updated_at = NOW()
		WHERE id = $1`,
		e.ID, e.ProjectID, e.ClientID, e.CategoryID,
		e.Date, e.Hours, e.StartTime, e.EndTime,
		e.Title, e.Description, e.IsOvertime, e.AppliedRatePerHour)
	if err != nil {
		return apperr.Internal("update time entry", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("time entry not found")
	}
	return nil
}

// Delete removes an entry.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM time_entries WHERE id = $1`, id)
	if err != nil {
		return apperr.Internal("delete time entry", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("time entry not found")
	}
	return nil
}

// List returns a filtered page of entries, newest date first.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]models.TimeEntry, int, error) {
	where := []string{"te.company_id = ANY($1)"}
	args := []any{f.CompanyIDs}

	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ProjectID != nil {
		add("te.project_id = $%d", *f.ProjectID)
	}
	if f.UserID != nil {
		add("te.user_id = $%d", *f.UserID)
	}
	if f.ClientID != nil {
		add("te.client_id = $%d", *f.ClientID)
	}
	if f.CategoryID != nil {
		add("te.category_id = $%d", *f.CategoryID)
	}
	if f.IsOvertime != nil {
		add("te.is_overtime = $%d", *f.IsOvertime)
	}
	if f.StartDate != nil {
		add("te.date >= $%d", *f.StartDate)
	}
	if f.EndDate != nil {
		add("te.date <= $%d", *f.EndDate)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM time_entries te WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Internal("count time entries", err)
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM time_entries te
		JOIN users u ON u.id = te.user_id
		LEFT JOIN projects p ON p.id = te.project_id
		WHERE %s
		ORDER BY te.date DESC, te.created_at DESC
		LIMIT $%d OFFSET $%d`,
		entryColumns, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, apperr.Internal("list time entries", err)
	}
	defer rows.Close()

	list := make([]models.TimeEntry, 0, f.Limit)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, apperr.Internal("scan time entry", err)
		}
		list = append(list, *e)
	}
	return list, total, rows.Err()
}

// ActiveCompanyIDs returns the companies where the user holds an ACTIVE
// membership. Used to scope listings for non-admin callers.
func (r *Repository) ActiveCompanyIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT company_id FROM memberships WHERE user_id = $1 AND status = 'ACTIVE'`, userID)
	if err != nil {
		return nil, apperr.Internal("list member companies", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Internal("scan company id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AllCompanyIDs returns every company id. Platform-admin listings without a
// company filter use this scope.
func (r *Repository) AllCompanyIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM companies WHERE deleted_at IS NULL`)
	if err != nil {
		return nil, apperr.Internal("list companies", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Internal("scan company id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Summary aggregates one user's hours in a company over a date range, grouped
// by project.
func (r *Repository) Summary(ctx context.Context, companyID, userID uuid.UUID, start, end time.Time) (*Summary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT te.project_id, COALESCE(p.name, 'No Project'), SUM(te.hours), COUNT(*)
		FROM time_entries te
		LEFT JOIN projects p ON p.id = te.project_id
		WHERE te.company_id = $1 AND te.user_id = $2 AND te.date >= $3 AND te.date <= $4
		GROUP BY te.project_id, p.name
		ORDER BY SUM(te.hours) DESC`,
		companyID, userID, start, end)
	if err != nil {
		return nil, apperr.Internal("summarize time entries", err)
	}
	defer rows.Close()

	s := &Summary{ByProject: []ProjectSummary{}, StartDate: start, EndDate: end}
	for rows.Next() {
		var ps ProjectSummary
		if err := rows.Scan(&ps.ProjectID, &ps.ProjectName, &ps.Hours, &ps.Entries); err != nil {
			return nil, apperr.Internal("scan summary row", err)
		}
		s.ByProject = append(s.ByProject, ps)
		s.TotalHours += ps.Hours
		s.TotalEntries += ps.Entries
	}
	return s, rows.Err()
}

// ProjectInCompany reports whether the project belongs to the company.
func (r *Repository) ProjectInCompany(ctx context.Context, projectID, companyID uuid.UUID) (bool, error) {
	return r.existsIn(ctx, "projects", projectID, companyID)
}

// ClientInCompany reports whether the client belongs to the company.
func (r *Repository) ClientInCompany(ctx context.Context, clientID, companyID uuid.UUID) (bool, error) {
	return r.existsIn(ctx, "clients", clientID, companyID)
}

// CategoryInCompany reports whether the category belongs to the company.
func (r *Repository) CategoryInCompany(ctx context.Context, categoryID, companyID uuid.UUID) (bool, error) {
	return r.existsIn(ctx, "time_entry_categories", categoryID, companyID)
}

func (r *Repository) existsIn(ctx context.Context, table string, id, companyID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1 AND company_id = $2)`,
		id, companyID).Scan(&exists)
	if err != nil {
		return false, apperr.Internal("check "+table+" company", err)
	}
	return exists, nil
}
