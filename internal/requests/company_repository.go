// Package requests manages company-creation and permission-grant requests
// and their admin review workflow.
package requests

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workdeck/backend/internal/apperr"
	"github.com/workdeck/backend/internal/models"
	"github.com/workdeck/backend/pkg/database"
)

const companyRequestColumns = `cr.id, cr.user_id, cr.company_name, cr.company_slug, cr.description,
	cr.reason, cr.status, cr.reviewed_by, cr.reviewed_at, cr.review_notes, cr.created_at, cr.updated_at`

// CompanyRequestRepository handles company request persistence.
type CompanyRequestRepository struct {
	pool *pgxpool.Pool
}

// NewCompanyRequestRepository creates a company request repository.
func NewCompanyRequestRepository(pool *pgxpool.Pool) *CompanyRequestRepository {
	return &CompanyRequestRepository{pool: pool}
}

func scanCompanyRequest(row interface{ Scan(...any) error }) (*models.CompanyRequest, error) {
	var cr models.CompanyRequest
	err := row.Scan(&cr.ID, &cr.UserID, &cr.CompanyName, &cr.CompanySlug, &cr.Description,
		&cr.Reason, &cr.Status, &cr.ReviewedBy, &cr.ReviewedAt, &cr.ReviewNotes, &cr.CreatedAt, &cr.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("company request not found")
		}
		return nil, err
	}
	return &cr, nil
}

func (r *CompanyRequestRepository) attachParties(ctx context.Context, cr *models.CompanyRequest) error {
	u, err := loadUserPublic(ctx, r.pool, cr.UserID)
	if err != nil {
		return err
	}
	cr.User = u
	if cr.ReviewedBy != nil {
		rev, err := loadUserPublic(ctx, r.pool, *cr.ReviewedBy)
		if err != nil {
			return err
		}
		cr.Reviewer = rev
	}
	return nil
}

// Create files a new request. One pending request per user; a taken slug is
// rejected up front.
func (r *CompanyRequestRepository) Create(ctx context.Context, userID uuid.UUID, companyName, companySlug string, description, reason *string) (*models.CompanyRequest, error) {
	var pendingExists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM company_requests WHERE user_id = $1 AND status = 'PENDING')`,
		userID).Scan(&pendingExists); err != nil {
		return nil, err
	}
	if pendingExists {
		return nil, apperr.Conflict("you already have a pending company request")
	}

	var slugTaken bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM companies WHERE slug = $1)`, companySlug).Scan(&slugTaken); err != nil {
		return nil, err
	}
	if slugTaken {
		return nil, apperr.Conflict("company slug is already taken")
	}

	cr, err := scanCompanyRequest(r.pool.QueryRow(ctx,
		`INSERT INTO company_requests (user_id, company_name, company_slug, description, reason)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, user_id, company_name, company_slug, description, reason, status,
			reviewed_by, reviewed_at, review_notes, created_at, updated_at`,
		userID, companyName, companySlug, description, reason))
	if err != nil {
		return nil, err
	}
	if err := r.attachParties(ctx, cr); err != nil {
		return nil, err
	}
	return cr, nil
}

// List returns requests, optionally scoped to one user and one status.
func (r *CompanyRequestRepository) List(ctx context.Context, userID *uuid.UUID, status *models.RequestStatus, limit, offset int) ([]models.CompanyRequest, int, error) {
	const base = `FROM company_requests cr
		WHERE ($1::uuid IS NULL OR cr.user_id = $1)
		  AND ($2::text IS NULL OR cr.status = $2)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) `+base, userID, status).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+companyRequestColumns+` `+base+` ORDER BY cr.created_at DESC LIMIT $3 OFFSET $4`,
		userID, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []models.CompanyRequest{}
	for rows.Next() {
		cr, err := scanCompanyRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *cr)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range list {
		if err := r.attachParties(ctx, &list[i]); err != nil {
			return nil, 0, err
		}
	}
	return list, total, nil
}

// GetByID returns one request with parties attached.
func (r *CompanyRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CompanyRequest, error) {
	cr, err := scanCompanyRequest(r.pool.QueryRow(ctx,
		`SELECT `+companyRequestColumns+` FROM company_requests cr WHERE cr.id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.attachParties(ctx, cr); err != nil {
		return nil, err
	}
	return cr, nil
}

// Update edits a pending request. Only the requester may edit, and only while
// pending.
func (r *CompanyRequestRepository) Update(ctx context.Context, id, userID uuid.UUID, companyName, companySlug, description, reason *string) (*models.CompanyRequest, error) {
	cr, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cr.UserID != userID {
		return nil, apperr.Forbidden("you can only update your own requests")
	}
	if cr.Status != models.RequestPending {
		return nil, apperr.BadRequest("only pending requests can be updated")
	}
	if companySlug != nil && *companySlug != cr.CompanySlug {
		var slugTaken bool
		if err := r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM companies WHERE slug = $1)`, *companySlug).Scan(&slugTaken); err != nil {
			return nil, err
		}
		if slugTaken {
			return nil, apperr.Conflict("company slug is already taken")
		}
	}

	_, err = r.pool.Exec(ctx,
		`UPDATE company_requests SET
			company_name = COALESCE($2, company_name),
			company_slug = COALESCE($3, company_slug),
			description = COALESCE($4, description),
			reason = COALESCE($5, reason),
			updated_at = NOW()
		 WHERE id = $1`, id, companyName, companySlug, description, reason)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Cancel moves the requester's pending request to CANCELLED.
func (r *CompanyRequestRepository) Cancel(ctx context.Context, id, userID uuid.UUID) (*models.CompanyRequest, error) {
	cr, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cr.UserID != userID {
		return nil, apperr.Forbidden("you can only cancel your own requests")
	}
	if cr.Status != models.RequestPending {
		return nil, apperr.BadRequest("only pending requests can be cancelled")
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE company_requests SET status = 'CANCELLED', updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Review approves or rejects a pending request. Approval grants the requester
// the COMPANY:CREATE global permission; grant and status change commit
// together.
func (r *CompanyRequestRepository) Review(ctx context.Context, id, reviewerID uuid.UUID, approve bool, reviewNotes *string) (*models.CompanyRequest, error) {
	cr, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cr.Status != models.RequestPending {
		return nil, apperr.BadRequest("only pending requests can be reviewed")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	status := models.RequestRejected
	if approve {
		status = models.RequestApproved

		var permID uuid.UUID
		err := tx.QueryRow(ctx,
			`SELECT id FROM permissions WHERE key = 'COMPANY:CREATE'`).Scan(&permID)
		if err != nil {
			if database.IsNoRows(err) {
				return nil, apperr.Internal("permission COMPANY:CREATE is not in the catalog", nil)
			}
			return nil, err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO user_global_permissions (user_id, permission_id, granted_by)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (user_id, permission_id) DO NOTHING`,
			cr.UserID, permID, reviewerID)
		if err != nil {
			return nil, err
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE company_requests SET status = $2, reviewed_by = $3, reviewed_at = NOW(),
			review_notes = $4, updated_at = NOW()
		 WHERE id = $1`, id, status, reviewerID, reviewNotes)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}
