package requests

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workdeck/backend/internal/apperr"
	"github.com/workdeck/backend/internal/models"
	"github.com/workdeck/backend/pkg/database"
)

const permissionRequestColumns = `pr.id, pr.user_id, pr.permission_id, pr.reason, pr.status,
	pr.reviewed_by, pr.reviewed_at, pr.review_notes, pr.created_at, pr.updated_at`

// PermissionRequestRepository handles permission request persistence.
type PermissionRequestRepository struct {
	pool *pgxpool.Pool
}

// NewPermissionRequestRepository creates a permission request repository.
func NewPermissionRequestRepository(pool *pgxpool.Pool) *PermissionRequestRepository {
	return &PermissionRequestRepository{pool: pool}
}

func scanPermissionRequest(row interface{ Scan(...any) error }) (*models.PermissionRequest, error) {
	var pr models.PermissionRequest
	err := row.Scan(&pr.ID, &pr.UserID, &pr.PermissionID, &pr.Reason, &pr.Status,
		&pr.ReviewedBy, &pr.ReviewedAt, &pr.ReviewNotes, &pr.CreatedAt, &pr.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("permission request not found")
		}
		return nil, err
	}
	return &pr, nil
}

func (r *PermissionRequestRepository) attachDetails(ctx context.Context, pr *models.PermissionRequest) error {
	u, err := loadUserPublic(ctx, r.pool, pr.UserID)
	if err != nil {
		return err
	}
	pr.User = u

	var p models.Permission
	err = r.pool.QueryRow(ctx,
		`SELECT id, key, description, scope, created_at, updated_at FROM permissions WHERE id = $1`,
		pr.PermissionID).
		Scan(&p.ID, &p.Key, &p.Description, &p.Scope, &p.CreatedAt, &p.UpdatedAt)
	if err != nil && !database.IsNoRows(err) {
		return err
	}
	if err == nil {
		pr.Permission = &p
	}

	if pr.ReviewedBy != nil {
		rev, err := loadUserPublic(ctx, r.pool, *pr.ReviewedBy)
		if err != nil {
			return err
		}
		pr.Reviewer = rev
	}
	return nil
}

// AvailablePermissions lists the GLOBAL catalog entries users may request.
func (r *PermissionRequestRepository) AvailablePermissions(ctx context.Context) ([]models.Permission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, key, description, scope, created_at, updated_at
		 FROM permissions WHERE scope = 'GLOBAL' ORDER BY key`)
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

// Create files a request for a GLOBAL permission. Unknown permissions are
// NotFound; COMPANY-scope, already-granted, and duplicate-pending cases are
// BadRequest.
func (r *PermissionRequestRepository) Create(ctx context.Context, userID, permissionID uuid.UUID, reason *string) (*models.PermissionRequest, error) {
	var scope models.PermissionScope
	err := r.pool.QueryRow(ctx,
		`SELECT scope FROM permissions WHERE id = $1`, permissionID).Scan(&scope)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("requested permission not found")
		}
		return nil, err
	}
	if scope != models.ScopeGlobal {
		return nil, apperr.BadRequest("only global permissions can be requested")
	}

	var alreadyGranted bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_global_permissions WHERE user_id = $1 AND permission_id = $2)`,
		userID, permissionID).Scan(&alreadyGranted); err != nil {
		return nil, err
	}
	if alreadyGranted {
		return nil, apperr.BadRequest("you already have this permission")
	}

	var pendingExists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM permission_requests
			WHERE user_id = $1 AND permission_id = $2 AND status = 'PENDING')`,
		userID, permissionID).Scan(&pendingExists); err != nil {
		return nil, err
	}
	if pendingExists {
		return nil, apperr.BadRequest("you already have a pending request for this permission")
	}

	pr, err := scanPermissionRequest(r.pool.QueryRow(ctx,
		`INSERT INTO permission_requests (user_id, permission_id, reason)
		 VALUES ($1, $2, $3)
		 RETURNING id, user_id, permission_id, reason, status, reviewed_by, reviewed_at,
			review_notes, created_at, updated_at`,
		userID, permissionID, reason))
	if err != nil {
		return nil, err
	}
	if err := r.attachDetails(ctx, pr); err != nil {
		return nil, err
	}
	return pr, nil
}

// List returns requests, optionally scoped to one user and one status.
func (r *PermissionRequestRepository) List(ctx context.Context, userID *uuid.UUID, status *models.RequestStatus, limit, offset int) ([]models.PermissionRequest, int, error) {
	const base = `FROM permission_requests pr
		WHERE ($1::uuid IS NULL OR pr.user_id = $1)
		  AND ($2::text IS NULL OR pr.status = $2)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) `+base, userID, status).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+permissionRequestColumns+` `+base+` ORDER BY pr.created_at DESC LIMIT $3 OFFSET $4`,
		userID, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []models.PermissionRequest{}
	for rows.Next() {
		pr, err := scanPermissionRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *pr)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range list {
		if err := r.attachDetails(ctx, &list[i]); err != nil {
			return nil, 0, err
		}
	}
	return list, total, nil
}

// GetByID returns one request with details attached.
func (r *PermissionRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PermissionRequest, error) {
	pr, err := scanPermissionRequest(r.pool.QueryRow(ctx,
		`SELECT `+permissionRequestColumns+` FROM permission_requests pr WHERE pr.id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.attachDetails(ctx, pr); err != nil {
		return nil, err
	}
	return pr, nil
}

// Update edits the reason of the requester's pending request.
func (r *PermissionRequestRepository) Update(ctx context.Context, id, userID uuid.UUID, reason *string) (*models.PermissionRequest, error) {
	pr, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pr.UserID != userID {
		return nil, apperr.Forbidden("you can only update your own requests")
	}
	if pr.Status != models.RequestPending {
		return nil, apperr.BadRequest("only pending requests can be updated")
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE permission_requests SET reason = COALESCE($2, reason), updated_at = NOW() WHERE id = $1`,
		id, reason)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Cancel moves the requester's pending request to CANCELLED.
func (r *PermissionRequestRepository) Cancel(ctx context.Context, id, userID uuid.UUID) (*models.PermissionRequest, error) {
	pr, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pr.UserID != userID {
		return nil, apperr.Forbidden("you can only cancel your own requests")
	}
	if pr.Status != models.RequestPending {
		return nil, apperr.BadRequest("only pending requests can be cancelled")
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE permission_requests SET status = 'CANCELLED', updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Review approves or rejects a pending request. On approval the grant is
// created unless one already exists; grant and status change commit together.
func (r *PermissionRequestRepository) Review(ctx context.Context, id, reviewerID uuid.UUID, approve bool, reviewNotes *string) (*models.PermissionRequest, error) {
	pr, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pr.Status != models.RequestPending {
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
		_, err = tx.Exec(ctx,
			`INSERT INTO user_global_permissions (user_id, permission_id, granted_by)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (user_id, permission_id) DO NOTHING`,
			pr.UserID, pr.PermissionID, reviewerID)
		if err != nil {
			return nil, err
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE permission_requests SET status = $2, reviewed_by = $3, reviewed_at = NOW(),
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
