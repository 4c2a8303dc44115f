package authz

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workdeck/backend/internal/models"
	"github.com/workdeck/backend/pkg/database"
)

// PGStore implements Store against PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates the pgx-backed authorization store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// IsPlatformAdmin checks for a platform_admins row.
func (s *PGStore) IsPlatformAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM platform_admins WHERE user_id = $1)`, userID).Scan(&exists)
	return exists, err
}

// PermissionByKey returns the catalog entry for key, or nil when absent.
func (s *PGStore) PermissionByKey(ctx context.Context, key string) (*models.Permission, error) {
	var p models.Permission
	err := s.pool.QueryRow(ctx,
		`SELECT id, key, description, scope, created_at, updated_at FROM permissions WHERE key = $1`, key).
		Scan(&p.ID, &p.Key, &p.Description, &p.Scope, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// HasGlobalGrant checks for a direct user grant of the permission.
func (s *PGStore) HasGlobalGrant(ctx context.Context, userID, permissionID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_global_permissions WHERE user_id = $1 AND permission_id = $2)`,
		userID, permissionID).Scan(&exists)
	return exists, err
}

// ActiveMembership returns the user's ACTIVE membership in the company, or
// nil when there is none.
func (s *PGStore) ActiveMembership(ctx context.Context, userID, companyID uuid.UUID) (*models.Membership, error) {
	var m models.Membership
	err := s.pool.QueryRow(ctx,
		`SELECT id, company_id, user_id, status, position, department, invited_at, activated_at, created_at, updated_at
		 FROM memberships WHERE user_id = $1 AND company_id = $2 AND status = 'ACTIVE'`,
		userID, companyID).
		Scan(&m.ID, &m.CompanyID, &m.UserID, &m.Status, &m.Position, &m.Department,
			&m.InvitedAt, &m.ActivatedAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// HasActiveRoleNamed reports whether the user's ACTIVE membership in the
// company holds at least one role with one of the given names.
func (s *PGStore) HasActiveRoleNamed(ctx context.Context, userID, companyID uuid.UUID, names []string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1
			FROM memberships m
			INNER JOIN membership_roles mr ON mr.membership_id = m.id
			INNER JOIN roles r ON r.id = mr.role_id
			WHERE m.user_id = $1 AND m.company_id = $2 AND m.status = 'ACTIVE' AND r.name = ANY($3)
		)`, userID, companyID, names).Scan(&exists)
	return exists, err
}

// MembershipPermissionKeys returns permission keys across all roles held by
// the membership. May contain duplicates; the resolver collapses them.
func (s *PGStore) MembershipPermissionKeys(ctx context.Context, membershipID uuid.UUID) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.key
		 FROM membership_roles mr
		 INNER JOIN role_permissions rp ON rp.role_id = mr.role_id
		 INNER JOIN permissions p ON p.id = rp.permission_id
		 WHERE mr.membership_id = $1`, membershipID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
