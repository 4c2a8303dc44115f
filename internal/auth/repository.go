package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workdeck/backend/internal/apperr"
	"github.com/workdeck/backend/internal/models"
	"github.com/workdeck/backend/pkg/database"
)

const userColumns = `id, email, password_hash, full_name, phone, avatar,
	is_disabled, disabled_at, last_login_at, created_at, updated_at`

// Repository handles user persistence for authentication.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
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

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// Create inserts a new user. Duplicate emails surface as Conflict.
func (r *Repository) Create(ctx context.Context, email, passwordHash, fullName string, phone *string) (*models.User, error) {
	const q = `INSERT INTO users (email, password_hash, full_name, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns
	u, err := scanUser(r.pool.QueryRow(ctx, q, email, passwordHash, fullName, phone))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("email already registered")
		}
		return nil, err
	}
	return u, nil
}

// TouchLastLogin records a successful login.
func (r *Repository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = $2, updated_at = NOW() WHERE id = $1`, id, time.Now())
	return err
}

// MeCompany is one company block of the GET /auth/me aggregate.
type MeCompany struct {
	ID               uuid.UUID               `json:"id"`
	Name             string                  `json:"name"`
	Slug             string                  `json:"slug"`
	Logo             *string                 `json:"logo,omitempty"`
	Status           models.CompanyStatus    `json:"status"`
	MembershipID     uuid.UUID               `json:"membership_id"`
	MembershipStatus models.MembershipStatus `json:"membership_status"`
	Roles            []string                `json:"roles"`
	Permissions      []string                `json:"permissions"`
}

// ActiveCompanies returns the companies the user actively belongs to, with
// role names and the union of role permission keys.
func (r *Repository) ActiveCompanies(ctx context.Context, userID uuid.UUID) ([]MeCompany, error) {
	const q = `SELECT c.id, c.name, c.slug, c.logo, c.status, m.id, m.status
		FROM memberships m
		INNER JOIN companies c ON c.id = m.company_id
		WHERE m.user_id = $1 AND m.status = 'ACTIVE' AND c.deleted_at IS NULL
		ORDER BY c.name`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []MeCompany
	for rows.Next() {
		var mc MeCompany
		if err := rows.Scan(&mc.ID, &mc.Name, &mc.Slug, &mc.Logo, &mc.Status, &mc.MembershipID, &mc.MembershipStatus); err != nil {
			return nil, err
		}
		list = append(list, mc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range list {
		roles, perms, err := r.membershipRolesAndPermissions(ctx, list[i].MembershipID)
		if err != nil {
			return nil, err
		}
		list[i].Roles = roles
		list[i].Permissions = perms
	}
	return list, nil
}

func (r *Repository) membershipRolesAndPermissions(ctx context.Context, membershipID uuid.UUID) ([]string, []string, error) {
	const q = `SELECT r.name, COALESCE(p.key, '')
		FROM membership_roles mr
		INNER JOIN roles r ON r.id = mr.role_id
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		LEFT JOIN permissions p ON p.id = rp.permission_id
		WHERE mr.membership_id = $1`
	rows, err := r.pool.Query(ctx, q, membershipID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	roleSet := make(map[string]struct{})
	permSet := make(map[string]struct{})
	var roles, perms []string
	for rows.Next() {
		var roleName, permKey string
		if err := rows.Scan(&roleName, &permKey); err != nil {
			return nil, nil, err
		}
		if _, ok := roleSet[roleName]; !ok {
			roleSet[roleName] = struct{}{}
			roles = append(roles, roleName)
		}
		if permKey != "" {
			if _, ok := permSet[permKey]; !ok {
				permSet[permKey] = struct{}{}
				perms = append(perms, permKey)
			}
		}
	}
	return roles, perms, rows.Err()
}

// GlobalPermissionKeys returns the GLOBAL permission keys granted directly to
// the user.
func (r *Repository) GlobalPermissionKeys(ctx context.Context, userID uuid.UUID) ([]string, error) {
	const q = `SELECT p.key
		FROM user_global_permissions ugp
		INNER JOIN permissions p ON p.id = ugp.permission_id
		WHERE ugp.user_id = $1
		ORDER BY p.key`
	rows, err := r.pool.Query(ctx, q, userID)
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
