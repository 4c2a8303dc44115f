// Package memberships manages company members, roles and invitations.
package memberships

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workdeck/backend/internal/apperr"
	"github.com/workdeck/backend/internal/models"
	"github.com/workdeck/backend/pkg/database"
)

// Repository handles membership and role persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a memberships repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CompanyRef is the company block embedded in invitation payloads.
type CompanyRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
	Logo *string   `json:"logo,omitempty"`
}

// RoleBadge is the trimmed role block in invitation payloads.
type RoleBadge struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color *string   `json:"color,omitempty"`
}

// Invitation is a pending membership as shown to the invited user.
type Invitation struct {
	ID        uuid.UUID   `json:"id"`
	Company   CompanyRef  `json:"company"`
	Roles     []RoleBadge `json:"roles"`
	InvitedAt time.Time   `json:"invited_at"`
}

const membershipColumns = `m.id, m.company_id, m.user_id, m.status, m.position, m.department,
	m.invited_at, m.activated_at, m.created_at, m.updated_at`

func scanMembership(row interface{ Scan(...any) error }) (*models.Membership, error) {
	var m models.Membership
	err := row.Scan(&m.ID, &m.CompanyID, &m.UserID, &m.Status, &m.Position, &m.Department,
		&m.InvitedAt, &m.ActivatedAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("member not found")
		}
		return nil, err
	}
	return &m, nil
}

// attachUserAndRoles fills the embedded user profile and role list.
func (r *Repository) attachUserAndRoles(ctx context.Context, m *models.Membership) error {
	var u models.UserPublic
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, full_name, phone, avatar, created_at FROM users WHERE id = $1`, m.UserID).
		Scan(&u.ID, &u.Email, &u.FullName, &u.Phone, &u.Avatar, &u.CreatedAt)
	if err != nil {
		return err
	}
	m.User = &u

	rows, err := r.pool.Query(ctx,
		`SELECT r.id, r.company_id, r.name, r.description, r.color, r.is_system, r.is_default, r.created_at, r.updated_at
		 FROM membership_roles mr
		 INNER JOIN roles r ON r.id = mr.role_id
		 WHERE mr.membership_id = $1
		 ORDER BY r.created_at`, m.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	m.Roles = []models.Role{}
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.CompanyID, &role.Name, &role.Description, &role.Color,
			&role.IsSystem, &role.IsDefault, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return err
		}
		m.Roles = append(m.Roles, role)
	}
	return rows.Err()
}

// Members lists all memberships of a company with users and roles.
func (r *Repository) Members(ctx context.Context, companyID uuid.UUID) ([]models.Membership, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+membershipColumns+` FROM memberships m WHERE m.company_id = $1 ORDER BY m.created_at`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Membership{}
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range list {
		if err := r.attachUserAndRoles(ctx, &list[i]); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// GetMember returns one membership of a company with user and roles.
func (r *Repository) GetMember(ctx context.Context, companyID, memberID uuid.UUID) (*models.Membership, error) {
	m, err := scanMembership(r.pool.QueryRow(ctx,
		`SELECT `+membershipColumns+` FROM memberships m WHERE m.id = $1 AND m.company_id = $2`,
		memberID, companyID))
	if err != nil {
		return nil, err
	}
	if err := r.attachUserAndRoles(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// SearchNonMembers finds enabled users without a membership in the company.
// Capped at 20 results; this backs a typeahead.
func (r *Repository) SearchNonMembers(ctx context.Context, companyID uuid.UUID, search string) ([]models.UserPublic, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.email, u.full_name, u.phone, u.avatar, u.created_at
		 FROM users u
		 WHERE u.is_disabled = FALSE
		   AND NOT EXISTS (SELECT 1 FROM memberships m WHERE m.user_id = u.id AND m.company_id = $1)
		   AND ($2 = '' OR u.full_name ILIKE '%' || $2 || '%' OR u.email ILIKE '%' || $2 || '%')
		 ORDER BY u.full_name
		 LIMIT 20`, companyID, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.UserPublic{}
	for rows.Next() {
		var u models.UserPublic
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Phone, &u.Avatar, &u.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// Invite creates an INVITED membership and attaches the company's default
// role when one exists. Existing membership in any status surfaces as
// Conflict.
func (r *Repository) Invite(ctx context.Context, companyID, userID uuid.UUID, position, department *string) (*models.Membership, error) {
	var userExists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&userExists); err != nil {
		return nil, err
	}
	if !userExists {
		return nil, apperr.NotFound("user not found")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	m, err := scanMembership(tx.QueryRow(ctx,
		`INSERT INTO memberships (company_id, user_id, status, position, department, invited_at)
		 VALUES ($1, $2, 'INVITED', $3, $4, NOW())
		 RETURNING `+membershipColumns,
		companyID, userID, position, department))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("user is already a member of this company")
		}
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO membership_roles (membership_id, role_id)
		 SELECT $1, id FROM roles WHERE company_id = $2 AND is_default = TRUE`,
		m.ID, companyID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if err := r.attachUserAndRoles(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// InvitationFor builds the invitation payload pushed to the invited user.
func (r *Repository) InvitationFor(ctx context.Context, m *models.Membership) (*Invitation, error) {
	var ref CompanyRef
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, slug, logo FROM companies WHERE id = $1`, m.CompanyID).
		Scan(&ref.ID, &ref.Name, &ref.Slug, &ref.Logo)
	if err != nil {
		return nil, err
	}
	inv := &Invitation{ID: m.ID, Company: ref, Roles: []RoleBadge{}, InvitedAt: m.InvitedAt}
	for _, role := range m.Roles {
		inv.Roles = append(inv.Roles, RoleBadge{ID: role.ID, Name: role.Name, Color: role.Color})
	}
	return inv, nil
}

// ReplaceRoles swaps the member's role set in one transaction. Roles from
// other companies refuse with BadRequest.
func (r *Repository) ReplaceRoles(ctx context.Context, companyID, memberID uuid.UUID, roleIDs []uuid.UUID) (*models.Membership, error) {
	if _, err := scanMembership(r.pool.QueryRow(ctx,
		`SELECT `+membershipColumns+` FROM memberships m WHERE m.id = $1 AND m.company_id = $2`,
		memberID, companyID)); err != nil {
		return nil, err
	}

	if len(roleIDs) > 0 {
		var valid int
		if err := r.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM roles WHERE company_id = $1 AND id = ANY($2)`,
			companyID, roleIDs).Scan(&valid); err != nil {
			return nil, err
		}
		if valid != len(roleIDs) {
			return nil, apperr.BadRequest("one or more roles do not belong to this company")
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := replaceRolesTx(ctx, tx, memberID, roleIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetMember(ctx, companyID, memberID)
}

// roleExecer is the slice of pgx.Tx the role swap needs. Tests substitute a
// fake.
type roleExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// replaceRolesTx clears the member's role links and writes the full desired
// set. Runs on an open transaction so readers never observe the transiently
// empty set as committed state.
func replaceRolesTx(ctx context.Context, tx roleExecer, memberID uuid.UUID, roleIDs []uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM membership_roles WHERE membership_id = $1`, memberID); err != nil {
		return err
	}
	for _, roleID := range roleIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO membership_roles (membership_id, role_id) VALUES ($1, $2)`, memberID, roleID); err != nil {
			return err
		}
	}
	return nil
}

// RemoveMember deletes a membership; role links cascade.
func (r *Repository) RemoveMember(ctx context.Context, companyID, memberID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM memberships WHERE id = $1 AND company_id = $2`, memberID, companyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("member not found")
	}
	return nil
}

const roleColumns = `r.id, r.company_id, r.name, r.description, r.color, r.is_system, r.is_default,
	r.created_at, r.updated_at,
	(SELECT COUNT(*) FROM membership_roles mr WHERE mr.role_id = r.id)`

func scanRole(row interface{ Scan(...any) error }) (*models.Role, error) {
	var role models.Role
	err := row.Scan(&role.ID, &role.CompanyID, &role.Name, &role.Description, &role.Color,
		&role.IsSystem, &role.IsDefault, &role.CreatedAt, &role.UpdatedAt, &role.MemberCount)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("role not found")
		}
		return nil, err
	}
	return &role, nil
}

// Roles lists company roles with member counts and permission keys.
func (r *Repository) Roles(ctx context.Context, companyID uuid.UUID) ([]models.Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+roleColumns+` FROM roles r WHERE r.company_id = $1 ORDER BY r.created_at`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Role{}
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range list {
		keys, err := r.RolePermissionKeys(ctx, list[i].ID)
		if err != nil {
			return nil, err
		}
		list[i].PermissionKeys = keys
	}
	return list, nil
}

// CreateRole adds a custom role. Duplicate names in the company surface as
// Conflict.
func (r *Repository) CreateRole(ctx context.Context, companyID uuid.UUID, name string, description, color *string) (*models.Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx,
		`WITH ins AS (
			INSERT INTO roles (company_id, name, description, color)
			VALUES ($1, $2, $3, $4)
			RETURNING id, company_id, name, description, color, is_system, is_default, created_at, updated_at
		) SELECT ins.id, ins.company_id, ins.name, ins.description, ins.color, ins.is_system, ins.is_default,
			ins.created_at, ins.updated_at, 0 FROM ins`,
		companyID, name, description, color))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("a role with this name already exists")
		}
		return nil, err
	}
	role.PermissionKeys = []string{}
	return role, nil
}

// UpdateRole changes name, description or color. Nil fields keep current
// values. Renames can collide and surface as Conflict.
func (r *Repository) UpdateRole(ctx context.Context, companyID, roleID uuid.UUID, name, description, color *string) (*models.Role, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE roles SET
			name = COALESCE($3, name),
			description = COALESCE($4, description),
			color = COALESCE($5, color),
			updated_at = NOW()
		 WHERE id = $1 AND company_id = $2`,
		roleID, companyID, name, description, color)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("a role with this name already exists")
		}
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, apperr.NotFound("role not found")
	}
	return r.GetRole(ctx, companyID, roleID)
}

// GetRole returns one role with member count and permission keys.
func (r *Repository) GetRole(ctx context.Context, companyID, roleID uuid.UUID) (*models.Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx,
		`SELECT `+roleColumns+` FROM roles r WHERE r.id = $1 AND r.company_id = $2`, roleID, companyID))
	if err != nil {
		return nil, err
	}
	keys, err := r.RolePermissionKeys(ctx, roleID)
	if err != nil {
		return nil, err
	}
	role.PermissionKeys = keys
	return role, nil
}

// DeleteRole removes a custom role. System roles refuse with Forbidden for
// everyone, platform admins included.
func (r *Repository) DeleteRole(ctx context.Context, companyID, roleID uuid.UUID) error {
	role, err := r.GetRole(ctx, companyID, roleID)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return apperr.Forbidden("cannot delete system roles")
	}
	_, err = r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, roleID)
	return err
}

// SetRolePermissions replaces the role's permission set in one transaction.
// Only COMPANY-scope catalog keys are assignable to roles.
func (r *Repository) SetRolePermissions(ctx context.Context, companyID, roleID uuid.UUID, keys []string) (*models.Role, error) {
	if _, err := r.GetRole(ctx, companyID, roleID); err != nil {
		return nil, err
	}

	permIDs := make([]uuid.UUID, 0, len(keys))
	for _, key := range keys {
		var id uuid.UUID
		var scope models.PermissionScope
		err := r.pool.QueryRow(ctx,
			`SELECT id, scope FROM permissions WHERE key = $1`, key).Scan(&id, &scope)
		if err != nil {
			if database.IsNoRows(err) {
				return nil, apperr.BadRequest("unknown permission: " + key)
			}
			return nil, err
		}
		if scope != models.ScopeCompany {
			return nil, apperr.BadRequest("permission " + key + " cannot be assigned to roles")
		}
		permIDs = append(permIDs, id)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return nil, err
	}
	for _, permID := range permIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)`, roleID, permID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetRole(ctx, companyID, roleID)
}

// RolePermissionKeys lists the permission keys assigned to a role.
func (r *Repository) RolePermissionKeys(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.key FROM role_permissions rp
		 INNER JOIN permissions p ON p.id = rp.permission_id
		 WHERE rp.role_id = $1 ORDER BY p.key`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// PendingInvitations lists the user's INVITED memberships, excluding deleted
// companies.
func (r *Repository) PendingInvitations(ctx context.Context, userID uuid.UUID) ([]Invitation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT m.id, m.invited_at, c.id, c.name, c.slug, c.logo
		 FROM memberships m
		 INNER JOIN companies c ON c.id = m.company_id
		 WHERE m.user_id = $1 AND m.status = 'INVITED' AND c.deleted_at IS NULL
		 ORDER BY m.invited_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []Invitation{}
	for rows.Next() {
		var inv Invitation
		if err := rows.Scan(&inv.ID, &inv.InvitedAt, &inv.Company.ID, &inv.Company.Name,
			&inv.Company.Slug, &inv.Company.Logo); err != nil {
			return nil, err
		}
		list = append(list, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range list {
		badges, err := r.invitationRoles(ctx, list[i].ID)
		if err != nil {
			return nil, err
		}
		list[i].Roles = badges
	}
	return list, nil
}

func (r *Repository) invitationRoles(ctx context.Context, membershipID uuid.UUID) ([]RoleBadge, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.id, r.name, r.color FROM membership_roles mr
		 INNER JOIN roles r ON r.id = mr.role_id
		 WHERE mr.membership_id = $1`, membershipID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	badges := []RoleBadge{}
	for rows.Next() {
		var b RoleBadge
		if err := rows.Scan(&b.ID, &b.Name, &b.Color); err != nil {
			return nil, err
		}
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

// AcceptInvitation activates an INVITED membership. Scoped to the invited
// user; anything else is NotFound.
func (r *Repository) AcceptInvitation(ctx context.Context, userID, membershipID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE memberships SET status = 'ACTIVE', activated_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND status = 'INVITED'`,
		membershipID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("invitation not found")
	}
	return nil
}

// DeclineInvitation deletes an INVITED membership. Scoped to the invited
// user; anything else is NotFound.
func (r *Repository) DeclineInvitation(ctx context.Context, userID, membershipID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM memberships WHERE id = $1 AND user_id = $2 AND status = 'INVITED'`,
		membershipID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("invitation not found")
	}
	return nil
}
