// Package authz answers "may identity X perform action A in context C?".
// Pure read-side logic; the platform-admin bypass is always the first branch
// so admins can never be locked out and membership queries are skipped for
// them.
package authz

import (
	"context"

	"github.com/google/uuid"

	"github.com/workdeck/backend/internal/apperr"
	"github.com/workdeck/backend/internal/models"
)

// Store is the persistence surface the resolver needs. The pgx-backed
// implementation lives in store.go; tests substitute a stub.
type Store interface {
	IsPlatformAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
	PermissionByKey(ctx context.Context, key string) (*models.Permission, error)
	HasGlobalGrant(ctx context.Context, userID, permissionID uuid.UUID) (bool, error)
	ActiveMembership(ctx context.Context, userID, companyID uuid.UUID) (*models.Membership, error)
	HasActiveRoleNamed(ctx context.Context, userID, companyID uuid.UUID, names []string) (bool, error)
	MembershipPermissionKeys(ctx context.Context, membershipID uuid.UUID) ([]string, error)
}

// Role names that carry company administration rights. Matching is literal
// and case-sensitive; see DESIGN.md for the recorded trade-off.
var adminRoleNames = []string{models.RoleOwner, models.RoleAdmin}

// Resolver resolves authorization questions against a Store.
type Resolver struct {
	store Store
}

// NewResolver creates a resolver.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// IsPlatformAdmin reports whether a PlatformAdmin record exists for the user.
func (r *Resolver) IsPlatformAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	return r.store.IsPlatformAdmin(ctx, userID)
}

// HasGlobalPermission reports whether the user holds the GLOBAL permission
// identified by key, either through platform-admin bypass or a direct grant.
// A key missing from the catalog is a configuration defect and surfaces as an
// internal error, never as a user-facing 404.
func (r *Resolver) HasGlobalPermission(ctx context.Context, userID uuid.UUID, key string) (bool, error) {
	isAdmin, err := r.store.IsPlatformAdmin(ctx, userID)
	if err != nil {
		return false, err
	}
	if isAdmin {
		return true, nil
	}

	perm, err := r.store.PermissionByKey(ctx, key)
	if err != nil {
		return false, err
	}
	if perm == nil || perm.Scope != models.ScopeGlobal {
		return false, apperr.Internal("permission "+key+" is not in the catalog", nil)
	}
	return r.store.HasGlobalGrant(ctx, userID, perm.ID)
}

// AssertMember fails with Forbidden unless the user has an ACTIVE membership
// in the company. No-op for platform admins.
func (r *Resolver) AssertMember(ctx context.Context, userID, companyID uuid.UUID, isPlatformAdmin bool) error {
	if isPlatformAdmin {
		return nil
	}
	m, err := r.store.ActiveMembership(ctx, userID, companyID)
	if err != nil {
		return err
	}
	if m == nil {
		return apperr.Forbidden("you are not an active member of this company")
	}
	return nil
}

// IsMember reports whether the user has an ACTIVE membership in the company.
// No bypass; used to check users other than the caller.
func (r *Resolver) IsMember(ctx context.Context, userID, companyID uuid.UUID) (bool, error) {
	m, err := r.store.ActiveMembership(ctx, userID, companyID)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}

// AssertOwnerOrAdmin fails with Forbidden unless the user has an ACTIVE
// membership holding a role named Owner or Admin. No-op for platform admins.
func (r *Resolver) AssertOwnerOrAdmin(ctx context.Context, userID, companyID uuid.UUID, isPlatformAdmin bool) error {
	ok, err := r.IsOwnerOrAdmin(ctx, userID, companyID, isPlatformAdmin)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden("only company owners or admins can perform this action")
	}
	return nil
}

// IsOwnerOrAdmin is the non-asserting variant of AssertOwnerOrAdmin.
func (r *Resolver) IsOwnerOrAdmin(ctx context.Context, userID, companyID uuid.UUID, isPlatformAdmin bool) (bool, error) {
	if isPlatformAdmin {
		return true, nil
	}
	return r.store.HasActiveRoleNamed(ctx, userID, companyID, adminRoleNames)
}

// EffectivePermissionKeys returns the union of permission keys across every
// role held by the membership. Set semantics; duplicates collapse.
func (r *Resolver) EffectivePermissionKeys(ctx context.Context, membershipID uuid.UUID) (map[string]struct{}, error) {
	keys, err := r.store.MembershipPermissionKeys(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set, nil
}
