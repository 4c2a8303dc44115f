package authz

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/workdeck/backend/internal/apperr"
	"github.com/workdeck/backend/internal/models"
)

type stubStore struct {
	platformAdmins map[uuid.UUID]bool
	permissions    map[string]*models.Permission
	globalGrants   map[uuid.UUID]map[uuid.UUID]bool
	memberships    map[uuid.UUID]map[uuid.UUID]*models.Membership
	adminRoles     map[uuid.UUID]map[uuid.UUID]bool
	membershipPerm map[uuid.UUID][]string
}

func newStubStore() *stubStore {
	return &stubStore{
		platformAdmins: map[uuid.UUID]bool{},
		permissions:    map[string]*models.Permission{},
		globalGrants:   map[uuid.UUID]map[uuid.UUID]bool{},
		memberships:    map[uuid.UUID]map[uuid.UUID]*models.Membership{},
		adminRoles:     map[uuid.UUID]map[uuid.UUID]bool{},
		membershipPerm: map[uuid.UUID][]string{},
	}
}

func (s *stubStore) IsPlatformAdmin(_ context.Context, userID uuid.UUID) (bool, error) {
	return s.platformAdmins[userID], nil
}

func (s *stubStore) PermissionByKey(_ context.Context, key string) (*models.Permission, error) {
	return s.permissions[key], nil
}

func (s *stubStore) HasGlobalGrant(_ context.Context, userID, permissionID uuid.UUID) (bool, error) {
	return s.globalGrants[userID][permissionID], nil
}

func (s *stubStore) ActiveMembership(_ context.Context, userID, companyID uuid.UUID) (*models.Membership, error) {
	return s.memberships[userID][companyID], nil
}

func (s *stubStore) HasActiveRoleNamed(_ context.Context, userID, companyID uuid.UUID, _ []string) (bool, error) {
	return s.adminRoles[userID][companyID], nil
}

func (s *stubStore) MembershipPermissionKeys(_ context.Context, membershipID uuid.UUID) ([]string, error) {
	return s.membershipPerm[membershipID], nil
}

func TestHasGlobalPermission(t *testing.T) {
	admin := uuid.New()
	granted := uuid.New()
	nobody := uuid.New()
	permID := uuid.New()

	store := newStubStore()
	store.platformAdmins[admin] = true
	store.permissions["COMPANY:CREATE"] = &models.Permission{ID: permID, Key: "COMPANY:CREATE", Scope: models.ScopeGlobal}
	store.globalGrants[granted] = map[uuid.UUID]bool{permID: true}
	r := NewResolver(store)

	tests := []struct {
		name   string
		userID uuid.UUID
		want   bool
	}{
		{"platform admin bypasses grant check", admin, true},
		{"direct grant", granted, true},
		{"no grant", nobody, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.HasGlobalPermission(context.Background(), tt.userID, "COMPANY:CREATE")
			if err != nil {
				t.Fatalf("HasGlobalPermission: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasGlobalPermissionMissingCatalogKey(t *testing.T) {
	store := newStubStore()
	r := NewResolver(store)

	_, err := r.HasGlobalPermission(context.Background(), uuid.New(), "NOPE:NOPE")
	if err == nil {
		t.Fatal("expected error for key absent from the catalog")
	}
	if apperr.KindOf(err) != apperr.KindInternal {
		t.Errorf("kind = %s, want internal", apperr.KindOf(err))
	}
}

func TestHasGlobalPermissionAdminSkipsCatalog(t *testing.T) {
	admin := uuid.New()
	store := newStubStore()
	store.platformAdmins[admin] = true
	r := NewResolver(store)

	// Bypass must win even when the key is not in the catalog.
	ok, err := r.HasGlobalPermission(context.Background(), admin, "NOPE:NOPE")
	if err != nil {
		t.Fatalf("HasGlobalPermission: %v", err)
	}
	if !ok {
		t.Error("platform admin should pass without a catalog entry")
	}
}

func TestAssertMember(t *testing.T) {
	member := uuid.New()
	outsider := uuid.New()
	company := uuid.New()

	store := newStubStore()
	store.memberships[member] = map[uuid.UUID]*models.Membership{
		company: {ID: uuid.New(), UserID: member, CompanyID: company, Status: models.MembershipActive},
	}
	r := NewResolver(store)

	if err := r.AssertMember(context.Background(), member, company, false); err != nil {
		t.Errorf("active member rejected: %v", err)
	}
	if err := r.AssertMember(context.Background(), outsider, company, true); err != nil {
		t.Errorf("platform admin rejected: %v", err)
	}
	err := r.AssertMember(context.Background(), outsider, company, false)
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("outsider: kind = %s, want forbidden", apperr.KindOf(err))
	}
}

func TestAssertOwnerOrAdmin(t *testing.T) {
	owner := uuid.New()
	member := uuid.New()
	company := uuid.New()

	store := newStubStore()
	store.adminRoles[owner] = map[uuid.UUID]bool{company: true}
	store.memberships[member] = map[uuid.UUID]*models.Membership{
		company: {ID: uuid.New(), UserID: member, CompanyID: company, Status: models.MembershipActive},
	}
	r := NewResolver(store)

	if err := r.AssertOwnerOrAdmin(context.Background(), owner, company, false); err != nil {
		t.Errorf("owner rejected: %v", err)
	}
	if err := r.AssertOwnerOrAdmin(context.Background(), member, company, true); err != nil {
		t.Errorf("platform admin rejected: %v", err)
	}
	// Plain membership is not enough.
	err := r.AssertOwnerOrAdmin(context.Background(), member, company, false)
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("member: kind = %s, want forbidden", apperr.KindOf(err))
	}
}

func TestEffectivePermissionKeysDeduplicates(t *testing.T) {
	membershipID := uuid.New()
	store := newStubStore()
	store.membershipPerm[membershipID] = []string{"CLIENT:READ", "CLIENT:READ", "CLIENT:UPDATE"}
	r := NewResolver(store)

	set, err := r.EffectivePermissionKeys(context.Background(), membershipID)
	if err != nil {
		t.Fatalf("EffectivePermissionKeys: %v", err)
	}
	if len(set) != 2 {
		t.Errorf("len = %d, want 2", len(set))
	}
	if _, ok := set["CLIENT:UPDATE"]; !ok {
		t.Error("missing CLIENT:UPDATE")
	}
}
