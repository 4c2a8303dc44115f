package companies

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/workdeck/backend/internal/apperr"
	"github.com/workdeck/backend/internal/models"
)

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

type roleInsert struct {
	id        uuid.UUID
	name      string
	isDefault bool
}

// fakeCreateTx replays the creation sequence in memory. failRole makes the
// Nth role insert fail (1-based, 0 disables); dupSlug makes the company
// insert raise a unique violation.
type fakeCreateTx struct {
	companyID    uuid.UUID
	roles        []roleInsert
	membershipID uuid.UUID
	memberUserID uuid.UUID
	links        [][2]uuid.UUID
	failRole     int
	dupSlug      bool
}

func (f *fakeCreateTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if strings.Contains(sql, "membership_roles") {
		f.links = append(f.links, [2]uuid.UUID{args[0].(uuid.UUID), args[1].(uuid.UUID)})
	}
	return pgconn.CommandTag{}, nil
}

func (f *fakeCreateTx) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	switch {
	case strings.Contains(sql, "INSERT INTO companies"):
		if f.dupSlug {
			return fakeRow{scan: func(...any) error { return &pgconn.PgError{Code: "23505"} }}
		}
		f.companyID = uuid.New()
		return fakeRow{scan: func(dest ...any) error {
			*(dest[0].(*uuid.UUID)) = f.companyID
			*(dest[1].(*string)) = args[0].(string)
			*(dest[2].(*string)) = args[1].(string)
			*(dest[5].(*models.CompanyStatus)) = models.CompanyActive
			*(dest[7].(*uuid.UUID)) = args[4].(uuid.UUID)
			return nil
		}}
	case strings.Contains(sql, "INSERT INTO roles"):
		if f.failRole > 0 && len(f.roles)+1 == f.failRole {
			return fakeRow{scan: func(...any) error { return errors.New("insert role failed") }}
		}
		role := roleInsert{id: uuid.New(), name: args[1].(string), isDefault: args[2].(bool)}
		f.roles = append(f.roles, role)
		return fakeRow{scan: func(dest ...any) error {
			*(dest[0].(*uuid.UUID)) = role.id
			return nil
		}}
	case strings.Contains(sql, "INSERT INTO memberships"):
		f.membershipID = uuid.New()
		f.memberUserID = args[1].(uuid.UUID)
		return fakeRow{scan: func(dest ...any) error {
			*(dest[0].(*uuid.UUID)) = f.membershipID
			return nil
		}}
	}
	return fakeRow{scan: func(...any) error { return errors.New("unexpected query: " + sql) }}
}

func TestCreateWithOwnerSequence(t *testing.T) {
	fake := &fakeCreateTx{}
	creator := uuid.New()

	co, err := createWithOwnerTx(context.Background(), fake, "Acme", "acme", nil, nil, creator)
	if err != nil {
		t.Fatalf("createWithOwnerTx: %v", err)
	}
	if co.Name != "Acme" || co.Slug != "acme" || co.CreatedBy != creator {
		t.Errorf("company = %+v, want Acme/acme created by %s", co, creator)
	}

	wantRoles := []string{models.RoleOwner, models.RoleAdmin, models.RoleManager, models.RoleMember}
	if len(fake.roles) != len(wantRoles) {
		t.Fatalf("roles created = %d, want %d", len(fake.roles), len(wantRoles))
	}
	var ownerRoleID uuid.UUID
	for i, role := range fake.roles {
		if role.name != wantRoles[i] {
			t.Errorf("role[%d] = %s, want %s", i, role.name, wantRoles[i])
		}
		if role.isDefault != (role.name == models.RoleMember) {
			t.Errorf("role %s default = %v", role.name, role.isDefault)
		}
		if role.name == models.RoleOwner {
			ownerRoleID = role.id
		}
	}

	if fake.memberUserID != creator {
		t.Errorf("membership user = %s, want creator %s", fake.memberUserID, creator)
	}
	if len(fake.links) != 1 {
		t.Fatalf("role links = %d, want exactly 1", len(fake.links))
	}
	if fake.links[0] != [2]uuid.UUID{fake.membershipID, ownerRoleID} {
		t.Errorf("link = %v, want membership %s holding Owner role %s",
			fake.links[0], fake.membershipID, ownerRoleID)
	}
}

func TestCreateWithOwnerStopsOnFailure(t *testing.T) {
	fake := &fakeCreateTx{failRole: 3}

	_, err := createWithOwnerTx(context.Background(), fake, "Acme", "acme", nil, nil, uuid.New())
	if err == nil {
		t.Fatal("expected error from failing role insert")
	}
	if fake.membershipID != uuid.Nil || len(fake.links) != 0 {
		t.Errorf("sequence continued past the failure: membership %s, links %d",
			fake.membershipID, len(fake.links))
	}
}

func TestCreateWithOwnerDuplicateSlug(t *testing.T) {
	fake := &fakeCreateTx{dupSlug: true}

	_, err := createWithOwnerTx(context.Background(), fake, "Acme", "acme", nil, nil, uuid.New())
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("err = %v, want Conflict", err)
	}
	if len(fake.roles) != 0 {
		t.Errorf("roles created after slug conflict: %d", len(fake.roles))
	}
}
