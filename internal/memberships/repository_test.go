package memberships

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeRoleTx keeps the membership_roles set in memory and enforces the
// table's uniqueness the way Postgres would.
type fakeRoleTx struct {
	held map[uuid.UUID]bool
	ops  []string
}

func (f *fakeRoleTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	switch {
	case strings.HasPrefix(sql, "DELETE"):
		f.held = map[uuid.UUID]bool{}
		f.ops = append(f.ops, "delete")
	case strings.HasPrefix(sql, "INSERT"):
		roleID := args[1].(uuid.UUID)
		if f.held[roleID] {
			return pgconn.CommandTag{}, &pgconn.PgError{Code: "23505"}
		}
		f.held[roleID] = true
		f.ops = append(f.ops, "insert")
	}
	return pgconn.CommandTag{}, nil
}

func heldRoles(f *fakeRoleTx) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(f.held))
	for id := range f.held {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func sorted(ids []uuid.UUID) []uuid.UUID {
	out := append([]uuid.UUID(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func TestReplaceRolesIdempotent(t *testing.T) {
	fake := &fakeRoleTx{held: map[uuid.UUID]bool{}}
	memberID := uuid.New()
	roleIDs := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	for i := 0; i < 2; i++ {
		if err := replaceRolesTx(context.Background(), fake, memberID, roleIDs); err != nil {
			t.Fatalf("replaceRolesTx pass %d: %v", i+1, err)
		}
	}

	got, want := heldRoles(fake), sorted(roleIDs)
	if len(got) != len(want) {
		t.Fatalf("held %d roles, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("held[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestReplaceRolesClearsBeforeWriting(t *testing.T) {
	fake := &fakeRoleTx{held: map[uuid.UUID]bool{uuid.New(): true}}
	memberID := uuid.New()
	keep := uuid.New()

	if err := replaceRolesTx(context.Background(), fake, memberID, []uuid.UUID{keep}); err != nil {
		t.Fatalf("replaceRolesTx: %v", err)
	}

	if len(fake.ops) == 0 || fake.ops[0] != "delete" {
		t.Errorf("ops = %v, want delete first", fake.ops)
	}
	if len(fake.held) != 1 || !fake.held[keep] {
		t.Errorf("held = %v, want exactly %s", heldRoles(fake), keep)
	}
}

func TestReplaceRolesEmptySet(t *testing.T) {
	fake := &fakeRoleTx{held: map[uuid.UUID]bool{uuid.New(): true}}

	if err := replaceRolesTx(context.Background(), fake, uuid.New(), nil); err != nil {
		t.Fatalf("replaceRolesTx: %v", err)
	}
	if len(fake.held) != 0 {
		t.Errorf("held = %v, want empty", heldRoles(fake))
	}
}
