package timeentries

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/workdeck/backend/internal/apperr"
	"github.com/workdeck/backend/internal/clients"
	"github.com/workdeck/backend/internal/models"
)

type memberKey struct {
	userID    uuid.UUID
	companyID uuid.UUID
}

type stubAuthz struct {
	members map[memberKey]bool
	admins  map[memberKey]bool
}

func (s *stubAuthz) AssertMember(_ context.Context, userID, companyID uuid.UUID, isPlatformAdmin bool) error {
	if isPlatformAdmin || s.members[memberKey{userID, companyID}] {
		return nil
	}
	return apperr.Forbidden("you are not an active member of this company")
}

func (s *stubAuthz) IsOwnerOrAdmin(_ context.Context, userID, companyID uuid.UUID, isPlatformAdmin bool) (bool, error) {
	return isPlatformAdmin || s.admins[memberKey{userID, companyID}], nil
}

func (s *stubAuthz) IsMember(_ context.Context, userID, companyID uuid.UUID) (bool, error) {
	return s.members[memberKey{userID, companyID}], nil
}

type stubRates struct {
	result clients.Resolution
	calls  int
}

func (s *stubRates) ResolveOvertimeAndRate(_ context.Context, _ uuid.UUID, _ time.Time, _, _ *string, _ *bool) (clients.Resolution, error) {
	s.calls++
	return s.result, nil
}

type notification struct {
	event  string
	userID uuid.UUID
}

type stubNotifier struct {
	adminEvents []string
	userEvents  []notification
}

func (s *stubNotifier) NotifyCompanyAdmins(_, _ uuid.UUID, event string, _ any) {
	s.adminEvents = append(s.adminEvents, event)
}

func (s *stubNotifier) NotifyUser(userID uuid.UUID, event string, _ any) {
	s.userEvents = append(s.userEvents, notification{event, userID})
}

type stubStore struct {
	entries       map[uuid.UUID]*models.TimeEntry
	memberOf      map[uuid.UUID][]uuid.UUID
	missingRefs   map[uuid.UUID]bool
	updatedEntry  *models.TimeEntry
	deletedEntry  *uuid.UUID
	listedFilters []ListFilter
}

func newStubStore() *stubStore {
	return &stubStore{
		entries:     make(map[uuid.UUID]*models.TimeEntry),
		memberOf:    make(map[uuid.UUID][]uuid.UUID),
		missingRefs: make(map[uuid.UUID]bool),
	}
}

func (s *stubStore) Insert(_ context.Context, e *models.TimeEntry) error {
	e.ID = uuid.New()
	cp := *e
	s.entries[e.ID] = &cp
	return nil
}

func (s *stubStore) GetByID(_ context.Context, id uuid.UUID) (*models.TimeEntry, error) {
	e, ok := s.entries[id]
	if !ok {
		return nil, apperr.NotFound("time entry not found")
	}
	cp := *e
	return &cp, nil
}

func (s *stubStore) Update(_ context.Context, e *models.TimeEntry) error {
	cp := *e
	s.entries[e.ID] = &cp
	s.updatedEntry = &cp
	return nil
}

func (s *stubStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.entries, id)
	s.deletedEntry = &id
	return nil
}

func (s *stubStore) List(_ context.Context, f ListFilter) ([]models.TimeEntry, int, error) {
	s.listedFilters = append(s.listedFilters, f)
	return []models.TimeEntry{}, 0, nil
}

func (s *stubStore) ActiveCompanyIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.memberOf[userID], nil
}

func (s *stubStore) AllCompanyIDs(_ context.Context) ([]uuid.UUID, error) {
	return nil, nil
}

func (s *stubStore) Summary(_ context.Context, _, _ uuid.UUID, start, end time.Time) (*Summary, error) {
	return &Summary{StartDate: start, EndDate: end}, nil
}

func (s *stubStore) ProjectInCompany(_ context.Context, id, _ uuid.UUID) (bool, error) {
	return !s.missingRefs[id], nil
}

func (s *stubStore) ClientInCompany(_ context.Context, id, _ uuid.UUID) (bool, error) {
	return !s.missingRefs[id], nil
}

func (s *stubStore) CategoryInCompany(_ context.Context, id, _ uuid.UUID) (bool, error) {
	return !s.missingRefs[id], nil
}

type fixture struct {
	store    *stubStore
	authz    *stubAuthz
	rates    *stubRates
	notifier *stubNotifier
	service  *Service

	companyID uuid.UUID
	member    uuid.UUID
	admin     uuid.UUID
	outsider  uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		store:     newStubStore(),
		authz:     &stubAuthz{members: map[memberKey]bool{}, admins: map[memberKey]bool{}},
		rates:     &stubRates{},
		notifier:  &stubNotifier{},
		companyID: uuid.New(),
		member:    uuid.New(),
		admin:     uuid.New(),
		outsider:  uuid.New(),
	}
	f.authz.members[memberKey{f.member, f.companyID}] = true
	f.authz.members[memberKey{f.admin, f.companyID}] = true
	f.authz.admins[memberKey{f.admin, f.companyID}] = true
	f.store.memberOf[f.member] = []uuid.UUID{f.companyID}
	f.service = NewService(f.store, f.authz, f.rates, f.notifier)
	return f
}

func (f *fixture) seedEntry(userID uuid.UUID) *models.TimeEntry {
	e := &models.TimeEntry{
		ID:        uuid.New(),
		CompanyID: f.companyID,
		UserID:    userID,
		Date:      time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Hours:     8,
		Title:     "seeded",
	}
	f.store.entries[e.ID] = e
	return e
}

func TestCreateOwnEntryFreezesRate(t *testing.T) {
	f := newFixture()
	rate := 55.0
	f.rates.result = clients.Resolution{IsOvertime: true, AppliedRatePerHour: &rate}
	clientID := uuid.New()

	e, err := f.service.Create(context.Background(), f.member, false, CreateInput{
		CompanyID: f.companyID,
		ClientID:  &clientID,
		Date:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Hours:     4,
		Title:     "weekend deploy",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !e.IsOvertime || e.AppliedRatePerHour == nil || *e.AppliedRatePerHour != 55 {
		t.Errorf("billing not frozen: overtime=%v rate=%v", e.IsOvertime, e.AppliedRatePerHour)
	}
	if e.LoggedByUserID != nil {
		t.Error("own entry should not record logged_by")
	}
	if f.rates.calls != 1 {
		t.Errorf("rate resolver called %d times, want 1", f.rates.calls)
	}
}

func TestCreateWithoutClientUsesManualFlag(t *testing.T) {
	f := newFixture()
	manual := true

	e, err := f.service.Create(context.Background(), f.member, false, CreateInput{
		CompanyID:      f.companyID,
		Date:           time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Hours:          2,
		Title:          "late night fix",
		ManualOvertime: &manual,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !e.IsOvertime {
		t.Error("manual flag should mark overtime")
	}
	if e.AppliedRatePerHour != nil {
		t.Error("no client means no rate")
	}
	if f.rates.calls != 0 {
		t.Error("rate resolver should not run without a client")
	}
}

func TestCreateForOtherMemberNeedsAdmin(t *testing.T) {
	f := newFixture()
	target := uuid.New()
	f.authz.members[memberKey{target, f.companyID}] = true

	_, err := f.service.Create(context.Background(), f.member, false, CreateInput{
		CompanyID: f.companyID,
		UserID:    &target,
		Date:      time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Hours:     8,
		Title:     "delegated",
	})
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("err = %v, want Forbidden", err)
	}
}

func TestCreateForOtherMemberRecordsLoggedBy(t *testing.T) {
	f := newFixture()
	target := uuid.New()
	f.authz.members[memberKey{target, f.companyID}] = true

	e, err := f.service.Create(context.Background(), f.admin, false, CreateInput{
		CompanyID: f.companyID,
		UserID:    &target,
		Date:      time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Hours:     8,
		Title:     "delegated",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.UserID != target {
		t.Errorf("entry owner = %s, want target %s", e.UserID, target)
	}
	if e.LoggedByUserID == nil || *e.LoggedByUserID != f.admin {
		t.Errorf("logged_by = %v, want admin", e.LoggedByUserID)
	}
	found := false
	for _, n := range f.notifier.userEvents {
		if n.event == "time_entry:assigned" && n.userID == target {
			found = true
		}
	}
	if !found {
		t.Error("target was not notified about the assigned entry")
	}
}

func TestCreateForInactiveTargetRejected(t *testing.T) {
	f := newFixture()
	target := uuid.New() // no membership seeded

	_, err := f.service.Create(context.Background(), f.admin, false, CreateInput{
		CompanyID: f.companyID,
		UserID:    &target,
		Date:      time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Hours:     8,
		Title:     "delegated",
	})
	if !apperr.IsKind(err, apperr.KindBadRequest) {
		t.Fatalf("err = %v, want BadRequest", err)
	}
}

func TestCreateRejectsForeignProject(t *testing.T) {
	f := newFixture()
	projectID := uuid.New()
	f.store.missingRefs[projectID] = true

	_, err := f.service.Create(context.Background(), f.member, false, CreateInput{
		CompanyID: f.companyID,
		ProjectID: &projectID,
		Date:      time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Hours:     8,
		Title:     "misfiled",
	})
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

func TestUpdateRecomputesBillingOnDateChange(t *testing.T) {
	f := newFixture()
	clientID := uuid.New()
	e := f.seedEntry(f.member)
	e.ClientID = &clientID

	rate := 80.0
	f.rates.result = clients.Resolution{IsOvertime: true, AppliedRatePerHour: &rate}
	newDate := time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC)

	got, err := f.service.Update(context.Background(), f.member, false, e.ID, UpdateInput{Date: &newDate})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !got.IsOvertime || got.AppliedRatePerHour == nil || *got.AppliedRatePerHour != 80 {
		t.Errorf("billing not recomputed: overtime=%v rate=%v", got.IsOvertime, got.AppliedRatePerHour)
	}
	if f.rates.calls != 1 {
		t.Errorf("rate resolver called %d times, want 1", f.rates.calls)
	}
}

func TestUpdateSkipsBillingWhenUntouched(t *testing.T) {
	f := newFixture()
	e := f.seedEntry(f.member)
	title := "renamed"

	if _, err := f.service.Update(context.Background(), f.member, false, e.ID, UpdateInput{Title: &title}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if f.rates.calls != 0 {
		t.Error("rate resolver should not run when billing inputs are unchanged")
	}
}

func TestUpdateForbiddenForOtherPlainMember(t *testing.T) {
	f := newFixture()
	other := uuid.New()
	f.authz.members[memberKey{other, f.companyID}] = true
	e := f.seedEntry(other)
	title := "hijack"

	_, err := f.service.Update(context.Background(), f.member, false, e.ID, UpdateInput{Title: &title})
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("err = %v, want Forbidden", err)
	}
}

func TestDeleteByCompanyAdmin(t *testing.T) {
	f := newFixture()
	e := f.seedEntry(f.member)

	if err := f.service.Delete(context.Background(), f.admin, false, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if f.store.deletedEntry == nil || *f.store.deletedEntry != e.ID {
		t.Error("entry was not deleted")
	}
	found := false
	for _, n := range f.notifier.userEvents {
		if n.event == "time_entry:deleted" && n.userID == f.member {
			found = true
		}
	}
	if !found {
		t.Error("entry owner was not notified about the deletion")
	}
}

func TestListRejectsForeignCompany(t *testing.T) {
	f := newFixture()
	foreign := uuid.New()

	_, _, err := f.service.List(context.Background(), f.member, false, &foreign, ListFilter{Limit: 20})
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("err = %v, want Forbidden", err)
	}
}

func TestListDefaultsToMemberCompanies(t *testing.T) {
	f := newFixture()

	if _, _, err := f.service.List(context.Background(), f.member, false, nil, ListFilter{Limit: 20}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(f.store.listedFilters) != 1 {
		t.Fatalf("store queried %d times, want 1", len(f.store.listedFilters))
	}
	got := f.store.listedFilters[0].CompanyIDs
	if len(got) != 1 || got[0] != f.companyID {
		t.Errorf("scope = %v, want [%s]", got, f.companyID)
	}
}

func TestListEmptyScopeShortCircuits(t *testing.T) {
	f := newFixture()

	list, total, err := f.service.List(context.Background(), f.outsider, false, nil, ListFilter{Limit: 20})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 0 || len(list) != 0 {
		t.Errorf("got %d items, want none", len(list))
	}
	if len(f.store.listedFilters) != 0 {
		t.Error("store should not be queried with an empty scope")
	}
}

func TestUserSummaryForOtherNeedsAdmin(t *testing.T) {
	f := newFixture()
	other := uuid.New()
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	if _, err := f.service.UserSummary(context.Background(), f.member, false, f.companyID, other, start, end); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("err = %v, want Forbidden", err)
	}
	if _, err := f.service.UserSummary(context.Background(), f.admin, false, f.companyID, other, start, end); err != nil {
		t.Fatalf("admin summary: %v", err)
	}
}
