package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type sent struct {
	userIDs []uuid.UUID
	event   string
}

type fakeSender struct {
	ch chan sent
}

func newFakeSender() *fakeSender {
	return &fakeSender{ch: make(chan sent, 8)}
}

func (f *fakeSender) SendToUser(userID uuid.UUID, event string, _ interface{}) {
	f.ch <- sent{userIDs: []uuid.UUID{userID}, event: event}
}

func (f *fakeSender) SendToUsers(userIDs []uuid.UUID, event string, _ interface{}) {
	f.ch <- sent{userIDs: userIDs, event: event}
}

func (f *fakeSender) wait(t *testing.T) sent {
	t.Helper()
	select {
	case s := <-f.ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no send arrived")
		return sent{}
	}
}

func (f *fakeSender) expectNone(t *testing.T) {
	t.Helper()
	select {
	case s := <-f.ch:
		t.Fatalf("unexpected send: %+v", s)
	case <-time.After(100 * time.Millisecond):
	}
}

type fakeStore struct {
	admins []uuid.UUID
	err    error
}

func (f *fakeStore) CompanyAdminIDs(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	return f.admins, f.err
}

func TestNotifyCompanyAdminsExcludesActor(t *testing.T) {
	actor := uuid.New()
	other := uuid.New()
	sender := newFakeSender()
	n := NewNotifier(sender, &fakeStore{admins: []uuid.UUID{actor, other}}, zap.NewNop())

	n.NotifyCompanyAdmins(uuid.New(), actor, "time_entry:created", nil)

	got := sender.wait(t)
	if got.event != "time_entry:created" {
		t.Errorf("event = %q", got.event)
	}
	if len(got.userIDs) != 1 || got.userIDs[0] != other {
		t.Errorf("recipients = %v, want only %s", got.userIDs, other)
	}
}

func TestNotifyCompanyAdminsSkipsWhenActorIsOnlyAdmin(t *testing.T) {
	actor := uuid.New()
	sender := newFakeSender()
	n := NewNotifier(sender, &fakeStore{admins: []uuid.UUID{actor}}, zap.NewNop())

	n.NotifyCompanyAdmins(uuid.New(), actor, "time_entry:created", nil)
	sender.expectNone(t)
}

func TestNotifyCompanyAdminsSwallowsStoreErrors(t *testing.T) {
	sender := newFakeSender()
	n := NewNotifier(sender, &fakeStore{err: errors.New("db down")}, zap.NewNop())

	n.NotifyCompanyAdmins(uuid.New(), uuid.New(), "time_entry:created", nil)
	sender.expectNone(t)
}

func TestNotifyUser(t *testing.T) {
	target := uuid.New()
	sender := newFakeSender()
	n := NewNotifier(sender, &fakeStore{}, zap.NewNop())

	n.NotifyUser(target, "time_entry:assigned", nil)

	got := sender.wait(t)
	if got.event != "time_entry:assigned" || len(got.userIDs) != 1 || got.userIDs[0] != target {
		t.Errorf("send = %+v", got)
	}
}
