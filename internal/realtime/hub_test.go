package realtime

import (
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newTestClient(hub *Hub, userID uuid.UUID) *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		hub:    hub,
		send:   make(chan WSMessage, 8),
		logger: zap.NewNop(),
	}
}

func TestSendToUserReachesAllConnections(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	userID := uuid.New()

	c1 := newTestClient(hub, userID)
	c2 := newTestClient(hub, userID)
	hub.Register(c1)
	hub.Register(c2)

	hub.SendToUser(userID, "invitation:new", map[string]string{"id": "x"})

	for _, c := range []*Client{c1, c2} {
		select {
		case msg := <-c.send:
			if msg.Event != "invitation:new" {
				t.Errorf("event = %s, want invitation:new", msg.Event)
			}
		default:
			t.Error("connection received nothing")
		}
	}
}

func TestSendToUserIgnoresDisconnected(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	userID := uuid.New()

	c := newTestClient(hub, userID)
	hub.Register(c)
	hub.Unregister(c)

	// Must not panic or deliver.
	hub.SendToUser(userID, "notice", nil)

	select {
	case <-c.send:
		t.Error("unregistered connection received an event")
	default:
	}
	if n := hub.ConnectionCount(userID); n != 0 {
		t.Errorf("connection count = %d, want 0", n)
	}
}

func TestSendToUserDoesNotCrossUsers(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	alice := uuid.New()
	bob := uuid.New()

	ca := newTestClient(hub, alice)
	cb := newTestClient(hub, bob)
	hub.Register(ca)
	hub.Register(cb)

	hub.SendToUser(alice, "notice", nil)

	select {
	case <-cb.send:
		t.Error("event leaked to another user")
	default:
	}
	select {
	case <-ca.send:
	default:
		t.Error("target user received nothing")
	}
}

func TestSendToUserDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	userID := uuid.New()

	c := newTestClient(hub, userID)
	c.send = make(chan WSMessage, 1)
	hub.Register(c)

	hub.SendToUser(userID, "a", nil)
	hub.SendToUser(userID, "b", nil) // dropped, must not block

	if got := len(c.send); got != 1 {
		t.Errorf("buffered = %d, want 1", got)
	}
}

// Exercises delivery racing connection churn for the same user, the pattern
// a fan-out hits when a user opens a second tab. Run with -race.
func TestSendToUserDuringConnectionChurn(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	userID := uuid.New()

	base := newTestClient(hub, userID)
	hub.Register(base)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			c := newTestClient(hub, userID)
			hub.Register(c)
			hub.Unregister(c)
		}
	}()

	for i := 0; i < 500; i++ {
		hub.SendToUser(userID, "notice", nil)
	}
	<-done

	if hub.ConnectionCount(userID) != 1 {
		t.Errorf("connection count = %d, want 1", hub.ConnectionCount(userID))
	}
}

func TestSendToUsersFansOut(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	alice := uuid.New()
	bob := uuid.New()

	ca := newTestClient(hub, alice)
	cb := newTestClient(hub, bob)
	hub.Register(ca)
	hub.Register(cb)

	hub.SendToUsers([]uuid.UUID{alice, bob}, "notice", nil)

	for _, c := range []*Client{ca, cb} {
		select {
		case <-c.send:
		default:
			t.Error("fan-out missed a user")
		}
	}
}
