// Package notify routes domain events to the right realtime recipients.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const lookupTimeout = 5 * time.Second

// Sender delivers an event to connected users. Implemented by realtime.Hub.
type Sender interface {
	SendToUser(userID uuid.UUID, event string, payload interface{})
	SendToUsers(userIDs []uuid.UUID, event string, payload interface{})
}

// RecipientStore resolves who should hear about company activity: the
// company's Owners and Admins plus platform admins.
type RecipientStore interface {
	CompanyAdminIDs(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error)
}

// PGRecipientStore resolves recipients from Postgres.
type PGRecipientStore struct {
	pool *pgxpool.Pool
}

// NewPGRecipientStore creates a pgx-backed recipient store.
func NewPGRecipientStore(pool *pgxpool.Pool) *PGRecipientStore {
	return &PGRecipientStore{pool: pool}
}

// CompanyAdminIDs returns the users holding an Owner or Admin role through an
// ACTIVE membership in the company, plus all platform admins.
func (s *PGRecipientStore) CompanyAdminIDs(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT m.user_id
		FROM memberships m
		JOIN membership_roles mr ON mr.membership_id = m.id
		JOIN roles r ON r.id = mr.role_id
		WHERE m.company_id = $1 AND m.status = 'ACTIVE' AND r.name = ANY($2)
		UNION
		SELECT user_id FROM platform_admins`,
		companyID, []string{"Owner", "Admin"})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Notifier fans domain events out to company admins and individual users.
// All sends are asynchronous; failures are logged and never surface to the
// operation that triggered them.
type Notifier struct {
	sender Sender
	store  RecipientStore
	logger *zap.Logger
}

// NewNotifier creates a notifier.
func NewNotifier(sender Sender, store RecipientStore, logger *zap.Logger) *Notifier {
	return &Notifier{sender: sender, store: store, logger: logger}
}

// NotifyCompanyAdmins sends the event to every Owner/Admin of the company
// except the actor, who already knows what they did.
func (n *Notifier) NotifyCompanyAdmins(companyID, actorID uuid.UUID, event string, data any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		defer cancel()

		ids, err := n.store.CompanyAdminIDs(ctx, companyID)
		if err != nil {
			n.logger.Warn("resolve notification recipients",
				zap.Error(err), zap.String("company_id", companyID.String()), zap.String("event", event))
			return
		}
		recipients := ids[:0]
		for _, id := range ids {
			if id != actorID {
				recipients = append(recipients, id)
			}
		}
		if len(recipients) > 0 {
			n.sender.SendToUsers(recipients, event, data)
		}
	}()
}

// NotifyUser sends the event to a single user.
func (n *Notifier) NotifyUser(userID uuid.UUID, event string, data any) {
	go n.sender.SendToUser(userID, event, data)
}
