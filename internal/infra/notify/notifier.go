// Package notify holds the delivery adapters the outbox dispatcher fans out
// to: an in-app notification store and a mailer.
package notify

import (
	"context"

	"homesit/internal/infra"
	"homesit/internal/infra/db"
	"homesit/internal/usecase/shared"

	"github.com/google/uuid"
)

type Notifier interface {
	Deliver(ctx context.Context, n shared.NotificationPayload) error
}

// TableNotifier writes in-app notifications. Clients poll or subscribe to
// the notifications table; delivery is just an insert.
type TableNotifier struct {
	db db.DBTX
}

func NewTableNotifier(dbtx db.DBTX) *TableNotifier {
	return &TableNotifier{db: dbtx}
}

const insertNotificationQuery = `
INSERT INTO notifications (id, user_id, type, title, body, data)
VALUES ($1, $2, $3, $4, $5, $6)`

func (n *TableNotifier) Deliver(ctx context.Context, payload shared.NotificationPayload) error {
	_, err := n.db.Exec(ctx, insertNotificationQuery,
		uuid.New(), payload.UserID, payload.Type, payload.Title, payload.Body, payload.Data)
	if err != nil {
		return infra.WrapRepoErr("failed to insert notification", err)
	}
	return nil
}
