package writerepo

import (
	"context"

	"homesit/internal/infra"
	"homesit/internal/infra/db"
)

// WebhookEventRepository persists one row per processed payment event. The
// unique event_id is the idempotency key; it must run on the pool so the
// record commits before processing begins.
type WebhookEventRepository struct {
	db db.DBTX
}

func NewWebhookEventRepository(dbtx db.DBTX) *WebhookEventRepository {
	return &WebhookEventRepository{db: dbtx}
}

func (r *WebhookEventRepository) Reserve(ctx context.Context, eventID, eventType string, payload []byte) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO webhook_events (event_id, event_type, payload) VALUES ($1, $2, $3)`,
		eventID, eventType, payload)
	if err != nil {
		return infra.WrapRepoErr("failed to reserve webhook event", err)
	}
	return nil
}

func (r *WebhookEventRepository) Release(ctx context.Context, eventID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM webhook_events WHERE event_id = $1`, eventID)
	if err != nil {
		return infra.WrapRepoErr("failed to release webhook event", err)
	}
	return nil
}
