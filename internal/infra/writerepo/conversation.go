package writerepo

import (
	"context"

	"homesit/internal/infra"
	"homesit/internal/infra/db"

	"github.com/google/uuid"
)

type ConversationRepository struct {
	db db.DBTX
}

func NewConversationRepository(dbtx db.DBTX) *ConversationRepository {
	return &ConversationRepository{db: dbtx}
}

// ensureConversationQuery relies on the unique (listing_id, user_a, user_b)
// constraint. The no-op DO UPDATE lets RETURNING yield the id on conflict too.
const ensureConversationQuery = `
INSERT INTO conversations (id, listing_id, user_a, user_b)
VALUES ($1, $2, $3, $4)
ON CONFLICT (listing_id, user_a, user_b)
DO UPDATE SET updated_at = now()
RETURNING id`

func (r *ConversationRepository) Ensure(ctx context.Context, listingID, userA, userB uuid.UUID) (uuid.UUID, error) {
	// Normalize pair ordering so (a, b) and (b, a) hit the same row.
	if userB.String() < userA.String() {
		userA, userB = userB, userA
	}

	var id uuid.UUID
	err := r.db.QueryRow(ctx, ensureConversationQuery, uuid.New(), listingID, userA, userB).
		Scan(&id)
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to ensure conversation", err)
	}
	return id, nil
}
