package writerepo

import (
	"context"

	"homesit/internal/domain/points"
	"homesit/internal/infra"
	"homesit/internal/infra/db"
)

type PointsRepository struct {
	db db.DBTX
}

func NewPointsRepository(dbtx db.DBTX) *PointsRepository {
	return &PointsRepository{db: dbtx}
}

const appendEntryQuery = `
INSERT INTO points_ledger (id, user_id, booking_id, delta, reason)
VALUES ($1, $2, $3, $4, $5)`

func (r *PointsRepository) Append(ctx context.Context, entry points.Entry) error {
	_, err := r.db.Exec(ctx, appendEntryQuery,
		entry.ID, entry.UserID, entry.BookingID, entry.Delta, string(entry.Reason),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to append ledger entry", err)
	}
	return nil
}
