package readstore

import (
	"context"

	"homesit/internal/domain/points"
	"homesit/internal/infra/db"

	"github.com/google/uuid"
)

// PointsReadStore serves the balance endpoint. It reuses the command-side
// ledger query; the two sides read the same table the same way.
type PointsReadStore struct {
	reads *CommandReads
}

func NewPointsReadStore(dbtx db.DBTX) *PointsReadStore {
	return &PointsReadStore{reads: NewCommandReads(dbtx)}
}

func (s *PointsReadStore) EntriesForUser(ctx context.Context, userID uuid.UUID) ([]points.Entry, error) {
	return s.reads.PointsEntries(ctx, userID)
}
