package queries

import (
	"context"
	"time"

	"homesit/internal/domain/points"

	"github.com/google/uuid"
)

type PointsBalanceView struct {
	Balance int64             `json:"balance"`
	Entries []PointsEntryView `json:"entries"`
}

type PointsEntryView struct {
	BookingID uuid.UUID `json:"booking_id"`
	Delta     int64     `json:"delta"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// PointsReadStore returns ledger entries newest first.
type PointsReadStore interface {
	EntriesForUser(ctx context.Context, userID uuid.UUID) ([]points.Entry, error)
}

type PointsQueries interface {
	Balance(ctx context.Context, userID uuid.UUID) (*PointsBalanceView, error)
}

type pointsQueries struct {
	store PointsReadStore
}

func NewPointsQueries(store PointsReadStore) PointsQueries {
	return &pointsQueries{store: store}
}

func (q *pointsQueries) Balance(ctx context.Context, userID uuid.UUID) (*PointsBalanceView, error) {
	entries, err := q.store.EntriesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]PointsEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, PointsEntryView{
			BookingID: e.BookingID,
			Delta:     e.Delta,
			Reason:    string(e.Reason),
			CreatedAt: e.CreatedAt,
		})
	}
	return &PointsBalanceView{
		Balance: points.Balance(entries),
		Entries: views,
	}, nil
}
