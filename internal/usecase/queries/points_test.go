//go:build unit

package queries_test

import (
	"context"
	"testing"

	"homesit/internal/domain/points"
	"homesit/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePointsStore struct {
	entries []points.Entry
	err     error
}

func (s *fakePointsStore) EntriesForUser(_ context.Context, _ uuid.UUID) ([]points.Entry, error) {
	return s.entries, s.err
}

func TestPointsQueries_Balance(t *testing.T) {
	ctx := context.Background()
	bookingID := uuid.New()

	t.Run("ledger view with derived balance", func(t *testing.T) {
		store := &fakePointsStore{entries: []points.Entry{
			{BookingID: bookingID, Delta: 3, Reason: points.ReasonAward},
			{BookingID: bookingID, Delta: -2, Reason: points.ReasonSpend},
		}}
		svc := queries.NewPointsQueries(store)

		view, err := svc.Balance(ctx, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, int64(1), view.Balance)
		require.Len(t, view.Entries, 2)
		assert.Equal(t, "award", view.Entries[0].Reason)
		assert.Equal(t, int64(-2), view.Entries[1].Delta)
	})

	t.Run("empty ledger", func(t *testing.T) {
		svc := queries.NewPointsQueries(&fakePointsStore{})
		view, err := svc.Balance(ctx, uuid.New())
		require.NoError(t, err)
		assert.Zero(t, view.Balance)
		assert.Empty(t, view.Entries)
	})
}
