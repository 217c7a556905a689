//go:build unit

package queries_test

import (
	"context"
	"testing"

	"homesit/internal/usecase/queries"
	"homesit/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBookingStore struct {
	views      map[uuid.UUID]*queries.BookingView
	lastFilter queries.ListFilter
	listResult []queries.BookingView
	err        error
}

func (s *fakeBookingStore) FindByID(_ context.Context, id uuid.UUID) (*queries.BookingView, error) {
	if s.err != nil {
		return nil, s.err
	}
	v, ok := s.views[id]
	if !ok {
		return nil, queries.ErrBookingNotFound
	}
	return v, nil
}

func (s *fakeBookingStore) ListForUser(_ context.Context, _ uuid.UUID, filter queries.ListFilter) ([]queries.BookingView, error) {
	s.lastFilter = filter
	return s.listResult, s.err
}

func TestBookingQueries_GetByID(t *testing.T) {
	ctx := context.Background()
	view := builder.NewBookingBuilder().BuildView()
	store := &fakeBookingStore{views: map[uuid.UUID]*queries.BookingView{view.ID: view}}
	svc := queries.NewBookingQueries(store)

	t.Run("visible to the sitter", func(t *testing.T) {
		got, err := svc.GetByID(ctx, view.SitterID, view.ID)
		require.NoError(t, err)
		assert.Equal(t, view.ID, got.ID)
	})

	t.Run("visible to the host", func(t *testing.T) {
		got, err := svc.GetByID(ctx, view.HostID, view.ID)
		require.NoError(t, err)
		assert.Equal(t, view.ID, got.ID)
	})

	t.Run("hidden from everyone else", func(t *testing.T) {
		_, err := svc.GetByID(ctx, uuid.New(), view.ID)
		require.ErrorIs(t, err, queries.ErrBookingNotFound)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.GetByID(ctx, view.SitterID, uuid.New())
		require.ErrorIs(t, err, queries.ErrBookingNotFound)
	})
}

func TestBookingQueries_ListForUser(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	cases := []struct {
		name      string
		limit     int32
		wantLimit int32
	}{
		{name: "zero limit falls back to the default", limit: 0, wantLimit: 50},
		{name: "negative limit falls back to the default", limit: -5, wantLimit: 50},
		{name: "oversized limit falls back to the default", limit: 500, wantLimit: 50},
		{name: "in-range limit is kept", limit: 20, wantLimit: 20},
		{name: "maximum limit is kept", limit: 100, wantLimit: 100},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			store := &fakeBookingStore{}
			svc := queries.NewBookingQueries(store)

			_, err := svc.ListForUser(ctx, userID, queries.ListFilter{Limit: c.limit})
			require.NoError(t, err)
			assert.Equal(t, c.wantLimit, store.lastFilter.Limit)
		})
	}
}
