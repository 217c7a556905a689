//go:build unit

package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"homesit/internal/domain/booking"
	"homesit/internal/domain/points"
	"homesit/internal/infra"
	"homesit/internal/pkg/clock"
	"homesit/internal/pkg/config"
	"homesit/internal/usecase/commands"
	"homesit/internal/usecase/shared"
	"homesit/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newBookingCommands(uow *fakeUoW) commands.BookingCommands {
	return commands.NewBookingCommands(uow, clock.NewMockClock(testNow), config.NewTestConfig())
}

func TestBookingCommands_Create(t *testing.T) {
	ctx := context.Background()
	sitterID := uuid.New()
	hostID := uuid.New()

	listing := &shared.ListingSnapshot{ID: uuid.New(), OwnerID: hostID, Title: "Canal house"}

	input := commands.CreateBookingInput{
		ListingID: listing.ID,
		StartDate: "2026-03-08",
		EndDate:   "2026-03-11",
	}

	t.Run("creates a pending booking and notifies the host", func(t *testing.T) {
		uow := newFakeUoW()
		uow.reads.listings[listing.ID] = listing
		svc := newBookingCommands(uow)

		id, err := svc.Create(ctx, sitterID, input)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, id)

		require.Len(t, uow.tx.bookings.created, 1)
		created := uow.tx.bookings.created[0]
		assert.Equal(t, booking.StatusPending, created.Status())
		assert.Equal(t, sitterID, created.SitterID())
		assert.Equal(t, hostID, created.HostID())
		assert.Equal(t, sitterID, created.RequestedBy())

		jobs := uow.tx.outbox.byKind(shared.JobKindNotification)
		require.Len(t, jobs, 1)
		assert.Equal(t, shared.TopicBookingRequested, jobs[0].topic)
	})

	t.Run("carries the insurance snapshot", func(t *testing.T) {
		uow := newFakeUoW()
		uow.reads.listings[listing.ID] = listing
		svc := newBookingCommands(uow)

		in := input
		in.InsurancePlan = booking.InsurancePremium
		_, err := svc.Create(ctx, sitterID, in)
		require.NoError(t, err)

		created := uow.tx.bookings.created[0]
		assert.True(t, created.InsuranceSelected())
		require.NotNil(t, created.Fees().InsuranceCost)
		assert.Equal(t, int64(4500), *created.Fees().InsuranceCost)
	})

	t.Run("rejects unparseable dates", func(t *testing.T) {
		uow := newFakeUoW()
		uow.reads.listings[listing.ID] = listing
		svc := newBookingCommands(uow)

		in := input
		in.EndDate = "not-a-date"
		_, err := svc.Create(ctx, sitterID, in)
		require.ErrorIs(t, err, commands.ErrInvalidDates)
	})

	t.Run("unknown listing", func(t *testing.T) {
		svc := newBookingCommands(newFakeUoW())
		_, err := svc.Create(ctx, sitterID, input)
		require.ErrorIs(t, err, commands.ErrListingNotFound)
	})

	t.Run("host cannot book their own listing", func(t *testing.T) {
		uow := newFakeUoW()
		uow.reads.listings[listing.ID] = listing
		svc := newBookingCommands(uow)

		_, err := svc.Create(ctx, hostID, input)
		require.ErrorIs(t, err, commands.ErrOwnListing)
	})

	t.Run("overlap pre-check blocks the request", func(t *testing.T) {
		uow := newFakeUoW()
		uow.reads.listings[listing.ID] = listing
		uow.reads.overlap = true
		svc := newBookingCommands(uow)

		_, err := svc.Create(ctx, sitterID, input)
		require.ErrorIs(t, err, commands.ErrDatesUnavailable)
	})

	t.Run("losing the insert race reads as unavailable dates", func(t *testing.T) {
		uow := newFakeUoW()
		uow.reads.listings[listing.ID] = listing
		uow.tx.bookings.createErr = infra.WrapRepoErr("exclusion constraint", errors.New("23P01"), infra.KindConflict)
		svc := newBookingCommands(uow)

		_, err := svc.Create(ctx, sitterID, input)
		require.ErrorIs(t, err, commands.ErrDatesUnavailable)
	})
}

func TestBookingCommands_ChangeStatus(t *testing.T) {
	ctx := context.Background()

	seed := func(uow *fakeUoW, b *booking.Booking) {
		uow.reads.bookings[b.ID()] = b
	}

	t.Run("unknown booking", func(t *testing.T) {
		svc := newBookingCommands(newFakeUoW())
		_, err := svc.ChangeStatus(ctx, uuid.New(), commands.ChangeStatusInput{
			BookingID: uuid.New(), Target: booking.StatusAccepted,
		})
		require.ErrorIs(t, err, commands.ErrBookingNotFound)
	})

	t.Run("host accepts a pending request", func(t *testing.T) {
		uow := newFakeUoW()
		b := builder.NewBookingBuilder().BuildDomain()
		seed(uow, b)
		svc := newBookingCommands(uow)

		res, err := svc.ChangeStatus(ctx, b.HostID(), commands.ChangeStatusInput{
			BookingID: b.ID(), Target: booking.StatusAccepted,
		})
		require.NoError(t, err)
		assert.Equal(t, booking.StatusAccepted, res.Status)
		assert.False(t, res.NoOp)

		require.Len(t, uow.tx.bookings.casCalls, 1)
		cas := uow.tx.bookings.casCalls[0]
		assert.Equal(t, booking.StatusPending, cas.expected)
		assert.Equal(t, booking.StatusAccepted, cas.patch.To)

		require.Len(t, uow.tx.availability.calls, 1)
		assert.True(t, uow.tx.availability.calls[0].booked)
		assert.Equal(t, 1, uow.tx.conversations.calls)

		jobs := uow.tx.outbox.byKind(shared.JobKindNotification)
		require.Len(t, jobs, 1)
		assert.Equal(t, shared.TopicBookingAccepted, jobs[0].topic)
	})

	t.Run("repeat of the current status is a no-op", func(t *testing.T) {
		uow := newFakeUoW()
		b := builder.NewBookingBuilder().WithStatus(booking.StatusAccepted).BuildDomain()
		seed(uow, b)
		svc := newBookingCommands(uow)

		res, err := svc.ChangeStatus(ctx, b.HostID(), commands.ChangeStatusInput{
			BookingID: b.ID(), Target: booking.StatusAccepted,
		})
		require.NoError(t, err)
		assert.True(t, res.NoOp)
		assert.Equal(t, booking.StatusAccepted, res.Status)
		assert.Empty(t, uow.tx.bookings.casCalls)
	})

	t.Run("losing the status race surfaces as a conflict", func(t *testing.T) {
		uow := newFakeUoW()
		uow.tx.bookings.casResult = false
		b := builder.NewBookingBuilder().BuildDomain()
		seed(uow, b)
		svc := newBookingCommands(uow)

		_, err := svc.ChangeStatus(ctx, b.HostID(), commands.ChangeStatusInput{
			BookingID: b.ID(), Target: booking.StatusAccepted,
		})
		require.ErrorIs(t, err, commands.ErrUpdateConflict)
	})

	t.Run("domain rejections pass through untouched", func(t *testing.T) {
		uow := newFakeUoW()
		b := builder.NewBookingBuilder().BuildDomain()
		seed(uow, b)
		svc := newBookingCommands(uow)

		_, err := svc.ChangeStatus(ctx, uuid.New(), commands.ChangeStatusInput{
			BookingID: b.ID(), Target: booking.StatusAccepted,
		})
		require.ErrorIs(t, err, booking.ErrNotParticipant)
	})

	t.Run("cancelling a paid booking refunds and releases", func(t *testing.T) {
		uow := newFakeUoW()
		b := builder.NewBookingBuilder().
			WithStatus(booking.StatusConfirmed).
			WithPaymentStatus(booking.PaymentPaid).
			WithPointsApplied(2).
			BuildDomain()
		seed(uow, b)
		uow.reads.profiles[b.SitterID()] = &shared.ProfileSnapshot{ID: b.SitterID(), Email: "sitter@example.com"}
		uow.reads.profiles[b.HostID()] = &shared.ProfileSnapshot{ID: b.HostID(), Email: "host@example.com"}
		svc := newBookingCommands(uow)

		res, err := svc.ChangeStatus(ctx, b.SitterID(), commands.ChangeStatusInput{
			BookingID: b.ID(), Target: booking.StatusCancelled, Reason: "plans changed",
		})
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCancelled, res.Status)

		cas := uow.tx.bookings.casCalls[0]
		require.NotNil(t, cas.patch.PaymentStatus)
		assert.Equal(t, booking.PaymentRefunded, *cas.patch.PaymentStatus)
		require.NotNil(t, cas.patch.Cancellation)
		assert.Equal(t, "plans changed", cas.patch.Cancellation.Reason)

		require.Len(t, uow.tx.availability.calls, 1)
		assert.False(t, uow.tx.availability.calls[0].booked)

		require.Len(t, uow.tx.points.entries, 1)
		refund := uow.tx.points.entries[0]
		assert.Equal(t, b.SitterID(), refund.UserID)
		assert.Equal(t, int64(2), refund.Delta)
		assert.Equal(t, points.ReasonRefund, refund.Reason)

		// Counterparty plus actor confirmation, then one email per participant.
		assert.Len(t, uow.tx.outbox.byKind(shared.JobKindNotification), 2)
		assert.Len(t, uow.tx.outbox.byKind(shared.JobKindEmail), 2)
	})

	t.Run("completion awards points to the host", func(t *testing.T) {
		uow := newFakeUoW()
		b := builder.NewBookingBuilder().
			WithStatus(booking.StatusConfirmed).
			WithPaymentStatus(booking.PaymentPaid).
			BuildDomain()
		seed(uow, b)
		svc := commands.NewBookingCommands(uow, clock.NewMockClock(b.Dates().End().Add(24*time.Hour)), config.NewTestConfig())

		res, err := svc.ChangeStatus(ctx, b.HostID(), commands.ChangeStatusInput{
			BookingID: b.ID(), Target: booking.StatusCompleted,
		})
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCompleted, res.Status)

		cas := uow.tx.bookings.casCalls[0]
		require.NotNil(t, cas.patch.PointsAwarded)
		assert.Equal(t, int64(3), *cas.patch.PointsAwarded)

		require.Len(t, uow.tx.points.entries, 1)
		award := uow.tx.points.entries[0]
		assert.Equal(t, b.HostID(), award.UserID)
		assert.Equal(t, int64(3), award.Delta)
		assert.Equal(t, points.ReasonAward, award.Reason)
	})

	t.Run("legacy rows get their fee snapshot backfilled", func(t *testing.T) {
		uow := newFakeUoW()
		b := builder.NewBookingBuilder().AsLegacyFees().BuildDomain()
		seed(uow, b)
		svc := newBookingCommands(uow)

		_, err := svc.ChangeStatus(ctx, b.HostID(), commands.ChangeStatusInput{
			BookingID: b.ID(), Target: booking.StatusAccepted,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, uow.tx.bookings.backfillCalls)
	})

	t.Run("snapshotted rows are never backfilled", func(t *testing.T) {
		uow := newFakeUoW()
		b := builder.NewBookingBuilder().BuildDomain()
		seed(uow, b)
		svc := newBookingCommands(uow)

		_, err := svc.ChangeStatus(ctx, b.HostID(), commands.ChangeStatusInput{
			BookingID: b.ID(), Target: booking.StatusAccepted,
		})
		require.NoError(t, err)
		assert.Zero(t, uow.tx.bookings.backfillCalls)
	})
}
