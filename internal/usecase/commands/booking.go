package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"homesit/internal/domain/booking"
	"homesit/internal/domain/points"
	"homesit/internal/infra"
	"homesit/internal/pkg/clock"
	"homesit/internal/pkg/config"
	"homesit/internal/pkg/errs"
	"homesit/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrBookingNotFound  = errs.New("booking not found")
	ErrListingNotFound  = errs.New("listing not found")
	ErrOwnListing       = errs.New("cannot book your own listing")
	ErrInvalidDates     = errs.New("invalid dates")
	ErrDatesUnavailable = errs.New("dates no longer available")
	ErrUpdateConflict   = errs.New("booking was updated by someone else, refresh and retry")
	ErrUnauthorized     = errs.New("unauthorized")
	ErrStorageFailure   = errs.New("storage operation failed")
)

type CreateBookingInput struct {
	ListingID     uuid.UUID
	StartDate     string
	EndDate       string
	InsurancePlan booking.InsurancePlan
}

type ChangeStatusInput struct {
	BookingID uuid.UUID
	Target    booking.Status
	Reason    string
}

type ChangeStatusResult struct {
	Status booking.Status
	// NoOp means the booking was already in the target status.
	NoOp bool
}

type BookingCommands interface {
	Create(ctx context.Context, actorID uuid.UUID, in CreateBookingInput) (uuid.UUID, error)
	ChangeStatus(ctx context.Context, actorID uuid.UUID, in ChangeStatusInput) (*ChangeStatusResult, error)
}

type bookingCommands struct {
	uow     shared.UnitOfWork
	clock   clock.Clock
	payment config.PaymentConfig
}

func NewBookingCommands(uow shared.UnitOfWork, clk clock.Clock, cfg config.Config) BookingCommands {
	return &bookingCommands{
		uow:     uow,
		clock:   clk,
		payment: cfg.Payment,
	}
}

// defaultRates resolves the platform rates for a booking, including the cost
// of the selected insurance plan. Every quote built from config (creation and
// legacy-row backfill alike) must go through here so the plan is never priced
// differently across paths.
func defaultRates(payment config.PaymentConfig, plan booking.InsurancePlan) booking.Rates {
	rates := booking.Rates{
		ServiceFeePerNight: payment.ServiceFeePerNightCents,
		CleaningFee:        payment.CleaningFeeCents,
	}
	switch plan {
	case booking.InsuranceStandard:
		rates.InsuranceCost = payment.InsuranceStandardCents
	case booking.InsurancePremium:
		rates.InsuranceCost = payment.InsurancePremiumCents
	}
	return rates
}

func (c *bookingCommands) Create(ctx context.Context, actorID uuid.UUID, in CreateBookingInput) (uuid.UUID, error) {
	dates, err := booking.ParseDateRange(in.StartDate, in.EndDate)
	if err != nil {
		return uuid.Nil, errs.Mark(err, ErrInvalidDates)
	}

	listing, err := c.uow.Reads().ListingByID(ctx, in.ListingID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return uuid.Nil, ErrListingNotFound
		}
		return uuid.Nil, errs.Mark(err, ErrStorageFailure)
	}
	if listing.OwnerID == actorID {
		return uuid.Nil, ErrOwnListing
	}

	// Advisory pre-check; the exclusion constraint settles concurrent races.
	conflict, err := c.uow.Reads().HasActiveOverlap(ctx, listing.ID, dates)
	if err != nil {
		return uuid.Nil, errs.Mark(err, ErrStorageFailure)
	}
	if conflict {
		return uuid.Nil, ErrDatesUnavailable
	}

	b, err := booking.NewBooking(
		listing.ID, actorID, listing.OwnerID, actorID,
		dates, defaultRates(c.payment, in.InsurancePlan), in.InsurancePlan,
		c.clock.Now(),
	)
	if err != nil {
		return uuid.Nil, errs.Mark(err, ErrInvalidDates)
	}

	var id uuid.UUID
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		id, err = tx.Bookings().Create(ctx, b)
		if err != nil {
			return err
		}
		return c.enqueueNotification(ctx, tx, shared.NotificationPayload{
			UserID: listing.OwnerID,
			Type:   shared.TopicBookingRequested,
			Title:  "New sit request",
			Body:   fmt.Sprintf("You have a new sit request for %q (%s to %s).", listing.Title, dates.StartString(), dates.EndString()),
			Data:   map[string]any{"booking_id": id, "listing_id": listing.ID},
		})
	})
	if err != nil {
		// A concurrent insert can win the race the pre-check missed; the
		// constraint violation is the same domain error as the pre-check.
		if infra.IsKind(err, infra.KindConflict) || infra.IsKind(err, infra.KindDuplicateKey) {
			return uuid.Nil, ErrDatesUnavailable
		}
		return uuid.Nil, errs.Mark(err, ErrStorageFailure)
	}

	return id, nil
}

func (c *bookingCommands) ChangeStatus(ctx context.Context, actorID uuid.UUID, in ChangeStatusInput) (*ChangeStatusResult, error) {
	b, err := c.uow.Reads().BookingByID(ctx, in.BookingID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, errs.Mark(err, ErrStorageFailure)
	}

	out, err := booking.Decide(b, booking.Event{
		Target: in.Target,
		Actor:  actorID,
		Now:    clock.Today(c.clock),
		Reason: in.Reason,
	})
	if err != nil {
		if errors.Is(err, booking.ErrSameStatus) {
			return &ChangeStatusResult{Status: b.Status(), NoOp: true}, nil
		}
		return nil, err
	}

	quote := b.Quote(defaultRates(c.payment, b.InsurancePlan()))

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return c.applyOutcome(ctx, tx, actorID, b, out, quote)
	})
	if err != nil {
		if errors.Is(err, ErrUpdateConflict) {
			return nil, ErrUpdateConflict
		}
		return nil, errs.Mark(err, ErrStorageFailure)
	}

	return &ChangeStatusResult{Status: out.To}, nil
}

func (c *bookingCommands) applyOutcome(ctx context.Context, tx shared.Tx, actorID uuid.UUID, b *booking.Booking, out booking.Outcome, quote booking.FeeQuote) error {
	patch := shared.StatusPatch{To: out.To, Cancellation: out.Cancellation}
	if out.RefundPayment {
		refunded := booking.PaymentRefunded
		patch.PaymentStatus = &refunded
	}
	if out.RevokePoints > 0 {
		zero := int64(0)
		patch.PointsAwarded = &zero
	}
	if out.AwardPoints > 0 {
		awarded := out.AwardPoints
		patch.PointsAwarded = &awarded
	}

	updated, err := tx.Bookings().UpdateStatusCAS(ctx, b.ID(), out.From, patch)
	if err != nil {
		return err
	}
	if !updated {
		return ErrUpdateConflict
	}

	if b.Fees().NeedsBackfill() {
		cashDue := quote.TotalFee - b.PointsApplied()*quote.ServiceFeePerNight
		if err := tx.Bookings().BackfillFeeSnapshot(ctx, b.ID(), quote, cashDue); err != nil {
			return err
		}
	}

	if out.HoldCalendar {
		if err := tx.Availability().SetBooked(ctx, b.ListingID(), b.Dates(), true); err != nil {
			return err
		}
	}
	if out.ReleaseCalendar {
		if err := tx.Availability().SetBooked(ctx, b.ListingID(), b.Dates(), false); err != nil {
			return err
		}
	}

	if err := c.appendLedgerEntries(ctx, tx, b, out); err != nil {
		return err
	}

	if out.EnsureConversation {
		if _, err := tx.Conversations().Ensure(ctx, b.ListingID(), b.SitterID(), b.HostID()); err != nil {
			return err
		}
	}

	return c.enqueueTransitionEffects(ctx, tx, actorID, b, out)
}

func (c *bookingCommands) appendLedgerEntries(ctx context.Context, tx shared.Tx, b *booking.Booking, out booking.Outcome) error {
	if out.RefundPoints > 0 {
		entry, err := points.NewEntry(b.SitterID(), b.ID(), out.RefundPoints, points.ReasonRefund)
		if err != nil {
			return err
		}
		if err := tx.Points().Append(ctx, entry); err != nil {
			return err
		}
	}
	if out.RevokePoints > 0 {
		entry, err := points.NewEntry(b.HostID(), b.ID(), -out.RevokePoints, points.ReasonRevoke)
		if err != nil {
			return err
		}
		if err := tx.Points().Append(ctx, entry); err != nil {
			return err
		}
	}
	if out.AwardPoints > 0 {
		entry, err := points.NewEntry(b.HostID(), b.ID(), out.AwardPoints, points.ReasonAward)
		if err != nil {
			return err
		}
		if err := tx.Points().Append(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

func (c *bookingCommands) enqueueTransitionEffects(ctx context.Context, tx shared.Tx, actorID uuid.UUID, b *booking.Booking, out booking.Outcome) error {
	topic := topicFor(out.To)
	counterparty := b.HostID()
	if actorID == b.HostID() {
		counterparty = b.SitterID()
	}

	body := fmt.Sprintf("Your sit from %s to %s is now %s.", b.Dates().StartString(), b.Dates().EndString(), out.To)
	if err := c.enqueueNotification(ctx, tx, shared.NotificationPayload{
		UserID: counterparty,
		Type:   topic,
		Title:  "Booking " + out.To.String(),
		Body:   body,
		Data:   map[string]any{"booking_id": b.ID()},
	}); err != nil {
		return err
	}

	if out.To == booking.StatusCancelled {
		// The actor also gets a cancellation confirmation.
		if err := c.enqueueNotification(ctx, tx, shared.NotificationPayload{
			UserID: actorID,
			Type:   topic,
			Title:  "Cancellation confirmed",
			Body:   body,
			Data:   map[string]any{"booking_id": b.ID()},
		}); err != nil {
			return err
		}
	}

	if out.To == booking.StatusCancelled || out.To == booking.StatusConfirmed {
		c.enqueueTransactionalEmails(ctx, tx, b, topic)
	}
	return nil
}

// enqueueTransactionalEmails is best-effort: a missing profile must not fail
// the transition.
func (c *bookingCommands) enqueueTransactionalEmails(ctx context.Context, tx shared.Tx, b *booking.Booking, topic string) {
	for _, userID := range []uuid.UUID{b.SitterID(), b.HostID()} {
		profile, err := tx.Reads().ProfileByID(ctx, userID)
		if err != nil {
			slog.Warn("skipping transactional email, profile lookup failed",
				"booking_id", b.ID(), "user_id", userID, "error", err.Error())
			continue
		}
		payload, err := json.Marshal(shared.EmailPayload{
			To:      profile.Email,
			Type:    topic,
			Subject: "Your homesit booking update",
			Data: map[string]any{
				"booking_id": b.ID(),
				"start_date": b.Dates().StartString(),
				"end_date":   b.Dates().EndString(),
			},
		})
		if err != nil {
			continue
		}
		if err := tx.Outbox().Enqueue(ctx, shared.JobKindEmail, topic, payload, c.clock.Now()); err != nil {
			slog.Warn("failed to enqueue transactional email",
				"booking_id", b.ID(), "user_id", userID, "error", err.Error())
		}
	}
}

func (c *bookingCommands) enqueueNotification(ctx context.Context, tx shared.Tx, p shared.NotificationPayload) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return errs.Wrap(err, "failed to marshal notification payload")
	}
	return tx.Outbox().Enqueue(ctx, shared.JobKindNotification, p.Type, payload, c.clock.Now())
}

func topicFor(s booking.Status) string {
	switch s {
	case booking.StatusAccepted:
		return shared.TopicBookingAccepted
	case booking.StatusDeclined:
		return shared.TopicBookingDeclined
	case booking.StatusConfirmed:
		return shared.TopicBookingConfirmed
	case booking.StatusCancelled:
		return shared.TopicBookingCancelled
	case booking.StatusCompleted:
		return shared.TopicBookingCompleted
	default:
		return "booking_" + s.String()
	}
}
