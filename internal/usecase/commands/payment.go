package commands

import (
	"context"
	"encoding/json"
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
	ErrWebhookProcessing = errs.New("webhook processing failed")
	ErrDedupeUnavailable = errs.New("webhook dedupe store unavailable")
)

// PaymentEvent is the normalized inbound processor event. Data is the raw
// event object; typed fields are extracted from it on demand.
type PaymentEvent struct {
	ID      string
	Type    string
	Created int64
	Object  map[string]any
}

// Webhook outcome tags, echoed back to the processor.
const (
	OutcomeProcessed = "processed"
	OutcomeIgnored   = "ignored"
	OutcomeDuplicate = "duplicate"
	OutcomeSkipped   = "skipped"
)

type WebhookResult struct {
	Outcome string
	// Detail explains a skip; empty otherwise.
	Detail string
}

// PaymentFlowBookingFee tags checkout sessions that pay a booking's fees.
const PaymentFlowBookingFee = "booking_fee"

// Events that finalize a booking-fee payment.
var succeededEventTypes = map[string]bool{
	"payment_intent.succeeded":   true,
	"checkout.session.completed": true,
}

// Events mapped to the generic guarded status patch.
var patchEventTypes = map[string]booking.PaymentStatus{
	"payment_intent.payment_failed": booking.PaymentUnpaid,
	"charge.refunded":               booking.PaymentRefunded,
}

type PaymentCommands interface {
	ProcessEvent(ctx context.Context, ev PaymentEvent) (*WebhookResult, error)
}

type paymentCommands struct {
	uow      shared.UnitOfWork
	events   shared.WebhookEventRepository
	bookings shared.BookingRepository
	clock    clock.Clock
	app      config.AppConfig
	payment  config.PaymentConfig
}

// NewPaymentCommands wires the reconciler. The bookings repository here is
// pool-scoped: ref linking and status patches are single guarded statements,
// not part of a larger transaction.
func NewPaymentCommands(
	uow shared.UnitOfWork,
	events shared.WebhookEventRepository,
	bookings shared.BookingRepository,
	clk clock.Clock,
	cfg config.Config,
) PaymentCommands {
	return &paymentCommands{
		uow:      uow,
		events:   events,
		bookings: bookings,
		clock:    clk,
		app:      cfg.App,
		payment:  cfg.Payment,
	}
}

func (p *paymentCommands) ProcessEvent(ctx context.Context, ev PaymentEvent) (*WebhookResult, error) {
	_, finalize := succeededEventTypes[ev.Type]
	patchTo, patch := patchEventTypes[ev.Type]
	if !finalize && !patch {
		return &WebhookResult{Outcome: OutcomeIgnored}, nil
	}

	if done, err := p.reserveEvent(ctx, ev); err != nil {
		return nil, err
	} else if done {
		return &WebhookResult{Outcome: OutcomeDuplicate}, nil
	}

	res, err := p.process(ctx, ev, finalize, patchTo)
	if err != nil {
		// Free the dedupe slot so the processor's automatic retry of this
		// event is not swallowed as a duplicate.
		if releaseErr := p.events.Release(ctx, ev.ID); releaseErr != nil {
			slog.Error("failed to release webhook dedupe record",
				"event_id", ev.ID, "error", releaseErr.Error())
		}
		return nil, errs.Mark(err, ErrWebhookProcessing)
	}
	return res, nil
}

// reserveEvent records the idempotency guard before any processing. Returns
// true when this event was already recorded.
func (p *paymentCommands) reserveEvent(ctx context.Context, ev PaymentEvent) (bool, error) {
	payload, err := json.Marshal(ev.Object)
	if err != nil {
		payload = []byte("{}")
	}

	err = p.events.Reserve(ctx, ev.ID, ev.Type, payload)
	if err == nil {
		return false, nil
	}
	if infra.IsKind(err, infra.KindDuplicateKey) {
		return true, nil
	}
	if infra.IsKind(err, infra.KindSchemaMissing) {
		// Environment not yet migrated. Tolerable in development, fatal in
		// production: silent loss of dedupe must not happen there.
		if p.app.IsProduction() {
			return false, errs.Mark(err, ErrDedupeUnavailable)
		}
		slog.Warn("webhook dedupe table missing, processing without dedupe",
			"event_id", ev.ID, "environment", p.app.Environment)
		return false, nil
	}
	return false, err
}

func (p *paymentCommands) process(ctx context.Context, ev PaymentEvent, finalize bool, patchTo booking.PaymentStatus) (*WebhookResult, error) {
	info := extractPaymentInfo(ev.Object)

	if info.BookingID != uuid.Nil && info.PaymentRef != "" {
		p.linkPaymentRef(ctx, info.BookingID, info.PaymentRef)
	}

	if info.BookingID == uuid.Nil {
		return &WebhookResult{Outcome: OutcomeSkipped, Detail: "no booking reference"}, nil
	}

	if finalize && info.Flow == PaymentFlowBookingFee {
		return p.finalizeBookingFee(ctx, info)
	}
	if finalize {
		// Succeeded event outside the booking-fee flow: generic paid patch.
		patchTo = booking.PaymentPaid
	}
	return p.patchPaymentStatus(ctx, info, patchTo)
}

// linkPaymentRef ties the external payment reference to the booking.
// First writer wins; a conflicting value is logged, never overwritten.
func (p *paymentCommands) linkPaymentRef(ctx context.Context, bookingID uuid.UUID, ref string) {
	link, err := p.bookings.LinkPaymentRef(ctx, bookingID, ref)
	if err != nil {
		slog.Warn("failed to link payment reference",
			"booking_id", bookingID, "payment_ref", ref, "error", err.Error())
		return
	}
	if !link.Linked && link.Existing != ref {
		slog.Warn("payment reference mismatch, keeping existing",
			"booking_id", bookingID, "existing", link.Existing, "incoming", ref)
	}
}

func (p *paymentCommands) finalizeBookingFee(ctx context.Context, info paymentInfo) (*WebhookResult, error) {
	// Retried delivery of a stale or invalid event must not error back to
	// the processor, so every validation failure here is a no-op skip.
	b, err := p.uow.Reads().BookingByID(ctx, info.BookingID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return &WebhookResult{Outcome: OutcomeSkipped, Detail: "booking not found"}, nil
		}
		return nil, err
	}

	if b.Status() != booking.StatusConfirmed && b.Status() != booking.StatusAccepted {
		return &WebhookResult{Outcome: OutcomeSkipped, Detail: fmt.Sprintf("booking status %s", b.Status())}, nil
	}
	if info.AmountCents == nil {
		return &WebhookResult{Outcome: OutcomeSkipped, Detail: "missing paid amount"}, nil
	}
	if info.Currency != p.payment.Currency {
		return &WebhookResult{Outcome: OutcomeSkipped, Detail: fmt.Sprintf("unexpected currency %q", info.Currency)}, nil
	}

	quote := b.Quote(defaultRates(p.payment, b.InsurancePlan()))

	entries, err := p.uow.Reads().PointsEntries(ctx, b.SitterID())
	if err != nil {
		return nil, err
	}
	balance := points.Balance(entries)
	pointsToApply := points.ClampSpend(info.PointsRequested, balance, quote.Nights)

	expectedCashDue := quote.TotalFee - pointsToApply*quote.ServiceFeePerNight
	if *info.AmountCents < expectedCashDue {
		slog.Warn("underpaid booking fee, refusing to finalize",
			"booking_id", b.ID(), "paid_cents", *info.AmountCents, "expected_cents", expectedCashDue)
		return &WebhookResult{Outcome: OutcomeSkipped, Detail: "underpaid"}, nil
	}

	var result shared.ApplyPaymentResult
	err = p.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if b.Fees().NeedsBackfill() {
			if err := tx.Bookings().BackfillFeeSnapshot(ctx, b.ID(), quote, expectedCashDue); err != nil {
				return err
			}
		}

		// The atomic apply: re-validates payment status and finalizes in
		// one statement so a concurrent duplicate delivery cannot
		// double-apply between check and write.
		result, err = tx.Bookings().ApplyPayment(ctx, b.ID(), pointsToApply, expectedCashDue)
		if err != nil {
			return err
		}
		if !result.Updated {
			return nil
		}

		if pointsToApply > 0 {
			entry, err := points.NewEntry(b.SitterID(), b.ID(), -pointsToApply, points.ReasonSpend)
			if err != nil {
				return err
			}
			if err := tx.Points().Append(ctx, entry); err != nil {
				return err
			}
		}

		return p.enqueuePaymentReceived(ctx, tx, b, result.CashDue)
	})
	if err != nil {
		return nil, err
	}

	if !result.Updated && !result.AlreadyPaid {
		return &WebhookResult{Outcome: OutcomeSkipped, Detail: "payment not applicable"}, nil
	}

	if err := p.bookings.StampPayment(ctx, b.ID(), info.PaymentRef, info.Method); err != nil {
		slog.Warn("failed to stamp payment details",
			"booking_id", b.ID(), "error", err.Error())
	}

	return &WebhookResult{Outcome: OutcomeProcessed}, nil
}

func (p *paymentCommands) patchPaymentStatus(ctx context.Context, info paymentInfo, to booking.PaymentStatus) (*WebhookResult, error) {
	updated, err := p.bookings.PatchPaymentStatus(ctx, info.BookingID, to)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return &WebhookResult{Outcome: OutcomeSkipped, Detail: "booking not found"}, nil
		}
		return nil, err
	}
	if !updated {
		return &WebhookResult{Outcome: OutcomeSkipped, Detail: "status patch not applicable"}, nil
	}
	return &WebhookResult{Outcome: OutcomeProcessed}, nil
}

func (p *paymentCommands) enqueuePaymentReceived(ctx context.Context, tx shared.Tx, b *booking.Booking, cashDue int64) error {
	for _, userID := range []uuid.UUID{b.SitterID(), b.HostID()} {
		payload, err := json.Marshal(shared.NotificationPayload{
			UserID: userID,
			Type:   shared.TopicPaymentReceived,
			Title:  "Payment received",
			Body:   fmt.Sprintf("Payment for the sit from %s to %s has been received.", b.Dates().StartString(), b.Dates().EndString()),
			Data:   map[string]any{"booking_id": b.ID(), "cash_due": cashDue},
		})
		if err != nil {
			return err
		}
		if err := tx.Outbox().Enqueue(ctx, shared.JobKindNotification, shared.TopicPaymentReceived, payload, p.clock.Now()); err != nil {
			return err
		}

		profile, err := tx.Reads().ProfileByID(ctx, userID)
		if err != nil {
			slog.Warn("skipping payment email, profile lookup failed",
				"booking_id", b.ID(), "user_id", userID, "error", err.Error())
			continue
		}
		emailPayload, err := json.Marshal(shared.EmailPayload{
			To:      profile.Email,
			Type:    shared.TopicPaymentReceived,
			Subject: "Payment received for your homesit booking",
			Data:    map[string]any{"booking_id": b.ID()},
		})
		if err != nil {
			continue
		}
		if err := tx.Outbox().Enqueue(ctx, shared.JobKindEmail, shared.TopicPaymentReceived, emailPayload, p.clock.Now()); err != nil {
			slog.Warn("failed to enqueue payment email",
				"booking_id", b.ID(), "user_id", userID, "error", err.Error())
		}
	}
	return nil
}

// paymentInfo is what the reconciler pulls out of a raw event object.
type paymentInfo struct {
	BookingID       uuid.UUID
	PaymentRef      string
	Flow            string
	PointsRequested int64
	AmountCents     *int64
	Currency        string
	Method          string
}

func extractPaymentInfo(object map[string]any) paymentInfo {
	var info paymentInfo

	meta, _ := object["metadata"].(map[string]any)
	if idStr, ok := stringField(meta, "booking_id"); ok {
		if id, err := uuid.Parse(idStr); err == nil {
			info.BookingID = id
		}
	}
	if flow, ok := stringField(meta, "payment_flow"); ok {
		info.Flow = flow
	}
	if pts, ok := intField(meta, "points_requested"); ok {
		info.PointsRequested = pts
	}

	// Checkout sessions carry the intent id separately from their own id.
	if ref, ok := stringField(object, "payment_intent"); ok {
		info.PaymentRef = ref
	} else if ref, ok := stringField(object, "id"); ok {
		info.PaymentRef = ref
	}

	for _, key := range []string{"amount_received", "amount_total", "amount"} {
		if amount, ok := intField(object, key); ok {
			info.AmountCents = &amount
			break
		}
	}
	if currency, ok := stringField(object, "currency"); ok {
		info.Currency = currency
	}
	if method, ok := stringField(object, "payment_method_type"); ok {
		info.Method = method
	} else {
		info.Method = "card"
	}

	return info
}

func stringField(m map[string]any, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	s, ok := m[key].(string)
	return s, ok && s != ""
}

// intField tolerates both JSON numbers and stringly-typed metadata values.
func intField(m map[string]any, key string) (int64, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		var n int64
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n, true
		}
	}
	return 0, false
}
