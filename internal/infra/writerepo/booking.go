// Package writerepo holds the command-side repositories. Each one takes a
// db.DBTX so the same implementation serves pool-scoped single statements and
// statements inside a unit-of-work transaction.
package writerepo

import (
	"context"
	"errors"

	"homesit/internal/domain/booking"
	"homesit/internal/infra"
	"homesit/internal/infra/db"
	"homesit/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type BookingRepository struct {
	db db.DBTX
}

func NewBookingRepository(dbtx db.DBTX) *BookingRepository {
	return &BookingRepository{db: dbtx}
}

const createBookingQuery = `
INSERT INTO bookings (
    id, listing_id, sitter_id, host_id, requested_by,
    start_date, end_date, status, payment_status,
    service_fee_per_night, cleaning_fee, service_fee_total,
    insurance_cost, total_fee, cash_due,
    insurance_selected, insurance_plan
) VALUES (
    $1, $2, $3, $4, $5,
    $6, $7, $8, $9,
    $10, $11, $12,
    $13, $14, $15,
    $16, NULLIF($17, '')
)`

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) (uuid.UUID, error) {
	fees := b.Fees()
	_, err := r.db.Exec(ctx, createBookingQuery,
		b.ID(), b.ListingID(), b.SitterID(), b.HostID(), b.RequestedBy(),
		b.Dates().Start(), b.Dates().End(), string(b.Status()), string(b.PaymentStatus()),
		fees.ServiceFeePerNight, fees.CleaningFee, fees.ServiceFeeTotal,
		fees.InsuranceCost, fees.TotalFee, fees.CashDue,
		b.InsuranceSelected(), string(b.InsurancePlan()),
	)
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to create booking", err)
	}
	return b.ID(), nil
}

const updateStatusCASQuery = `
UPDATE bookings SET
    status = $3,
    payment_status = COALESCE($4, payment_status),
    points_awarded = COALESCE($5, points_awarded),
    cancelled_by = COALESCE($6, cancelled_by),
    cancelled_at = COALESCE($7, cancelled_at),
    cancellation_reason = COALESCE($8, cancellation_reason),
    updated_at = now()
WHERE id = $1 AND status = $2`

func (r *BookingRepository) UpdateStatusCAS(ctx context.Context, id uuid.UUID, expected booking.Status, patch shared.StatusPatch) (bool, error) {
	var paymentStatus *string
	if patch.PaymentStatus != nil {
		s := string(*patch.PaymentStatus)
		paymentStatus = &s
	}
	var cancelledBy *uuid.UUID
	var cancelledAt any
	var cancelReason *string
	if patch.Cancellation != nil {
		cancelledBy = &patch.Cancellation.By
		cancelledAt = patch.Cancellation.At
		if patch.Cancellation.Reason != "" {
			cancelReason = &patch.Cancellation.Reason
		}
	}

	tag, err := r.db.Exec(ctx, updateStatusCASQuery,
		id, string(expected), string(patch.To),
		paymentStatus, patch.PointsAwarded,
		cancelledBy, cancelledAt, cancelReason,
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to update booking status", err)
	}
	return tag.RowsAffected() == 1, nil
}

const backfillFeeSnapshotQuery = `
UPDATE bookings SET
    service_fee_per_night = COALESCE(service_fee_per_night, $2),
    cleaning_fee          = COALESCE(cleaning_fee, $3),
    service_fee_total     = COALESCE(service_fee_total, $4),
    insurance_cost        = COALESCE(insurance_cost, $5),
    total_fee             = COALESCE(total_fee, $6),
    cash_due              = COALESCE(cash_due, $7),
    updated_at            = now()
WHERE id = $1`

func (r *BookingRepository) BackfillFeeSnapshot(ctx context.Context, id uuid.UUID, quote booking.FeeQuote, cashDue int64) error {
	_, err := r.db.Exec(ctx, backfillFeeSnapshotQuery,
		id, quote.ServiceFeePerNight, quote.CleaningFee, quote.ServiceFeeTotal,
		quote.InsuranceCost, quote.TotalFee, cashDue,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to backfill fee snapshot", err)
	}
	return nil
}

// applyPaymentQuery finalizes the payment only while the booking is still
// unpaid and in a payable status. Check and write happen in one statement so
// concurrent duplicate deliveries cannot both pass the check.
const applyPaymentQuery = `
UPDATE bookings SET
    payment_status = 'paid',
    points_applied = $2,
    cash_due       = $3,
    updated_at     = now()
WHERE id = $1
  AND payment_status = 'unpaid'
  AND status IN ('accepted', 'confirmed')
RETURNING points_applied, cash_due`

func (r *BookingRepository) ApplyPayment(ctx context.Context, id uuid.UUID, pointsToApply, cashDue int64) (shared.ApplyPaymentResult, error) {
	var result shared.ApplyPaymentResult
	err := r.db.QueryRow(ctx, applyPaymentQuery, id, pointsToApply, cashDue).
		Scan(&result.PointsApplied, &result.CashDue)
	if err == nil {
		result.Updated = true
		return result, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return shared.ApplyPaymentResult{}, infra.WrapRepoErr("failed to apply payment", err)
	}

	// Nothing matched: either the row is gone or the guard rejected it.
	var paymentStatus string
	err = r.db.QueryRow(ctx, `SELECT payment_status FROM bookings WHERE id = $1`, id).
		Scan(&paymentStatus)
	if err != nil {
		return shared.ApplyPaymentResult{}, infra.WrapRepoErr("failed to check payment status", err)
	}
	result.AlreadyPaid = paymentStatus == string(booking.PaymentPaid)
	return result, nil
}

const linkPaymentRefQuery = `
UPDATE bookings SET
    payment_ref = $2,
    updated_at  = now()
WHERE id = $1 AND (payment_ref IS NULL OR payment_ref = '' OR payment_ref = $2)
RETURNING payment_ref`

func (r *BookingRepository) LinkPaymentRef(ctx context.Context, id uuid.UUID, ref string) (shared.PaymentRefLink, error) {
	var stored string
	err := r.db.QueryRow(ctx, linkPaymentRefQuery, id, ref).Scan(&stored)
	if err == nil {
		return shared.PaymentRefLink{Linked: true, Existing: stored}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return shared.PaymentRefLink{}, infra.WrapRepoErr("failed to link payment ref", err)
	}

	var existing *string
	err = r.db.QueryRow(ctx, `SELECT payment_ref FROM bookings WHERE id = $1`, id).
		Scan(&existing)
	if err != nil {
		return shared.PaymentRefLink{}, infra.WrapRepoErr("failed to read payment ref", err)
	}
	link := shared.PaymentRefLink{}
	if existing != nil {
		link.Existing = *existing
	}
	return link, nil
}

const stampPaymentQuery = `
UPDATE bookings SET
    payment_ref    = COALESCE(NULLIF(payment_ref, ''), $2),
    payment_method = $3,
    updated_at     = now()
WHERE id = $1`

func (r *BookingRepository) StampPayment(ctx context.Context, id uuid.UUID, ref, method string) error {
	_, err := r.db.Exec(ctx, stampPaymentQuery, id, ref, method)
	if err != nil {
		return infra.WrapRepoErr("failed to stamp payment details", err)
	}
	return nil
}

// paymentPatchSources resolves which current statuses the domain allows a
// patch target to overwrite, so the SQL guard and booking.CanPatchTo cannot
// drift apart.
func paymentPatchSources(to booking.PaymentStatus) []string {
	var sources []string
	for _, from := range booking.PaymentStatuses() {
		if from.CanPatchTo(to) {
			sources = append(sources, string(from))
		}
	}
	return sources
}

func (r *BookingRepository) PatchPaymentStatus(ctx context.Context, id uuid.UUID, to booking.PaymentStatus) (bool, error) {
	sources := paymentPatchSources(to)
	if len(sources) == 0 {
		return false, nil
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE bookings SET payment_status = $2, updated_at = now()
		 WHERE id = $1 AND payment_status = ANY($3)`,
		id, string(to), sources,
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to patch payment status", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	err = r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, id).
		Scan(&exists)
	if err != nil {
		return false, infra.WrapRepoErr("failed to check booking existence", err)
	}
	if !exists {
		return false, infra.WrapRepoErr("booking not found", pgx.ErrNoRows)
	}
	return false, nil
}
