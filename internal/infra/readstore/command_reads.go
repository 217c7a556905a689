// Package readstore holds the query-side stores: command reads that
// reconstruct domain entities for decisions, and view stores that shape rows
// for the API.
package readstore

import (
	"context"
	"time"

	"homesit/internal/domain/booking"
	"homesit/internal/domain/points"
	"homesit/internal/infra"
	"homesit/internal/infra/db"
	"homesit/internal/usecase/shared"

	"github.com/google/uuid"
)

type CommandReads struct {
	db db.DBTX
}

func NewCommandReads(dbtx db.DBTX) *CommandReads {
	return &CommandReads{db: dbtx}
}

const bookingByIDQuery = `
SELECT
    id, listing_id, sitter_id, host_id, requested_by,
    start_date, end_date, status, payment_status,
    payment_ref, payment_method,
    service_fee_per_night, cleaning_fee, service_fee_total,
    insurance_cost, total_fee, cash_due,
    points_applied, points_awarded,
    insurance_selected, insurance_plan,
    cancelled_by, cancelled_at, cancellation_reason,
    created_at, updated_at
FROM bookings
WHERE id = $1`

func (r *CommandReads) BookingByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	var (
		bookingID, listingID, sitterID, hostID uuid.UUID
		requestedBy                            *uuid.UUID
		startDate, endDate                     time.Time
		status, paymentStatus                  string
		paymentRef, paymentMethod              *string
		fees                                   booking.FeeSnapshot
		pointsApplied, pointsAwarded           int64
		insuranceSelected                      bool
		insurancePlan                          *string
		cancelledBy                            *uuid.UUID
		cancelledAt                            *time.Time
		cancelReason                           *string
		createdAt, updatedAt                   time.Time
	)

	err := r.db.QueryRow(ctx, bookingByIDQuery, id).Scan(
		&bookingID, &listingID, &sitterID, &hostID, &requestedBy,
		&startDate, &endDate, &status, &paymentStatus,
		&paymentRef, &paymentMethod,
		&fees.ServiceFeePerNight, &fees.CleaningFee, &fees.ServiceFeeTotal,
		&fees.InsuranceCost, &fees.TotalFee, &fees.CashDue,
		&pointsApplied, &pointsAwarded,
		&insuranceSelected, &insurancePlan,
		&cancelledBy, &cancelledAt, &cancelReason,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find booking", err)
	}

	dates, err := booking.NewDateRange(startDate, endDate)
	if err != nil {
		return nil, infra.WrapRepoErr("stored booking has invalid dates", err)
	}

	var cancellation *booking.Cancellation
	if cancelledBy != nil && cancelledAt != nil {
		cancellation = &booking.Cancellation{By: *cancelledBy, At: *cancelledAt}
		if cancelReason != nil {
			cancellation.Reason = *cancelReason
		}
	}

	return booking.Reconstruct(
		bookingID, listingID, sitterID, hostID, deref(requestedBy, uuid.Nil),
		dates,
		booking.Status(status),
		booking.PaymentStatus(paymentStatus),
		deref(paymentRef, ""), deref(paymentMethod, ""),
		fees,
		pointsApplied, pointsAwarded,
		insuranceSelected,
		booking.InsurancePlan(deref(insurancePlan, "")),
		cancellation,
		createdAt, updatedAt,
	), nil
}

func (r *CommandReads) ListingByID(ctx context.Context, id uuid.UUID) (*shared.ListingSnapshot, error) {
	var snap shared.ListingSnapshot
	err := r.db.QueryRow(ctx,
		`SELECT id, owner_id, title FROM listings WHERE id = $1`, id).
		Scan(&snap.ID, &snap.OwnerID, &snap.Title)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find listing", err)
	}
	return &snap, nil
}

func (r *CommandReads) ProfileByID(ctx context.Context, id uuid.UUID) (*shared.ProfileSnapshot, error) {
	var snap shared.ProfileSnapshot
	err := r.db.QueryRow(ctx,
		`SELECT id, full_name, email FROM profiles WHERE id = $1`, id).
		Scan(&snap.ID, &snap.FullName, &snap.Email)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find profile", err)
	}
	return &snap, nil
}

const pointsEntriesQuery = `
SELECT id, user_id, booking_id, delta, reason, created_at
FROM points_ledger
WHERE user_id = $1
ORDER BY created_at DESC`

func (r *CommandReads) PointsEntries(ctx context.Context, userID uuid.UUID) ([]points.Entry, error) {
	rows, err := r.db.Query(ctx, pointsEntriesQuery, userID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list ledger entries", err)
	}
	defer rows.Close()

	var entries []points.Entry
	for rows.Next() {
		var e points.Entry
		var reason string
		if err := rows.Scan(&e.ID, &e.UserID, &e.BookingID, &e.Delta, &reason, &e.CreatedAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan ledger entry", err)
		}
		e.Reason = points.Reason(reason)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read ledger entries", err)
	}
	return entries, nil
}

// hasActiveOverlapQuery mirrors the exclusion constraint: any non-terminal
// booking whose half-open range intersects blocks the dates. This pre-check
// gives a friendly error; the constraint is the authoritative guard.
const hasActiveOverlapQuery = `
SELECT EXISTS (
    SELECT 1 FROM bookings
    WHERE listing_id = $1
      AND status NOT IN ('declined', 'cancelled', 'completed')
      AND start_date < $3
      AND end_date > $2
)`

func (r *CommandReads) HasActiveOverlap(ctx context.Context, listingID uuid.UUID, dates booking.DateRange) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, hasActiveOverlapQuery, listingID, dates.Start(), dates.End()).
		Scan(&exists)
	if err != nil {
		return false, infra.WrapRepoErr("failed to check date overlap", err)
	}
	return exists, nil
}

func deref[T any](p *T, fallback T) T {
	if p != nil {
		return *p
	}
	return fallback
}
