package readstore

import (
	"context"
	"fmt"
	"time"

	"homesit/internal/domain/booking"
	"homesit/internal/infra"
	"homesit/internal/infra/db"
	"homesit/internal/pkg/config"
	"homesit/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BookingReadStore shapes booking rows into API views. Platform defaults
// fill fee fields on legacy rows whose snapshot was never stored.
type BookingReadStore struct {
	db       db.DBTX
	defaults config.PaymentConfig
}

func NewBookingReadStore(dbtx db.DBTX, defaults config.PaymentConfig) *BookingReadStore {
	return &BookingReadStore{db: dbtx, defaults: defaults}
}

const bookingViewColumns = `
    b.id, b.listing_id, l.title, b.sitter_id, sp.full_name, b.host_id, hp.full_name,
    b.start_date, b.end_date, b.status, b.payment_status, b.payment_ref,
    b.service_fee_per_night, b.cleaning_fee, b.service_fee_total,
    b.insurance_cost, b.total_fee, b.cash_due,
    b.points_applied, b.points_awarded, b.insurance_selected, b.insurance_plan,
    b.cancelled_by, b.cancelled_at, b.cancellation_reason,
    b.created_at, b.updated_at`

const bookingViewFrom = `
FROM bookings b
JOIN listings l ON l.id = b.listing_id
JOIN profiles sp ON sp.id = b.sitter_id
JOIN profiles hp ON hp.id = b.host_id`

func (s *BookingReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	row := s.db.QueryRow(ctx,
		`SELECT`+bookingViewColumns+bookingViewFrom+` WHERE b.id = $1`, id)
	view, err := s.scanView(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find booking view", err)
	}
	return view, nil
}

func (s *BookingReadStore) ListForUser(ctx context.Context, userID uuid.UUID, filter queries.ListFilter) ([]queries.BookingView, error) {
	where := `(b.sitter_id = $1 OR b.host_id = $1)`
	switch filter.Role {
	case "sitter":
		where = `b.sitter_id = $1`
	case "host":
		where = `b.host_id = $1`
	}

	args := []any{userID}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, st := range filter.Statuses {
			statuses = append(statuses, string(st))
		}
		args = append(args, statuses)
		where += ` AND b.status = ANY($2)`
	}

	query := `SELECT` + bookingViewColumns + bookingViewFrom +
		` WHERE ` + where +
		` ORDER BY b.created_at DESC` +
		` LIMIT ` + placeholder(len(args)+1) + ` OFFSET ` + placeholder(len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bookings", err)
	}
	defer rows.Close()

	views := make([]queries.BookingView, 0)
	for rows.Next() {
		view, err := s.scanView(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking view", err)
		}
		views = append(views, *view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read bookings", err)
	}
	return views, nil
}

func (s *BookingReadStore) scanView(row pgx.Row) (*queries.BookingView, error) {
	var (
		view                      queries.BookingView
		startDate, endDate        time.Time
		paymentRef, insurancePlan *string
		fees                      booking.FeeSnapshot
		insuranceSelected         bool
		cancelledBy               *uuid.UUID
		cancelledAt               *time.Time
		cancelReason              *string
	)

	err := row.Scan(
		&view.ID, &view.ListingID, &view.ListingTitle,
		&view.SitterID, &view.SitterName, &view.HostID, &view.HostName,
		&startDate, &endDate, &view.Status, &view.PaymentStatus, &paymentRef,
		&fees.ServiceFeePerNight, &fees.CleaningFee, &fees.ServiceFeeTotal,
		&fees.InsuranceCost, &fees.TotalFee, &fees.CashDue,
		&view.PointsApplied, &view.PointsAwarded, &insuranceSelected, &insurancePlan,
		&cancelledBy, &cancelledAt, &cancelReason,
		&view.CreatedAt, &view.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	dates, err := booking.NewDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	view.StartDate = dates.StartString()
	view.EndDate = dates.EndString()
	view.Nights = int64(dates.Nights())

	if paymentRef != nil {
		view.PaymentRef = *paymentRef
	}
	if insurancePlan != nil {
		view.InsurancePlan = *insurancePlan
	}
	view.Fees = s.feeView(dates, fees, insuranceSelected)

	if cancelledBy != nil && cancelledAt != nil {
		cancelled := &queries.CancelledView{CancelledBy: *cancelledBy, CancelledAt: *cancelledAt}
		if cancelReason != nil {
			cancelled.Reason = *cancelReason
		}
		view.Cancellation = cancelled
	}
	return &view, nil
}

func (s *BookingReadStore) feeView(dates booking.DateRange, fees booking.FeeSnapshot, insuranceSelected bool) queries.FeeView {
	rates := fees.EffectiveRates(booking.Rates{
		ServiceFeePerNight: s.defaults.ServiceFeePerNightCents,
		CleaningFee:        s.defaults.CleaningFeeCents,
	})
	if !insuranceSelected && fees.InsuranceCost == nil {
		rates.InsuranceCost = 0
	}
	quote := booking.CalculateFees(dates, rates)

	cashDue := quote.TotalFee
	if fees.CashDue != nil {
		cashDue = *fees.CashDue
	}
	return queries.FeeView{
		ServiceFeePerNight: quote.ServiceFeePerNight,
		ServiceFeeTotal:    quote.ServiceFeeTotal,
		CleaningFee:        quote.CleaningFee,
		InsuranceCost:      quote.InsuranceCost,
		TotalFee:           quote.TotalFee,
		CashDue:            cashDue,
	}
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}
