package queries

import (
	"context"
	"time"

	"homesit/internal/domain/booking"
	"homesit/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrBookingNotFound = errs.New("booking not found")
	ErrForbidden       = errs.New("not a participant of this booking")
)

// BookingView is the read model returned to the API layer. Fee fields come
// from the stored snapshot; legacy rows without one report effective values
// computed with the platform defaults in force at read time.
type BookingView struct {
	ID            uuid.UUID      `json:"id"`
	ListingID     uuid.UUID      `json:"listing_id"`
	ListingTitle  string         `json:"listing_title"`
	SitterID      uuid.UUID      `json:"sitter_id"`
	SitterName    string         `json:"sitter_name"`
	HostID        uuid.UUID      `json:"host_id"`
	HostName      string         `json:"host_name"`
	StartDate     string         `json:"start_date"`
	EndDate       string         `json:"end_date"`
	Nights        int64          `json:"nights"`
	Status        string         `json:"status"`
	PaymentStatus string         `json:"payment_status"`
	PaymentRef    string         `json:"payment_ref,omitempty"`
	Fees          FeeView        `json:"fees"`
	PointsApplied int64          `json:"points_applied"`
	PointsAwarded int64          `json:"points_awarded"`
	InsurancePlan string         `json:"insurance_plan,omitempty"`
	Cancellation  *CancelledView `json:"cancellation,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type FeeView struct {
	ServiceFeePerNight int64 `json:"service_fee_per_night"`
	ServiceFeeTotal    int64 `json:"service_fee_total"`
	CleaningFee        int64 `json:"cleaning_fee"`
	InsuranceCost      int64 `json:"insurance_cost"`
	TotalFee           int64 `json:"total_fee"`
	CashDue            int64 `json:"cash_due"`
}

type CancelledView struct {
	CancelledBy uuid.UUID `json:"cancelled_by"`
	Reason      string    `json:"reason,omitempty"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// ListFilter narrows ListForUser. Role is "sitter", "host" or empty for both.
type ListFilter struct {
	Role     string
	Statuses []booking.Status
	Limit    int32
	Offset   int32
}

// BookingReadStore is the persistence port for booking views.
type BookingReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	ListForUser(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]BookingView, error)
}

type BookingQueries interface {
	// GetByID returns the booking only to its sitter or host.
	GetByID(ctx context.Context, viewerID, bookingID uuid.UUID) (*BookingView, error)
	ListForUser(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]BookingView, error)
}

type bookingQueries struct {
	store BookingReadStore
}

func NewBookingQueries(store BookingReadStore) BookingQueries {
	return &bookingQueries{store: store}
}

func (q *bookingQueries) GetByID(ctx context.Context, viewerID, bookingID uuid.UUID) (*BookingView, error) {
	view, err := q.store.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if view.SitterID != viewerID && view.HostID != viewerID {
		// Hide existence from non-participants.
		return nil, errs.Mark(errs.New("viewer is not sitter or host"), ErrBookingNotFound)
	}
	return view, nil
}

func (q *bookingQueries) ListForUser(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]BookingView, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	return q.store.ListForUser(ctx, userID, filter)
}
