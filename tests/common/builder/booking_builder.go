//go:build unit || e2e

package builder

import (
	"time"

	dombooking "homesit/internal/domain/booking"
	reqdto "homesit/internal/handler/dto/request"
	"homesit/internal/usecase/queries"

	"github.com/google/uuid"
)

type BookingBuilder struct {
	ID            uuid.UUID
	ListingID     uuid.UUID
	SitterID      uuid.UUID
	HostID        uuid.UUID
	RequestedBy   uuid.UUID
	Start         time.Time
	End           time.Time
	Status        dombooking.Status
	PaymentStatus dombooking.PaymentStatus
	PaymentRef    string
	Rates         dombooking.Rates
	LegacyFees    bool
	PointsApplied int64
	PointsAwarded int64
	InsurancePlan dombooking.InsurancePlan
	Cancellation  *dombooking.Cancellation
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewBookingBuilder() *BookingBuilder {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	sitterID := uuid.New()
	return &BookingBuilder{
		ID:            uuid.New(),
		ListingID:     uuid.New(),
		SitterID:      sitterID,
		HostID:        uuid.New(),
		RequestedBy:   sitterID,
		Start:         now.AddDate(0, 0, 7),
		End:           now.AddDate(0, 0, 10),
		Status:        dombooking.StatusPending,
		PaymentStatus: dombooking.PaymentUnpaid,
		Rates: dombooking.Rates{
			ServiceFeePerNight: 1000,
			CleaningFee:        2000,
		},
		InsurancePlan: dombooking.InsuranceNone,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (b *BookingBuilder) With(mutate func(*BookingBuilder)) *BookingBuilder {
	mutate(b)
	return b
}

func (b *BookingBuilder) Dates() dombooking.DateRange {
	dates, err := dombooking.NewDateRange(b.Start, b.End)
	if err != nil {
		panic("builder produced invalid date range: " + err.Error())
	}
	return dates
}

// BuildDomain reconstructs a booking in an arbitrary lifecycle state.
func (b *BookingBuilder) BuildDomain() *dombooking.Booking {
	dates := b.Dates()

	var fees dombooking.FeeSnapshot
	if !b.LegacyFees {
		fees = dombooking.SnapshotFromQuote(dombooking.CalculateFees(dates, b.Rates))
		cashDue := *fees.TotalFee - b.PointsApplied*b.Rates.ServiceFeePerNight
		fees.CashDue = &cashDue
	}

	return dombooking.Reconstruct(
		b.ID, b.ListingID, b.SitterID, b.HostID, b.RequestedBy,
		dates,
		b.Status,
		b.PaymentStatus,
		b.PaymentRef, "",
		fees,
		b.PointsApplied, b.PointsAwarded,
		b.InsurancePlan != dombooking.InsuranceNone,
		b.InsurancePlan,
		b.Cancellation,
		b.CreatedAt, b.UpdatedAt,
	)
}

// BuildNew runs the real constructor, exercising creation-time validation.
func (b *BookingBuilder) BuildNew(today time.Time) (*dombooking.Booking, error) {
	return dombooking.NewBooking(
		b.ListingID, b.SitterID, b.HostID, b.RequestedBy,
		b.Dates(), b.Rates, b.InsurancePlan, today,
	)
}

func (b *BookingBuilder) BuildCreateRequestDTO() reqdto.CreateBookingRequest {
	return reqdto.CreateBookingRequest{
		ListingID:     b.ListingID,
		StartDate:     b.Start.Format("2006-01-02"),
		EndDate:       b.End.Format("2006-01-02"),
		InsurancePlan: string(b.InsurancePlan),
	}
}

func (b *BookingBuilder) BuildView() *queries.BookingView {
	dates := b.Dates()
	quote := dombooking.CalculateFees(dates, b.Rates)
	return &queries.BookingView{
		ID:            b.ID,
		ListingID:     b.ListingID,
		ListingTitle:  "Cosy canal house",
		SitterID:      b.SitterID,
		SitterName:    "Sam Sitter",
		HostID:        b.HostID,
		HostName:      "Harriet Host",
		StartDate:     dates.StartString(),
		EndDate:       dates.EndString(),
		Nights:        int64(dates.Nights()),
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
		Fees: queries.FeeView{
			ServiceFeePerNight: quote.ServiceFeePerNight,
			ServiceFeeTotal:    quote.ServiceFeeTotal,
			CleaningFee:        quote.CleaningFee,
			InsuranceCost:      quote.InsuranceCost,
			TotalFee:           quote.TotalFee,
			CashDue:            quote.TotalFee - b.PointsApplied*quote.ServiceFeePerNight,
		},
		PointsApplied: b.PointsApplied,
		PointsAwarded: b.PointsAwarded,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

// Fluent builder methods
func (b *BookingBuilder) WithStatus(s dombooking.Status) *BookingBuilder {
	b.Status = s
	return b
}

func (b *BookingBuilder) WithPaymentStatus(s dombooking.PaymentStatus) *BookingBuilder {
	b.PaymentStatus = s
	return b
}

func (b *BookingBuilder) WithDates(start, end time.Time) *BookingBuilder {
	b.Start = start
	b.End = end
	return b
}

func (b *BookingBuilder) WithSitterID(id uuid.UUID) *BookingBuilder {
	b.SitterID = id
	return b
}

func (b *BookingBuilder) WithHostID(id uuid.UUID) *BookingBuilder {
	b.HostID = id
	return b
}

func (b *BookingBuilder) WithRequestedBy(id uuid.UUID) *BookingBuilder {
	b.RequestedBy = id
	return b
}

func (b *BookingBuilder) WithInsurancePlan(plan dombooking.InsurancePlan) *BookingBuilder {
	b.InsurancePlan = plan
	return b
}

func (b *BookingBuilder) WithPointsApplied(n int64) *BookingBuilder {
	b.PointsApplied = n
	return b
}

func (b *BookingBuilder) WithPointsAwarded(n int64) *BookingBuilder {
	b.PointsAwarded = n
	return b
}

func (b *BookingBuilder) AsLegacyFees() *BookingBuilder {
	b.LegacyFees = true
	return b
}

// AsHostRequested flips the requester so the sitter becomes the responder.
func (b *BookingBuilder) AsHostRequested() *BookingBuilder {
	b.RequestedBy = b.HostID
	return b
}
