package booking

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrStartInPast           = errors.New("start date cannot be in the past")
	ErrOwnListing            = errors.New("cannot book your own listing")
	ErrInvalidPlan           = errors.New("unknown insurance plan")
	ErrNotFound              = errors.New("booking not found")
	ErrPaymentRefWouldChange = errors.New("payment reference already set to a different value")
)

type Cancellation struct {
	By     uuid.UUID
	At     time.Time
	Reason string
}

// Booking is one engagement ("sit") between a listing and a sitter over a
// date range. Fields are unexported; all mutation goes through Decide and
// the repository's guarded writes.
type Booking struct {
	id            uuid.UUID
	listingID     uuid.UUID
	sitterID      uuid.UUID
	hostID        uuid.UUID
	requestedBy   uuid.UUID
	dates         DateRange
	status        Status
	paymentStatus PaymentStatus
	paymentRef    string
	paymentMethod string
	fees          FeeSnapshot
	pointsApplied int64
	pointsAwarded int64

	insuranceSelected bool
	insurancePlan     InsurancePlan

	cancellation *Cancellation
	createdAt    time.Time
	updatedAt    time.Time
}

func NewBooking(
	listingID, sitterID, hostID, requestedBy uuid.UUID,
	dates DateRange,
	rates Rates,
	insurancePlan InsurancePlan,
	today time.Time,
) (*Booking, error) {
	if sitterID == hostID {
		return nil, ErrOwnListing
	}
	if dates.Start().Before(truncateToDate(today)) {
		return nil, ErrStartInPast
	}
	if !insurancePlan.IsValid() {
		return nil, ErrInvalidPlan
	}
	if insurancePlan == InsuranceNone {
		rates.InsuranceCost = 0
	}

	quote := CalculateFees(dates, rates)
	fees := SnapshotFromQuote(quote)
	cashDue := quote.TotalFee
	fees.CashDue = &cashDue

	return &Booking{
		id:                uuid.New(),
		listingID:         listingID,
		sitterID:          sitterID,
		hostID:            hostID,
		requestedBy:       requestedBy,
		dates:             dates,
		status:            StatusPending,
		paymentStatus:     PaymentUnpaid,
		fees:              fees,
		insuranceSelected: insurancePlan != InsuranceNone,
		insurancePlan:     insurancePlan,
	}, nil
}

func Reconstruct(
	id, listingID, sitterID, hostID, requestedBy uuid.UUID,
	dates DateRange,
	status Status,
	paymentStatus PaymentStatus,
	paymentRef, paymentMethod string,
	fees FeeSnapshot,
	pointsApplied, pointsAwarded int64,
	insuranceSelected bool,
	insurancePlan InsurancePlan,
	cancellation *Cancellation,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:                id,
		listingID:         listingID,
		sitterID:          sitterID,
		hostID:            hostID,
		requestedBy:       requestedBy,
		dates:             dates,
		status:            status,
		paymentStatus:     paymentStatus,
		paymentRef:        paymentRef,
		paymentMethod:     paymentMethod,
		fees:              fees,
		pointsApplied:     pointsApplied,
		pointsAwarded:     pointsAwarded,
		insuranceSelected: insuranceSelected,
		insurancePlan:     insurancePlan,
		cancellation:      cancellation,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// RequesterID is the party who initiated the booking. Legacy rows predate
// the requested_by column; for those the sitter is assumed.
func (b *Booking) RequesterID() uuid.UUID {
	if b.requestedBy != uuid.Nil {
		return b.requestedBy
	}
	return b.sitterID
}

// ResponderID is the counterparty who must answer pending requests.
func (b *Booking) ResponderID() uuid.UUID {
	if b.RequesterID() == b.sitterID {
		return b.hostID
	}
	return b.sitterID
}

func (b *Booking) IsParticipant(userID uuid.UUID) bool {
	return userID == b.sitterID || userID == b.hostID
}

// Quote recomputes the fee line items from the stored snapshot, falling back
// to defaults only for legacy nulls.
func (b *Booking) Quote(defaults Rates) FeeQuote {
	rates := b.fees.EffectiveRates(defaults)
	if !b.insuranceSelected && b.fees.InsuranceCost == nil {
		rates.InsuranceCost = 0
	}
	return CalculateFees(b.dates, rates)
}

func (b *Booking) ID() uuid.UUID                { return b.id }
func (b *Booking) ListingID() uuid.UUID         { return b.listingID }
func (b *Booking) SitterID() uuid.UUID          { return b.sitterID }
func (b *Booking) HostID() uuid.UUID            { return b.hostID }
func (b *Booking) RequestedBy() uuid.UUID       { return b.requestedBy }
func (b *Booking) Dates() DateRange             { return b.dates }
func (b *Booking) Status() Status               { return b.status }
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }
func (b *Booking) PaymentRef() string           { return b.paymentRef }
func (b *Booking) PaymentMethod() string        { return b.paymentMethod }
func (b *Booking) Fees() FeeSnapshot            { return b.fees }
func (b *Booking) PointsApplied() int64         { return b.pointsApplied }
func (b *Booking) PointsAwarded() int64         { return b.pointsAwarded }
func (b *Booking) InsuranceSelected() bool      { return b.insuranceSelected }
func (b *Booking) InsurancePlan() InsurancePlan { return b.insurancePlan }
func (b *Booking) Cancellation() *Cancellation  { return b.cancellation }
func (b *Booking) CreatedAt() time.Time         { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time         { return b.updatedAt }
