package shared

import (
	"context"
	"time"

	"homesit/internal/domain/booking"
	"homesit/internal/domain/points"
	"homesit/internal/infra/db"

	"github.com/google/uuid"
)

// UnitOfWork scopes the guarded write paths. Everything inside Within runs
// in one storage transaction; the CAS on status and the atomic payment
// apply are only correct because of that.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithDB runs single statements on the pool (implicit transactions).
	WithDB(ctx context.Context, fn func(ctx context.Context, db db.DBTX) error) error
	// Reads is direct access to command-side reads outside transactions.
	Reads() CommandReads
}

type Tx interface {
	Bookings() BookingRepository
	Availability() AvailabilityRepository
	Points() PointsRepository
	Conversations() ConversationRepository
	Outbox() OutboxRepository
	Reads() CommandReads
	DB() db.DBTX
}

// StatusPatch is the write applied together with a status CAS. Only fields
// the decided outcome requires are set.
type StatusPatch struct {
	To            booking.Status
	PaymentStatus *booking.PaymentStatus
	PointsAwarded *int64
	Cancellation  *booking.Cancellation
}

type ApplyPaymentResult struct {
	Updated       bool
	AlreadyPaid   bool
	PointsApplied int64
	CashDue       int64
}

type PaymentRefLink struct {
	Linked   bool
	Existing string
}

type BookingRepository interface {
	Create(ctx context.Context, b *booking.Booking) (uuid.UUID, error)
	// UpdateStatusCAS conditions the write on the status read earlier.
	// False means another request won the race.
	UpdateStatusCAS(ctx context.Context, id uuid.UUID, expected booking.Status, patch StatusPatch) (bool, error)
	// BackfillFeeSnapshot fills only null snapshot fields on legacy rows;
	// populated values are never recomputed.
	BackfillFeeSnapshot(ctx context.Context, id uuid.UUID, quote booking.FeeQuote, cashDue int64) error
	// ApplyPayment re-validates payment_status and finalizes in one statement.
	ApplyPayment(ctx context.Context, id uuid.UUID, pointsToApply, cashDue int64) (ApplyPaymentResult, error)
	// LinkPaymentRef sets the external payment reference if unset.
	// First writer wins; a different existing value is reported, not replaced.
	LinkPaymentRef(ctx context.Context, id uuid.UUID, ref string) (PaymentRefLink, error)
	StampPayment(ctx context.Context, id uuid.UUID, ref, method string) error
	// PatchPaymentStatus applies the generic webhook patch, guarded so paid
	// is never downgraded and refunded is never re-applied.
	PatchPaymentStatus(ctx context.Context, id uuid.UUID, to booking.PaymentStatus) (bool, error)
}

type AvailabilityRepository interface {
	SetBooked(ctx context.Context, listingID uuid.UUID, dates booking.DateRange, booked bool) error
}

type PointsRepository interface {
	Append(ctx context.Context, entry points.Entry) error
}

type ConversationRepository interface {
	// Ensure is an idempotent get-or-create for the pair on this listing.
	Ensure(ctx context.Context, listingID, userA, userB uuid.UUID) (uuid.UUID, error)
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error
}

// WebhookEventRepository is the idempotency-key store for inbound payment
// events. Reserve/Release run on the pool, outside any business transaction:
// the dedupe record must be committed before processing starts so a retried
// delivery observes it.
type WebhookEventRepository interface {
	Reserve(ctx context.Context, eventID, eventType string, payload []byte) error
	Release(ctx context.Context, eventID string) error
}

type ListingSnapshot struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
	Title   string
}

type ProfileSnapshot struct {
	ID       uuid.UUID
	FullName string
	Email    string
}

type CommandReads interface {
	BookingByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	ListingByID(ctx context.Context, id uuid.UUID) (*ListingSnapshot, error)
	ProfileByID(ctx context.Context, id uuid.UUID) (*ProfileSnapshot, error)
	PointsEntries(ctx context.Context, userID uuid.UUID) ([]points.Entry, error)
	// HasActiveOverlap is the advisory pre-check; the storage exclusion
	// constraint is the authoritative guard.
	HasActiveOverlap(ctx context.Context, listingID uuid.UUID, dates booking.DateRange) (bool, error)
}
