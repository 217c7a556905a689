// Package points models the loyalty-points ledger: an append-only record of
// signed deltas per user. There is no stored balance; the balance is always
// derived by summing the ledger and clamping at zero. Corrections are made
// with compensating entries, never by mutating history.
package points

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Reason string

const (
	// ReasonAward credits the host one point per night on completion.
	ReasonAward Reason = "award"
	// ReasonSpend debits the payer when points are applied to a payment.
	ReasonSpend Reason = "spend"
	// ReasonRefund credits spent points back on cancel/decline of a paid booking.
	ReasonRefund Reason = "refund"
	// ReasonRevoke debits previously awarded points on cancel/decline.
	ReasonRevoke Reason = "revoke"
)

func (r Reason) IsValid() bool {
	switch r {
	case ReasonAward, ReasonSpend, ReasonRefund, ReasonRevoke:
		return true
	default:
		return false
	}
}

var ErrInvalidReason = errors.New("invalid ledger reason")

type Entry struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	BookingID uuid.UUID
	Delta     int64
	Reason    Reason
	CreatedAt time.Time
}

func NewEntry(userID, bookingID uuid.UUID, delta int64, reason Reason) (Entry, error) {
	if !reason.IsValid() {
		return Entry{}, ErrInvalidReason
	}
	return Entry{
		ID:        uuid.New(),
		UserID:    userID,
		BookingID: bookingID,
		Delta:     delta,
		Reason:    reason,
	}, nil
}

// Balance derives a user's spendable balance from their ledger entries.
// The sum is clamped at zero so data issues never produce a negative balance.
func Balance(entries []Entry) int64 {
	var sum int64
	for _, e := range entries {
		sum += e.Delta
	}
	if sum < 0 {
		return 0
	}
	return sum
}

// ClampSpend bounds a requested points spend. Points are denominated in
// nights (one point is worth one night's service fee), so a spend can never
// exceed the booking's night count nor the payer's balance.
func ClampSpend(requested, balance int64, nights int) int64 {
	if requested < 0 {
		return 0
	}
	max := balance
	if n := int64(nights); n < max {
		max = n
	}
	if requested > max {
		return max
	}
	return requested
}
