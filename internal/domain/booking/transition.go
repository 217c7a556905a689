package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnknownStatus     = errors.New("unrecognized target status")
	ErrSameStatus        = errors.New("booking already in target status")
	ErrTerminalStatus    = errors.New("booking is in a terminal status")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrNotResponder      = errors.New("only the responder may perform this action")
	ErrNotParticipant    = errors.New("not a participant of this booking")
	ErrNotYetEnded       = errors.New("booking has not reached its end date")
	ErrPaymentRequired   = errors.New("booking must be paid before completion")
)

// Event is a requested status change carried out by an actor.
type Event struct {
	Target Status
	Actor  uuid.UUID
	Now    time.Time
	Reason string
}

// Outcome is the decided transition plus the side effects it requires.
// Decide computes it purely; the usecase applies it.
type Outcome struct {
	From Status
	To   Status

	HoldCalendar    bool
	ReleaseCalendar bool

	// Refund of a paid booking on cancel/decline.
	RefundPayment bool
	// Ledger credit back to the payer when spent points are refunded.
	RefundPoints int64
	// Ledger debit from the host when previously awarded points are revoked.
	// Fires only for legacy rows: completed is terminal, so a live booking
	// cannot normally be cancelled after awarding. The guard is kept as is.
	RevokePoints int64
	// Ledger credit to the host on completion; also becomes points_awarded.
	AwardPoints int64

	EnsureConversation bool
	Cancellation       *Cancellation
}

// legal maps each target status to the statuses it may be entered from.
var legal = map[Status][]Status{
	StatusAccepted:  {StatusPending},
	StatusDeclined:  {StatusPending},
	StatusConfirmed: {StatusPending, StatusAccepted},
	StatusCancelled: {StatusPending, StatusAccepted, StatusConfirmed},
	StatusCompleted: {StatusConfirmed, StatusAccepted},
}

// Decide validates a transition request against the current booking state
// and returns the outcome to apply. It never mutates the booking.
func Decide(b *Booking, ev Event) (Outcome, error) {
	if !ev.Target.IsValid() || ev.Target == StatusPending {
		return Outcome{}, ErrUnknownStatus
	}
	if ev.Target == b.status {
		return Outcome{}, ErrSameStatus
	}
	if b.status.IsTerminal() {
		return Outcome{}, fmt.Errorf("%w: already %s", ErrTerminalStatus, b.status)
	}

	if !from(legal[ev.Target], b.status) {
		return Outcome{}, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, b.status, ev.Target)
	}

	if err := authorize(b, ev); err != nil {
		return Outcome{}, err
	}

	out := Outcome{From: b.status, To: ev.Target}
	switch ev.Target {
	case StatusAccepted, StatusConfirmed:
		out.HoldCalendar = true
		out.EnsureConversation = true

	case StatusDeclined, StatusCancelled:
		out.ReleaseCalendar = true
		if b.paymentStatus == PaymentPaid {
			out.RefundPayment = true
			if b.pointsApplied > 0 {
				out.RefundPoints = b.pointsApplied
			}
		}
		if b.pointsAwarded > 0 {
			out.RevokePoints = b.pointsAwarded
		}
		if ev.Target == StatusCancelled {
			out.Cancellation = &Cancellation{By: ev.Actor, At: ev.Now, Reason: ev.Reason}
		}

	case StatusCompleted:
		if !b.dates.Ended(ev.Now) {
			return Outcome{}, ErrNotYetEnded
		}
		if b.paymentStatus != PaymentPaid {
			return Outcome{}, ErrPaymentRequired
		}
		// Read-then-set guard, not an atomic increment: a racing duplicate
		// completion is already excluded by the status CAS.
		if b.pointsAwarded == 0 {
			out.AwardPoints = int64(b.dates.Nights())
		}
	}

	return out, nil
}

func authorize(b *Booking, ev Event) error {
	if !b.IsParticipant(ev.Actor) {
		return ErrNotParticipant
	}

	switch ev.Target {
	case StatusAccepted, StatusDeclined:
		if ev.Actor != b.ResponderID() {
			return ErrNotResponder
		}
	case StatusConfirmed:
		if ev.Actor != b.ResponderID() && !sitterMaySelfConfirm(b, ev.Actor) {
			return ErrNotResponder
		}
	case StatusCancelled, StatusCompleted:
		// Any participant.
	}
	return nil
}

// sitterMaySelfConfirm is a deliberate business carve-out: when insurance
// was selected, the sitter may confirm their own request.
func sitterMaySelfConfirm(b *Booking, actor uuid.UUID) bool {
	return b.insuranceSelected && actor == b.sitterID
}

func from(allowed []Status, current Status) bool {
	for _, s := range allowed {
		if s == current {
			return true
		}
	}
	return false
}
