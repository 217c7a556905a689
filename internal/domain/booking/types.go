package booking

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusDeclined  Status = "declined"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	default:
		return false
	}
}

// Terminal statuses are permanent history; no transition leaves them.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDeclined, StatusCancelled, StatusCompleted:
		return true
	default:
		return false
	}
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

func (p PaymentStatus) String() string {
	return string(p)
}

func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentUnpaid, PaymentPaid, PaymentRefunded:
		return true
	default:
		return false
	}
}

func (p PaymentStatus) rank() int {
	switch p {
	case PaymentUnpaid:
		return 0
	case PaymentPaid:
		return 1
	case PaymentRefunded:
		return 2
	default:
		return -1
	}
}

// CanPatchTo guards the generic webhook status patch: payment status only
// advances one step along unpaid, paid, refunded. A refund can never land on
// a booking that was never paid, and refunded is final.
func (p PaymentStatus) CanPatchTo(next PaymentStatus) bool {
	if !p.IsValid() || !next.IsValid() {
		return false
	}
	return next.rank() == p.rank()+1
}

// PaymentStatuses lists every payment status, in chain order.
func PaymentStatuses() []PaymentStatus {
	return []PaymentStatus{PaymentUnpaid, PaymentPaid, PaymentRefunded}
}

type InsurancePlan string

const (
	InsuranceNone     InsurancePlan = ""
	InsuranceStandard InsurancePlan = "standard"
	InsurancePremium  InsurancePlan = "premium"
)

func (p InsurancePlan) IsValid() bool {
	switch p {
	case InsuranceNone, InsuranceStandard, InsurancePremium:
		return true
	default:
		return false
	}
}
