package booking

// Rates are the inputs to the fee computation, in minor currency units.
type Rates struct {
	ServiceFeePerNight int64
	CleaningFee        int64
	InsuranceCost      int64
}

// FeeQuote is the pure output of the fee computation.
type FeeQuote struct {
	Nights             int
	ServiceFeePerNight int64
	CleaningFee        int64
	ServiceFeeTotal    int64
	InsuranceCost      int64
	TotalFee           int64
}

// CalculateFees is pure: dates + rates in, line items and total out.
// After creation it must be fed the booking's stored snapshot rates, never
// the current platform defaults, so a pricing change cannot retroactively
// alter an existing booking's total.
func CalculateFees(dates DateRange, rates Rates) FeeQuote {
	nights := dates.Nights()
	serviceFeeTotal := int64(nights) * rates.ServiceFeePerNight
	return FeeQuote{
		Nights:             nights,
		ServiceFeePerNight: rates.ServiceFeePerNight,
		CleaningFee:        rates.CleaningFee,
		ServiceFeeTotal:    serviceFeeTotal,
		InsuranceCost:      rates.InsuranceCost,
		TotalFee:           serviceFeeTotal + rates.CleaningFee + rates.InsuranceCost,
	}
}

// FeeSnapshot holds the rate and total fields captured at creation.
// Nil fields only exist on legacy rows; they are backfilled once and then
// pinned forever.
type FeeSnapshot struct {
	ServiceFeePerNight *int64
	CleaningFee        *int64
	ServiceFeeTotal    *int64
	InsuranceCost      *int64
	TotalFee           *int64
	CashDue            *int64
}

// EffectiveRates resolves the rates for a fee computation: stored snapshot
// values win, defaults fill legacy nulls.
func (s FeeSnapshot) EffectiveRates(defaults Rates) Rates {
	r := defaults
	if s.ServiceFeePerNight != nil {
		r.ServiceFeePerNight = *s.ServiceFeePerNight
	}
	if s.CleaningFee != nil {
		r.CleaningFee = *s.CleaningFee
	}
	if s.InsuranceCost != nil {
		r.InsuranceCost = *s.InsuranceCost
	}
	return r
}

// NeedsBackfill reports whether any snapshot field is still null.
func (s FeeSnapshot) NeedsBackfill() bool {
	return s.ServiceFeePerNight == nil ||
		s.CleaningFee == nil ||
		s.ServiceFeeTotal == nil ||
		s.InsuranceCost == nil ||
		s.TotalFee == nil
}

func SnapshotFromQuote(q FeeQuote) FeeSnapshot {
	return FeeSnapshot{
		ServiceFeePerNight: &q.ServiceFeePerNight,
		CleaningFee:        &q.CleaningFee,
		ServiceFeeTotal:    &q.ServiceFeeTotal,
		InsuranceCost:      &q.InsuranceCost,
		TotalFee:           &q.TotalFee,
	}
}
