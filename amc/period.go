package amc

// =============================================================================
// PAYMENT CYCLE GENERATOR
// =============================================================================

// GeneratePeriods returns the billing periods starting at anchor, each
// frequencyMonths long, for as long as the horizon admits their start date.
//
// Period i is [anchor + i*f, anchor + (i+1)*f). Every boundary is computed from
// the anchor rather than from the previous boundary, so month-end clamping
// never drifts (Jan 31, Feb 28, Mar 31, ...). Periods are contiguous and
// strictly increasing. A zero anchor yields nothing.
func GeneratePeriods(anchor Date, frequencyMonths int, h Horizon) []Interval {
	if anchor.IsZero() {
		return nil
	}
	f := NormalizeFrequency(frequencyMonths)

	var periods []Interval
	for i := 0; ; i++ {
		from := anchor.AddMonths(i * f)
		if !h.Admits(from) {
			break
		}
		periods = append(periods, Interval{From: from, To: anchor.AddMonths((i + 1) * f)})
	}
	return periods
}

// NewPayment builds a pending payment for iv with the given cost snapshot.
func NewPayment(iv Interval, cost Cost) Payment {
	return Payment{
		FromDate:       iv.From,
		ToDate:         iv.To,
		Status:         StatusPending,
		AMCRateApplied: cost.RateApplied,
		AMCRateAmount:  cost.RateAmount,
		TotalCost:      cost.TotalCost,
	}
}

// PaymentsFor turns generated periods into pending payments sharing one cost snapshot.
func PaymentsFor(periods []Interval, cost Cost) []Payment {
	payments := make([]Payment, len(periods))
	for i, iv := range periods {
		payments[i] = NewPayment(iv, cost)
	}
	return payments
}
