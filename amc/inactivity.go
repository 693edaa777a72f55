package amc

import "time"

// =============================================================================
// INACTIVITY RECONCILER
// =============================================================================

// InactiveIntervals derives the windows during which the order was inactive.
//
// An active->inactive log opens a window and the next inactive->active log
// closes it. A window still open at the end of the logs runs until now. A
// second inactive log arriving while a window is open closes the open window
// at now and opens a new one; malformed histories never produce an error.
func InactiveIntervals(logs []StatusLog, now time.Time) []Interval {
	end := DateOf(now)

	var (
		intervals []Interval
		open      *Date
	)
	for _, log := range logs {
		at := DateOf(log.Date)
		switch log.To {
		case OrderInactive:
			if open != nil {
				intervals = append(intervals, Interval{From: *open, To: end})
			}
			start := at
			open = &start
		case OrderActive:
			if open == nil {
				continue
			}
			intervals = append(intervals, Interval{From: *open, To: at})
			open = nil
		}
	}
	if open != nil {
		intervals = append(intervals, Interval{From: *open, To: end})
	}
	return intervals
}

// ReconciledPeriod is a generated period that survived reconciliation.
type ReconciledPeriod struct {
	Interval
	// Index is the position in the generated sequence before any drop.
	Index int
	// IsInactive is always false for emitted periods: fully inactive periods
	// are dropped and partially inactive ones bill in full.
	IsInactive bool
	// PartiallyInactive marks a billed period that straddles an inactivity
	// boundary (prepaid or reactivation period).
	PartiallyInactive bool
}

// Reconcile drops periods lying entirely inside an inactive window and keeps
// the rest in order. Touching a window boundary is not an overlap.
func Reconcile(periods []Interval, logs []StatusLog, now time.Time) []ReconciledPeriod {
	inactive := InactiveIntervals(logs, now)

	out := make([]ReconciledPeriod, 0, len(periods))
	for i, p := range periods {
		dropped, partial := false, false
		for _, w := range inactive {
			if !p.Overlaps(w) {
				continue
			}
			if p.Within(w) {
				dropped = true
				break
			}
			partial = true
		}
		if dropped {
			continue
		}
		out = append(out, ReconciledPeriod{Interval: p, Index: i, PartiallyInactive: partial})
	}
	return out
}
