package amc

import (
	"strconv"
	"time"
)

// =============================================================================
// DATE - Calendar day in UTC (billing never cares about time of day)
// =============================================================================

// Date is a calendar day. The zero value means "no date".
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// AddMonths adds n calendar months, clamping to the last day of the target
// month (Jan 31 + 1 month = Feb 28/29, not Mar 3).
func (d Date) AddMonths(n int) Date {
	y, m, day := d.Date()
	total := int(m) - 1 + n
	ty := y + total/12
	tm := total % 12
	if tm < 0 {
		tm += 12
		ty--
	}
	target := time.Month(tm + 1)
	if last := daysIn(ty, target); day > last {
		day = last
	}
	return NewDate(ty, target, day)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// =============================================================================
// INTERVAL - Half-open [From, To)
// =============================================================================

type Interval struct {
	From Date
	To   Date
}

// Overlaps reports whether two half-open intervals share at least one instant.
// Touching intervals ([a,b) and [b,c)) do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.From.Before(other.To) && other.From.Before(iv.To)
}

// Within reports whether iv lies entirely inside outer.
func (iv Interval) Within(outer Interval) bool {
	return iv.From.AfterOrEqual(outer.From) && iv.To.BeforeOrEqual(outer.To)
}

func (iv Interval) String() string {
	return "[" + iv.From.String() + ", " + iv.To.String() + ")"
}

// =============================================================================
// HORIZON - How far period generation runs
// =============================================================================

type HorizonKind int

const (
	// HorizonAsOf includes periods whose start has arrived (from <= date).
	HorizonAsOf HorizonKind = iota
	// HorizonBefore includes periods starting strictly before date. Used for
	// agreement ends: a period starting on the end date is outside the agreement.
	HorizonBefore
	// HorizonThroughYear includes periods starting in or before year.
	HorizonThroughYear
)

// Horizon bounds generation. Build it with AsOf, Before or ThroughYear.
type Horizon struct {
	Kind HorizonKind
	Date Date
	Year int
}

func AsOf(d Date) Horizon          { return Horizon{Kind: HorizonAsOf, Date: d} }
func Before(d Date) Horizon        { return Horizon{Kind: HorizonBefore, Date: d} }
func ThroughYear(year int) Horizon { return Horizon{Kind: HorizonThroughYear, Year: year} }

// Admits reports whether a period starting at from falls inside the horizon.
func (h Horizon) Admits(from Date) bool {
	switch h.Kind {
	case HorizonAsOf:
		return from.BeforeOrEqual(h.Date)
	case HorizonBefore:
		return from.Before(h.Date)
	case HorizonThroughYear:
		return from.Year() <= h.Year
	default:
		return false
	}
}

func (h Horizon) String() string {
	switch h.Kind {
	case HorizonAsOf:
		return "as of " + h.Date.String()
	case HorizonBefore:
		return "before " + h.Date.String()
	case HorizonThroughYear:
		return "through " + strconv.Itoa(h.Year)
	default:
		return "unknown horizon"
	}
}
