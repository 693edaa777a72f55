package amc_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/amc-engine/amc"
)

func d(year int, month time.Month, day int) amc.Date {
	return amc.NewDate(year, month, day)
}

func TestGeneratePeriods_ContiguousForEveryFrequency(t *testing.T) {
	anchors := []amc.Date{
		d(2024, time.January, 1),
		d(2023, time.March, 15),
		d(2024, time.January, 31),
		d(2024, time.February, 29),
	}

	for _, f := range []int{1, 3, 6, 12, 18, 24} {
		for _, anchor := range anchors {
			periods := amc.GeneratePeriods(anchor, f, amc.ThroughYear(2030))
			require.NotEmpty(t, periods, "frequency %d anchor %s", f, anchor)
			assert.True(t, periods[0].From.Equal(anchor))

			for i := range periods {
				assert.True(t, periods[i].From.Before(periods[i].To), "period %s not increasing", periods[i])
				if i > 0 {
					assert.True(t, periods[i-1].To.Equal(periods[i].From),
						"gap between %s and %s (f=%d)", periods[i-1], periods[i], f)
				}
			}
			last := periods[len(periods)-1]
			assert.LessOrEqual(t, last.From.Year(), 2030)
			assert.Greater(t, last.From.AddMonths(f).Year(), 2030)
		}
	}
}

func TestGeneratePeriods_MonthEndDoesNotDrift(t *testing.T) {
	// GIVEN: Monthly billing anchored on Jan 31
	periods := amc.GeneratePeriods(d(2025, time.January, 31), 1, amc.ThroughYear(2025))

	// THEN: Feb clamps to the 28th, March returns to the 31st
	require.Len(t, periods, 12)
	assert.Equal(t, "2025-02-28", periods[1].From.String())
	assert.Equal(t, "2025-03-31", periods[2].From.String())
	assert.Equal(t, "2026-01-31", periods[11].To.String())
}

func TestGeneratePeriods_Horizons(t *testing.T) {
	anchor := d(2024, time.January, 1)

	t.Run("as of includes a period starting today", func(t *testing.T) {
		periods := amc.GeneratePeriods(anchor, 12, amc.AsOf(d(2025, time.January, 1)))
		require.Len(t, periods, 2)
		assert.Equal(t, "[2025-01-01, 2026-01-01)", periods[1].String())
	})

	t.Run("as of excludes a period starting tomorrow", func(t *testing.T) {
		periods := amc.GeneratePeriods(anchor, 12, amc.AsOf(d(2024, time.December, 31)))
		require.Len(t, periods, 1)
	})

	t.Run("before excludes a period starting on the date", func(t *testing.T) {
		periods := amc.GeneratePeriods(anchor, 12, amc.Before(d(2026, time.January, 1)))
		require.Len(t, periods, 2)
		assert.Equal(t, "2026-01-01", periods[1].To.String())
	})

	t.Run("through year", func(t *testing.T) {
		periods := amc.GeneratePeriods(anchor, 6, amc.ThroughYear(2025))
		require.Len(t, periods, 4)
		assert.Equal(t, "2025-07-01", periods[3].From.String())
	})
}

func TestGeneratePeriods_NoAnchor(t *testing.T) {
	assert.Empty(t, amc.GeneratePeriods(amc.Date{}, 12, amc.ThroughYear(2030)))
}

func TestGeneratePeriods_AnchorPastHorizon(t *testing.T) {
	assert.Empty(t, amc.GeneratePeriods(d(2027, time.January, 1), 12, amc.AsOf(d(2026, time.June, 1))))
}

func TestGeneratePeriods_InvalidFrequencyFallsBackToYearly(t *testing.T) {
	periods := amc.GeneratePeriods(d(2024, time.January, 1), 7, amc.ThroughYear(2024))
	require.Len(t, periods, 1)
	assert.Equal(t, "2025-01-01", periods[0].To.String())
}

func TestPaymentsFor_PendingWithSnapshot(t *testing.T) {
	cost := amc.Cost{TotalCost: dec("1000"), RateApplied: dec("15"), RateAmount: dec("150")}
	payments := amc.PaymentsFor(amc.GeneratePeriods(d(2024, time.January, 1), 12, amc.ThroughYear(2025)), cost)

	require.Len(t, payments, 2)
	for _, p := range payments {
		assert.Equal(t, amc.StatusPending, p.Status)
		assert.True(t, p.AMCRateAmount.Equal(dec("150")))
		assert.True(t, p.TotalCost.Equal(dec("1000")))
	}
}

func TestDate_AddMonthsNegative(t *testing.T) {
	assert.Equal(t, "2023-12-31", d(2024, time.January, 31).AddMonths(-1).String())
	assert.Equal(t, "2022-12-15", d(2024, time.January, 15).AddMonths(-13).String())
}

func TestInterval_OverlapIsHalfOpen(t *testing.T) {
	a := amc.Interval{From: d(2024, time.January, 1), To: d(2025, time.January, 1)}
	b := amc.Interval{From: d(2025, time.January, 1), To: d(2026, time.January, 1)}
	c := amc.Interval{From: d(2024, time.June, 1), To: d(2025, time.June, 1)}

	assert.False(t, a.Overlaps(b))
	assert.False(t, b.Overlaps(a))
	assert.True(t, a.Overlaps(c))
}
