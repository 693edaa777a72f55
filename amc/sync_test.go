package amc_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/amc-engine/amc"
	"github.com/warp/amc-engine/amc/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type fixture struct {
	ctx   context.Context
	store *store.Memory
	sync  *amc.Synchronizer
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	mem := store.NewMemory()
	s := amc.NewSynchronizer(mem, nil)
	s.Now = func() time.Time { return now }
	ids := 0
	s.NewID = func() string { ids++; return fmt.Sprintf("amc-gen-%d", ids) }
	return &fixture{ctx: context.Background(), store: mem, sync: s}
}

func timePtr(t time.Time) *time.Time { return &t }

// yearlyOrder creates client + order billed every 12 months at 15% of 1000.
func (f *fixture) yearlyOrder(t *testing.T, id string, start time.Time) *amc.Order {
	t.Helper()
	return f.orderEvery(t, id, 12, start)
}

func (f *fixture) orderEvery(t *testing.T, id string, months int, start time.Time) *amc.Order {
	t.Helper()
	require.NoError(t, f.store.SaveClient(f.ctx, amc.Client{ID: "client-" + id, AMCFrequencyInMonths: months}))
	order := amc.Order{
		ID:           id,
		ClientID:     "client-" + id,
		AMCStartDate: timePtr(start),
		BaseCost:     decp("1000"),
		AMCRate:      amc.Rate{Percentage: decp("15")},
	}
	require.NoError(t, f.store.SaveOrder(f.ctx, order))
	return &order
}

func (f *fixture) amcFor(t *testing.T, id string, order *amc.Order, payments ...amc.Payment) {
	t.Helper()
	require.NoError(t, f.store.SaveAMC(f.ctx, amc.AMC{
		ID:       id,
		OrderID:  order.ID,
		ClientID: order.ClientID,
		Payments: payments,
	}))
}

func (f *fixture) payments(t *testing.T, amcID string) []amc.Payment {
	t.Helper()
	a, err := f.store.GetAMC(f.ctx, amcID)
	require.NoError(t, err)
	require.NotNil(t, a)
	return a.Payments
}

// =============================================================================
// DUE CHECK
// =============================================================================

func TestDueCheck_AppendsPeriodOnceStarted(t *testing.T) {
	// GIVEN: Paid [2024-01-01, 2025-01-01), today 2025-02-01, no agreement
	f := newFixture(t, at(2025, time.February, 1))
	order := f.yearlyOrder(t, "o1", at(2024, time.January, 1))
	f.amcFor(t, "a1", order, paidPayment(d(2024, time.January, 1), "150"))

	// WHEN
	result, err := f.sync.RunDueCheck(f.ctx)

	// THEN: Exactly one pending period [2025-01-01, 2026-01-01)
	require.NoError(t, err)
	assert.Equal(t, amc.DueCheckResult{Processed: 1, Updated: 1, NewPaymentsAdded: 1}, result)

	payments := f.payments(t, "a1")
	require.Len(t, payments, 2)
	assert.Equal(t, "[2025-01-01, 2026-01-01)", payments[1].Interval().String())
	assert.Equal(t, amc.StatusPending, payments[1].Status)
	assert.Equal(t, "150", payments[1].AMCRateAmount.String())

	a, err := f.store.GetAMC(f.ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "150", a.Amount.String())
	assert.Equal(t, "1000", a.TotalCost.String())
}

func TestDueCheck_AgreementGeneratesAhead(t *testing.T) {
	// GIVEN: Agreement through 2026-01-01, today 2024-10-01
	f := newFixture(t, at(2024, time.October, 1))
	order := f.yearlyOrder(t, "o1", at(2024, time.January, 1))
	order.Agreements = []amc.Agreement{{Start: d(2024, time.January, 1), End: d(2026, time.January, 1)}}
	require.NoError(t, f.store.SaveOrder(f.ctx, *order))
	f.amcFor(t, "a1", order, paidPayment(d(2024, time.January, 1), "150"))

	// WHEN
	result, err := f.sync.RunDueCheck(f.ctx)

	// THEN: The 2025 period exists although it has not started yet
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	payments := f.payments(t, "a1")
	require.Len(t, payments, 2)
	assert.Equal(t, "[2025-01-01, 2026-01-01)", payments[1].Interval().String())

	// AND: A second run finds nothing due, the agreement is covered
	result, err = f.sync.RunDueCheck(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, amc.DueCheckResult{Processed: 1, Skipped: 1}, result)
	assert.Len(t, f.payments(t, "a1"), 2)
}

func TestDueCheck_SkipsWhileCurrentPeriodRuns(t *testing.T) {
	f := newFixture(t, at(2024, time.December, 31))
	order := f.yearlyOrder(t, "o1", at(2024, time.January, 1))
	f.amcFor(t, "a1", order, paidPayment(d(2024, time.January, 1), "150"))

	result, err := f.sync.RunDueCheck(f.ctx)

	require.NoError(t, err)
	assert.Equal(t, amc.DueCheckResult{Processed: 1, Skipped: 1}, result)
}

func TestDueCheck_DueExactlyToday(t *testing.T) {
	f := newFixture(t, time.Date(2025, time.January, 1, 9, 30, 0, 0, time.UTC))
	order := f.yearlyOrder(t, "o1", at(2024, time.January, 1))
	f.amcFor(t, "a1", order, paidPayment(d(2024, time.January, 1), "150"))

	result, err := f.sync.RunDueCheck(f.ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, result.NewPaymentsAdded, "a period starting today is due")
}

func TestDueCheck_CatchesUpSeveralPeriods(t *testing.T) {
	// GIVEN: Nothing generated for three years
	f := newFixture(t, at(2027, time.March, 1))
	order := f.yearlyOrder(t, "o1", at(2024, time.January, 1))
	f.amcFor(t, "a1", order, paidPayment(d(2024, time.January, 1), "150"))

	result, err := f.sync.RunDueCheck(f.ctx)

	require.NoError(t, err)
	assert.Equal(t, 3, result.NewPaymentsAdded)
	payments := f.payments(t, "a1")
	for i := 1; i < len(payments); i++ {
		assert.True(t, payments[i-1].ToDate.Equal(payments[i].FromDate))
	}
}

func TestDueCheck_StartsFromOrderWhenNoPayments(t *testing.T) {
	f := newFixture(t, at(2024, time.August, 1))
	order := f.yearlyOrder(t, "o1", at(2024, time.January, 1))
	f.amcFor(t, "a1", order)

	result, err := f.sync.RunDueCheck(f.ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, result.NewPaymentsAdded)
	assert.Equal(t, "2024-01-01", f.payments(t, "a1")[0].FromDate.String())
}

func TestDueCheck_SkipsMissingOrderAndStartDate(t *testing.T) {
	f := newFixture(t, at(2025, time.February, 1))
	f.amcFor(t, "orphan", &amc.Order{ID: "gone"})

	require.NoError(t, f.store.SaveOrder(f.ctx, amc.Order{ID: "no-start", ClientID: "none"}))
	f.amcFor(t, "unanchored", &amc.Order{ID: "no-start"})

	result, err := f.sync.RunDueCheck(f.ctx)

	require.NoError(t, err)
	assert.Equal(t, amc.DueCheckResult{Processed: 2, Skipped: 2}, result)
}

func TestDueCheck_IgnoresSoftDeleted(t *testing.T) {
	f := newFixture(t, at(2025, time.February, 1))
	order := f.yearlyOrder(t, "o1", at(2024, time.January, 1))
	require.NoError(t, f.store.SaveAMC(f.ctx, amc.AMC{
		ID:        "a1",
		OrderID:   order.ID,
		Payments:  []amc.Payment{paidPayment(d(2024, time.January, 1), "150")},
		DeletedAt: timePtr(at(2024, time.June, 1)),
	}))

	result, err := f.sync.RunDueCheck(f.ctx)

	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
}

func TestDueCheck_IsolatesFailures(t *testing.T) {
	// GIVEN: Three due AMCs, writes to one of them fail
	f := newFixture(t, at(2025, time.February, 1))
	for _, id := range []string{"o1", "o2", "o3"} {
		order := f.yearlyOrder(t, id, at(2024, time.January, 1))
		f.amcFor(t, "a-"+id, order, paidPayment(d(2024, time.January, 1), "150"))
	}
	failing := &store.Failing{Store: f.store, FailAMCs: map[string]bool{"a-o2": true}, Err: errors.New("disk full")}
	f.sync.Store = failing

	// WHEN
	result, err := f.sync.RunDueCheck(f.ctx)

	// THEN: The batch completes and reports the failure
	require.NoError(t, err)
	assert.Equal(t, amc.DueCheckResult{Processed: 3, Updated: 2, Errors: 1, NewPaymentsAdded: 2}, result)
	assert.Len(t, f.payments(t, "a-o1"), 2)
	assert.Len(t, f.payments(t, "a-o2"), 1)
	assert.Len(t, f.payments(t, "a-o3"), 2)
}

// panickingStore blows up when loading one specific order.
type panickingStore struct {
	amc.Store
	orderID string
}

func (p *panickingStore) GetOrder(ctx context.Context, id string) (*amc.Order, error) {
	if id == p.orderID {
		panic("corrupt document")
	}
	return p.Store.GetOrder(ctx, id)
}

func TestDueCheck_PanicCountsAsError(t *testing.T) {
	f := newFixture(t, at(2025, time.February, 1))
	for _, id := range []string{"o1", "o2"} {
		order := f.yearlyOrder(t, id, at(2024, time.January, 1))
		f.amcFor(t, "a-"+id, order, paidPayment(d(2024, time.January, 1), "150"))
	}
	f.sync.Store = &panickingStore{Store: f.store, orderID: "o1"}

	result, err := f.sync.RunDueCheck(f.ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, 1, result.Updated)
}

func TestDueCheck_ManyAMCsConcurrently(t *testing.T) {
	f := newFixture(t, at(2025, time.February, 1))
	f.sync.Concurrency = 4
	for i := 0; i < 40; i++ {
		id := fmt.Sprintf("o%02d", i)
		order := f.yearlyOrder(t, id, at(2024, time.January, 1))
		f.amcFor(t, "a-"+id, order, paidPayment(d(2024, time.January, 1), "150"))
	}

	result, err := f.sync.RunDueCheck(f.ctx)

	require.NoError(t, err)
	assert.Equal(t, amc.DueCheckResult{Processed: 40, Updated: 40, NewPaymentsAdded: 40}, result)
}

func TestDuePeriods_UsesClientFrequency(t *testing.T) {
	order := &amc.Order{AMCStartDate: timePtr(at(2024, time.January, 1))}
	a := &amc.AMC{Payments: []amc.Payment{{FromDate: d(2024, time.January, 1), ToDate: d(2024, time.April, 1)}}}

	periods := amc.DuePeriods(a, order, 3, at(2024, time.August, 15))

	require.Len(t, periods, 2)
	assert.Equal(t, "[2024-04-01, 2024-07-01)", periods[0].String())
	assert.Equal(t, "[2024-07-01, 2024-10-01)", periods[1].String())
}

func requireContiguous(t *testing.T, payments []amc.Payment) {
	t.Helper()
	for i := 1; i < len(payments); i++ {
		require.True(t, payments[i].FromDate.Equal(payments[i-1].ToDate),
			"payment %d %s does not follow %s", i, payments[i].Interval(), payments[i-1].Interval())
	}
}

func TestDueCheck_MonthEndStartAgreesWithTillYearAndReview(t *testing.T) {
	// GIVEN: Monthly billing from 2024-01-31, AMC opened with its free month
	f := newFixture(t, at(2024, time.May, 15))
	f.orderEvery(t, "o1", 1, at(2024, time.January, 31))
	a, err := f.sync.OpenAMC(f.ctx, "o1")
	require.NoError(t, err)

	// WHEN: The due check runs on 2024-05-15
	result, err := f.sync.RunDueCheck(f.ctx)

	// THEN: Boundaries follow the start date's day, clamped per month
	require.NoError(t, err)
	assert.Equal(t, 3, result.NewPaymentsAdded)
	payments := f.payments(t, a.ID)
	require.Len(t, payments, 4)
	assert.Equal(t, "[2024-02-29, 2024-03-31)", payments[1].Interval().String())
	assert.Equal(t, "[2024-03-31, 2024-04-30)", payments[2].Interval().String())
	assert.Equal(t, "[2024-04-30, 2024-05-31)", payments[3].Interval().String())

	// AND: The review sees every stored month as persisted
	schedule, err := f.sync.ReviewSchedule(f.ctx, "o1")
	require.NoError(t, err)
	require.Len(t, schedule, 4)
	for _, row := range schedule {
		assert.True(t, row.Persisted, "period %s", row.Interval)
	}

	// WHEN: Till-year fills the rest of 2024
	tillYear, err := f.sync.CreatePaymentsTillYear(f.ctx, a.ID, 2024)

	// THEN: Only June..December starts are added and nothing overlaps
	require.NoError(t, err)
	assert.Equal(t, 8, tillYear.NewPaymentsCreated)
	payments = f.payments(t, a.ID)
	require.Len(t, payments, 12)
	requireContiguous(t, payments)
	assert.Equal(t, "[2024-12-31, 2025-01-31)", payments[11].Interval().String())

	again, err := f.sync.CreatePaymentsTillYear(f.ctx, a.ID, 2024)
	require.NoError(t, err)
	assert.Equal(t, 0, again.NewPaymentsCreated)
}

func TestDueCheck_LeapDayStartKeepsAnniversary(t *testing.T) {
	// GIVEN: Yearly billing from 2024-02-29, today 2028-03-10
	f := newFixture(t, at(2028, time.March, 10))
	f.yearlyOrder(t, "o1", at(2024, time.February, 29))
	a, err := f.sync.OpenAMC(f.ctx, "o1")
	require.NoError(t, err)

	// WHEN
	result, err := f.sync.RunDueCheck(f.ctx)

	// THEN: Non-leap years clamp to Feb 28 but 2028 returns to Feb 29
	require.NoError(t, err)
	assert.Equal(t, 4, result.NewPaymentsAdded)
	payments := f.payments(t, a.ID)
	require.Len(t, payments, 5)
	requireContiguous(t, payments)
	assert.Equal(t, "[2028-02-29, 2029-02-28)", payments[4].Interval().String())

	// AND: Till-year finds nothing missing
	tillYear, err := f.sync.CreatePaymentsTillYear(f.ctx, a.ID, 2028)
	require.NoError(t, err)
	assert.Equal(t, 0, tillYear.NewPaymentsCreated)
}

func TestDuePeriods_ResumesOnStartDateGrid(t *testing.T) {
	order := &amc.Order{AMCStartDate: timePtr(at(2024, time.January, 31))}
	a := &amc.AMC{Payments: []amc.Payment{{FromDate: d(2024, time.January, 31), ToDate: d(2024, time.February, 29)}}}

	periods := amc.DuePeriods(a, order, 1, at(2024, time.April, 1))

	require.Len(t, periods, 2)
	assert.Equal(t, "[2024-02-29, 2024-03-31)", periods[0].String())
	assert.Equal(t, "[2024-03-31, 2024-04-30)", periods[1].String())
}

// =============================================================================
// REVIEW SCHEDULE
// =============================================================================

func TestReviewSchedule_ExcludesInactiveYear(t *testing.T) {
	// GIVEN: Yearly from 2024-03-01, inactive 2025-03-01..2026-03-01, agreement to 2028-03-01
	f := newFixture(t, at(2026, time.June, 1))
	order := f.yearlyOrder(t, "o1", at(2024, time.March, 1))
	order.Agreements = []amc.Agreement{{Start: d(2024, time.March, 1), End: d(2028, time.March, 1)}}
	order.StatusLogs = []amc.StatusLog{
		deactivate(at(2025, time.March, 1)),
		reactivate(at(2026, time.March, 1)),
	}
	require.NoError(t, f.store.SaveOrder(f.ctx, *order))
	f.amcFor(t, "a1", order, paidPayment(d(2024, time.March, 1), "150"))

	// WHEN
	schedule, err := f.sync.ReviewSchedule(f.ctx, "o1")

	// THEN
	require.NoError(t, err)
	require.Len(t, schedule, 3)
	assert.Equal(t, "[2024-03-01, 2025-03-01)", schedule[0].String())
	assert.Equal(t, "[2026-03-01, 2027-03-01)", schedule[1].String())
	assert.Equal(t, "[2027-03-01, 2028-03-01)", schedule[2].String())

	assert.True(t, schedule[0].IsFree)
	assert.True(t, schedule[0].Persisted)
	assert.Equal(t, amc.StatusPaid, schedule[0].Payment.Status)

	for _, row := range schedule[1:] {
		assert.False(t, row.IsFree)
		assert.False(t, row.IsInactive)
		assert.False(t, row.Persisted)
		assert.Equal(t, amc.StatusPending, row.Payment.Status)
		assert.Equal(t, "150", row.Payment.AMCRateAmount.String())
	}
}

func TestReviewSchedule_NoAgreementRunsToToday(t *testing.T) {
	f := newFixture(t, at(2025, time.June, 1))
	order := f.yearlyOrder(t, "o1", at(2024, time.January, 1))
	f.amcFor(t, "a1", order)

	schedule, err := f.sync.ReviewSchedule(f.ctx, "o1")

	require.NoError(t, err)
	require.Len(t, schedule, 2)
	assert.Equal(t, "2025-01-01", schedule[1].From.String())
}

func TestReviewSchedule_Errors(t *testing.T) {
	f := newFixture(t, at(2025, time.June, 1))

	_, err := f.sync.ReviewSchedule(f.ctx, "missing")
	assert.True(t, amc.IsNotFound(err))

	f.yearlyOrder(t, "no-amc", at(2024, time.January, 1))
	_, err = f.sync.ReviewSchedule(f.ctx, "no-amc")
	assert.True(t, amc.IsNotFound(err))

	require.NoError(t, f.store.SaveOrder(f.ctx, amc.Order{ID: "no-start"}))
	f.amcFor(t, "a-no-start", &amc.Order{ID: "no-start"})
	_, err = f.sync.ReviewSchedule(f.ctx, "no-start")
	assert.True(t, amc.IsClientError(err))
}

// =============================================================================
// CREATE PAYMENTS TILL YEAR
// =============================================================================

func TestCreatePaymentsTillYear_FromScratch(t *testing.T) {
	// GIVEN: No payments, yearly from 2024-01-01
	f := newFixture(t, at(2024, time.March, 1))
	order := f.yearlyOrder(t, "o1", at(2024, time.January, 1))
	f.amcFor(t, "a1", order)

	// WHEN
	result, err := f.sync.CreatePaymentsTillYear(f.ctx, "a1", 2025)

	// THEN: 2024 and 2025
	require.NoError(t, err)
	assert.Equal(t, 2, result.NewPaymentsCreated)
	assert.Equal(t, 2, result.TotalPayments)
	assert.Equal(t, 2025, result.TillYear)
	payments := f.payments(t, "a1")
	assert.Equal(t, "2024-01-01", payments[0].FromDate.String())
	assert.Equal(t, "2025-01-01", payments[1].FromDate.String())
}

func TestCreatePaymentsTillYear_Idempotent(t *testing.T) {
	f := newFixture(t, at(2024, time.March, 1))
	order := f.yearlyOrder(t, "o1", at(2024, time.January, 1))
	f.amcFor(t, "a1", order, paidPayment(d(2024, time.January, 1), "150"))

	first, err := f.sync.CreatePaymentsTillYear(f.ctx, "a1", 2027)
	require.NoError(t, err)
	assert.Equal(t, 3, first.NewPaymentsCreated)

	second, err := f.sync.CreatePaymentsTillYear(f.ctx, "a1", 2027)
	require.NoError(t, err)
	assert.Equal(t, 0, second.NewPaymentsCreated)
	assert.Equal(t, 4, second.TotalPayments)
	assert.Equal(t, "No new payments needed", second.Message)

	payments := f.payments(t, "a1")
	assert.Equal(t, amc.StatusPaid, payments[0].Status, "existing payment untouched")
}

func TestCreatePaymentsTillYear_FillsGapsInOrder(t *testing.T) {
	// GIVEN: 2024 and 2026 exist, 2025 is missing
	f := newFixture(t, at(2026, time.March, 1))
	order := f.yearlyOrder(t, "o1", at(2024, time.January, 1))
	f.amcFor(t, "a1", order,
		paidPayment(d(2024, time.January, 1), "150"),
		paidPayment(d(2026, time.January, 1), "150"))

	result, err := f.sync.CreatePaymentsTillYear(f.ctx, "a1", 2026)

	require.NoError(t, err)
	assert.Equal(t, 1, result.NewPaymentsCreated)
	payments := f.payments(t, "a1")
	require.Len(t, payments, 3)
	assert.Equal(t, "2025-01-01", payments[1].FromDate.String(), "payments stay sorted")
}

func TestCreatePaymentsTillYear_Errors(t *testing.T) {
	f := newFixture(t, at(2025, time.June, 1))

	_, err := f.sync.CreatePaymentsTillYear(f.ctx, "missing", 2025)
	assert.True(t, amc.IsNotFound(err))

	f.amcFor(t, "orphan", &amc.Order{ID: "gone"})
	_, err = f.sync.CreatePaymentsTillYear(f.ctx, "orphan", 2025)
	assert.True(t, amc.IsClientError(err))

	require.NoError(t, f.store.SaveOrder(f.ctx, amc.Order{ID: "no-start"}))
	f.amcFor(t, "unanchored", &amc.Order{ID: "no-start"})
	_, err = f.sync.CreatePaymentsTillYear(f.ctx, "unanchored", 2025)
	assert.True(t, amc.IsClientError(err))

	_, err = f.sync.CreatePaymentsTillYear(f.ctx, "unanchored", 0)
	assert.True(t, amc.IsClientError(err))
}

func TestCreatePaymentsTillYear_PersistenceFailure(t *testing.T) {
	f := newFixture(t, at(2025, time.June, 1))
	order := f.yearlyOrder(t, "o1", at(2024, time.January, 1))
	f.amcFor(t, "a1", order)
	cause := errors.New("write conflict")
	f.sync.Store = &store.Failing{Store: f.store, FailAMCs: map[string]bool{"a1": true}, Err: cause}

	_, err := f.sync.CreatePaymentsTillYear(f.ctx, "a1", 2025)

	require.Error(t, err)
	assert.True(t, amc.IsInternal(err))
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, f.payments(t, "a1"))
}

// =============================================================================
// CONTRACT LIFECYCLE
// =============================================================================

func TestOpenAMC_CreatesFreeFirstPeriod(t *testing.T) {
	f := newFixture(t, at(2024, time.January, 10))
	f.yearlyOrder(t, "o1", at(2024, time.January, 1))

	a, err := f.sync.OpenAMC(f.ctx, "o1")

	require.NoError(t, err)
	assert.Equal(t, "amc-gen-1", a.ID)
	require.Len(t, a.Payments, 1)
	assert.Equal(t, "[2024-01-01, 2025-01-01)", a.Payments[0].Interval().String())
	assert.True(t, a.IsFree(0))
	assert.Equal(t, "150", a.Amount.String())

	_, err = f.sync.OpenAMC(f.ctx, "o1")
	assert.True(t, amc.IsClientError(err), "one amc per order")

	_, err = f.sync.OpenAMC(f.ctx, "missing")
	assert.True(t, amc.IsNotFound(err))
}

func TestApplyCostChange_RefreshesCachedCost(t *testing.T) {
	// GIVEN: An AMC billed on 1000 at 15%
	f := newFixture(t, at(2024, time.February, 1))
	order := f.yearlyOrder(t, "o1", at(2024, time.January, 1))
	_, err := f.sync.OpenAMC(f.ctx, "o1")
	require.NoError(t, err)

	// WHEN: A customization worth 500 is added
	order.Customizations = append(order.Customizations, amc.Customization{ID: "c1", Cost: decp("500")})
	require.NoError(t, f.store.SaveOrder(f.ctx, *order))
	a, err := f.sync.ApplyCostChange(f.ctx, "o1")

	// THEN: Cached amount follows, the free period snapshot does not
	require.NoError(t, err)
	assert.Equal(t, "1500", a.TotalCost.String())
	assert.Equal(t, "225", a.Amount.String())
	assert.Equal(t, "150", a.Payments[0].AMCRateAmount.String())
}
