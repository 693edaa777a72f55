/*
sync.go - AMC Synchronizer

PURPOSE:
  Orchestrates generation, reconciliation and costing against the store.

OPERATIONS:
  RunDueCheck:            Batch. Appends newly required periods to every AMC.
  ReviewSchedule:         Read-only. Full annotated schedule for one order.
  CreatePaymentsTillYear: Manual catch-up. Fills missing periods through a year.
  OpenAMC:                Creates the AMC for a new order (free first period).
  ApplyCostChange:        Refreshes cached cost after customizations/licenses change.

DUE-NESS:
  Without an agreement a period is created once its start date has arrived
  (start <= today). With an agreement, periods are created ahead of time up
  to the agreement end regardless of today. The due-check does NOT apply
  inactivity reconciliation; only ReviewSchedule does.

BATCH FAILURE ISOLATION:
  Each AMC is processed in its own task returning a dueOutcome. The
  orchestrator folds outcomes into DueCheckResult. A failing (or panicking)
  AMC is counted in Errors and never aborts the batch.

CONCURRENCY:
  The batch assumes it runs as a singleton. Concurrent runs against the same
  AMC race on the append (last writer wins); api/scheduler.go prevents overlap.
*/
package amc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 8

type Synchronizer struct {
	Store       Store
	Logger      *slog.Logger
	Concurrency int
	Now         func() time.Time
	NewID       func() string
}

func NewSynchronizer(store Store, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Synchronizer{
		Store:       store,
		Logger:      logger.With("component", "amc"),
		Concurrency: DefaultConcurrency,
		Now:         time.Now,
		NewID:       uuid.NewString,
	}
}

// =============================================================================
// DUE CHECK
// =============================================================================

type DueCheckResult struct {
	Processed        int
	Updated          int
	Skipped          int
	Errors           int
	NewPaymentsAdded int
}

type outcomeKind int

const (
	outcomeSkipped outcomeKind = iota
	outcomeUpdated
	outcomeFailed
)

type dueOutcome struct {
	amcID string
	kind  outcomeKind
	added int
	err   error
}

func (r *DueCheckResult) fold(o dueOutcome) {
	r.Processed++
	switch o.kind {
	case outcomeUpdated:
		r.Updated++
		r.NewPaymentsAdded += o.added
	case outcomeSkipped:
		r.Skipped++
	case outcomeFailed:
		r.Errors++
	}
}

// RunDueCheck appends every newly due period across all AMCs. The returned
// error is only set when the AMC list itself cannot be loaded.
func (s *Synchronizer) RunDueCheck(ctx context.Context) (DueCheckResult, error) {
	now := s.Now()

	amcs, err := s.Store.ListAMCs(ctx)
	if err != nil {
		return DueCheckResult{}, fmt.Errorf("list amcs: %w", err)
	}

	outcomes := make([]dueOutcome, len(amcs))
	var g errgroup.Group
	if s.Concurrency > 0 {
		g.SetLimit(s.Concurrency)
	}
	for i := range amcs {
		a := amcs[i]
		g.Go(func() error {
			outcomes[i] = s.checkOne(ctx, a, now)
			return nil
		})
	}
	_ = g.Wait()

	var result DueCheckResult
	for _, o := range outcomes {
		if o.kind == outcomeFailed {
			s.Logger.Error("due check failed", "amc_id", o.amcID, "error", o.err)
		}
		result.fold(o)
	}

	s.Logger.Info("due check completed",
		"processed", result.Processed,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"errors", result.Errors,
		"new_payments", result.NewPaymentsAdded)
	return result, nil
}

func (s *Synchronizer) checkOne(ctx context.Context, a AMC, now time.Time) (out dueOutcome) {
	out.amcID = a.ID
	defer func() {
		if r := recover(); r != nil {
			out = dueOutcome{amcID: a.ID, kind: outcomeFailed, err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if a.IsDeleted() {
		out.kind = outcomeSkipped
		return out
	}

	order, err := s.Store.GetOrder(ctx, a.OrderID)
	if err != nil {
		return dueOutcome{amcID: a.ID, kind: outcomeFailed, err: fmt.Errorf("load order %s: %w", a.OrderID, err)}
	}
	if order == nil {
		out.kind = outcomeSkipped
		return out
	}
	client, err := s.Store.GetClient(ctx, order.ClientID)
	if err != nil {
		return dueOutcome{amcID: a.ID, kind: outcomeFailed, err: fmt.Errorf("load client %s: %w", order.ClientID, err)}
	}

	periods := DuePeriods(&a, order, client.Frequency(), now)
	if len(periods) == 0 {
		out.kind = outcomeSkipped
		return out
	}

	cost := ComputeCost(order, client)
	payments := PaymentsFor(periods, cost)
	if err := s.Store.AppendPayments(ctx, a.ID, payments, cost.RateAmount, cost.TotalCost); err != nil {
		return dueOutcome{amcID: a.ID, kind: outcomeFailed, err: &PersistenceError{Op: "append payments", AMCID: a.ID, Err: err}}
	}

	s.Logger.Debug("payments appended", "amc_id", a.ID, "count", len(payments),
		"from", payments[0].FromDate.String(), "to", payments[len(payments)-1].ToDate.String())
	return dueOutcome{amcID: a.ID, kind: outcomeUpdated, added: len(payments)}
}

// DuePeriods returns the periods the due-check would append to a right now.
//
// Periods are always generated from the order's start date so month-end
// clamping never compounds; the last payment only decides where appending
// resumes. With an agreement the horizon is the agreement end (exclusive) and
// nothing is due once the last period reaches it. Without one the horizon is
// today (inclusive) and nothing is due while the last period is still running.
func DuePeriods(a *AMC, order *Order, frequencyMonths int, now time.Time) []Interval {
	start := order.StartDate()
	if start.IsZero() {
		return nil
	}
	today := DateOf(now)
	last := a.LastPayment()

	var h Horizon
	if end, ok := order.AgreementEnd(); ok {
		if last != nil && last.ToDate.AfterOrEqual(end) {
			return nil
		}
		h = Before(end)
	} else {
		if last != nil && last.ToDate.After(today) {
			return nil
		}
		h = AsOf(today)
	}

	periods := GeneratePeriods(start, frequencyMonths, h)
	if last == nil {
		return periods
	}
	due := periods[:0]
	for _, iv := range periods {
		if iv.From.AfterOrEqual(last.ToDate) {
			due = append(due, iv)
		}
	}
	return due
}

// =============================================================================
// REVIEW SCHEDULE
// =============================================================================

// ScheduledPeriod is one row of the review schedule.
type ScheduledPeriod struct {
	Interval
	Index             int
	IsFree            bool
	IsInactive        bool
	PartiallyInactive bool
	Persisted         bool
	Payment           Payment
}

// ReviewSchedule generates the order's full schedule (to the agreement end, or
// today without one), drops periods the order spent entirely inactive, and
// merges billing status from persisted payments with the same bounds.
func (s *Synchronizer) ReviewSchedule(ctx context.Context, orderID string) ([]ScheduledPeriod, error) {
	now := s.Now()

	order, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", orderID, err)
	}
	if order == nil {
		return nil, &NotFoundError{Kind: "order", ID: orderID}
	}
	a, err := s.Store.GetAMCByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load amc for order %s: %w", orderID, err)
	}
	if a == nil {
		return nil, &NotFoundError{Kind: "amc", ID: "order:" + orderID}
	}
	start := order.StartDate()
	if start.IsZero() {
		return nil, &BadRequestError{Reason: "order " + orderID + " has no amc start date"}
	}
	client, err := s.Store.GetClient(ctx, order.ClientID)
	if err != nil {
		return nil, fmt.Errorf("load client %s: %w", order.ClientID, err)
	}

	h := AsOf(DateOf(now))
	if end, ok := order.AgreementEnd(); ok {
		h = Before(end)
	}
	periods := GeneratePeriods(start, client.Frequency(), h)
	cost := ComputeCost(order, client)

	reconciled := Reconcile(periods, order.StatusLogs, now)
	schedule := make([]ScheduledPeriod, 0, len(reconciled))
	for _, rp := range reconciled {
		row := ScheduledPeriod{
			Interval:          rp.Interval,
			Index:             rp.Index,
			IsFree:            rp.Index == FreePeriodIndex,
			IsInactive:        rp.IsInactive,
			PartiallyInactive: rp.PartiallyInactive,
			Payment:           NewPayment(rp.Interval, cost),
		}
		if p, ok := a.PaymentFor(rp.Interval); ok {
			row.Persisted = true
			row.Payment = p
		}
		schedule = append(schedule, row)
	}
	return schedule, nil
}

// =============================================================================
// CREATE PAYMENTS TILL YEAR
// =============================================================================

type TillYearResult struct {
	AMCID              string
	NewPaymentsCreated int
	TotalPayments      int
	TillYear           int
	Message            string
}

// CreatePaymentsTillYear fills in every period starting on or before the end
// of tillYear that has no persisted payment yet. Running it twice is a no-op
// the second time.
func (s *Synchronizer) CreatePaymentsTillYear(ctx context.Context, amcID string, tillYear int) (TillYearResult, error) {
	if tillYear <= 0 {
		return TillYearResult{}, &BadRequestError{Reason: "till year must be positive"}
	}

	a, err := s.Store.GetAMC(ctx, amcID)
	if err != nil {
		return TillYearResult{}, fmt.Errorf("load amc %s: %w", amcID, err)
	}
	if a == nil {
		return TillYearResult{}, &NotFoundError{Kind: "amc", ID: amcID}
	}
	order, err := s.Store.GetOrder(ctx, a.OrderID)
	if err != nil {
		return TillYearResult{}, fmt.Errorf("load order %s: %w", a.OrderID, err)
	}
	if order == nil {
		return TillYearResult{}, &BadRequestError{Reason: "amc " + amcID + " has no order"}
	}
	start := order.StartDate()
	if start.IsZero() {
		return TillYearResult{}, &BadRequestError{Reason: "order " + order.ID + " has no amc start date"}
	}
	client, err := s.Store.GetClient(ctx, order.ClientID)
	if err != nil {
		return TillYearResult{}, fmt.Errorf("load client %s: %w", order.ClientID, err)
	}

	cost := ComputeCost(order, client)
	var created []Payment
	// Matching on the exact start date only holds because every generation
	// path (due-check, review, this) steps from the order's start date.
	for _, iv := range GeneratePeriods(start, client.Frequency(), ThroughYear(tillYear)) {
		if a.HasPaymentFrom(iv.From) {
			continue
		}
		created = append(created, NewPayment(iv, cost))
	}

	result := TillYearResult{AMCID: a.ID, TillYear: tillYear}
	if len(created) == 0 {
		result.TotalPayments = len(a.Payments)
		result.Message = "No new payments needed"
		return result, nil
	}

	a.Payments = append(a.Payments, created...)
	sort.SliceStable(a.Payments, func(i, j int) bool {
		return a.Payments[i].FromDate.Before(a.Payments[j].FromDate)
	})
	last := a.LastPayment()
	a.Amount = last.AMCRateAmount
	a.TotalCost = last.TotalCost
	a.UpdatedAt = s.Now()

	if err := s.Store.SaveAMC(ctx, *a); err != nil {
		s.Logger.Error("save amc failed",
			"amc_id", a.ID, "order_id", order.ID, "till_year", tillYear,
			"new_payments", len(created), "error", err)
		return TillYearResult{}, &PersistenceError{Op: "save", AMCID: a.ID, Err: err}
	}

	result.NewPaymentsCreated = len(created)
	result.TotalPayments = len(a.Payments)
	result.Message = fmt.Sprintf("Created %d new payment(s) through %d", len(created), tillYear)
	s.Logger.Info("payments created till year", "amc_id", a.ID, "till_year", tillYear, "created", len(created))
	return result, nil
}

// =============================================================================
// CONTRACT LIFECYCLE
// =============================================================================

// NewAMC builds the contract for a freshly created order. When the order has
// a start date the free first period is created immediately.
func NewAMC(id string, order *Order, client *Client, now time.Time) AMC {
	cost := ComputeCost(order, client)
	a := AMC{
		ID:            id,
		OrderID:       order.ID,
		ClientID:      order.ClientID,
		TotalCost:     cost.TotalCost,
		Amount:        cost.RateAmount,
		AMCPercentage: cost.RateApplied,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if start := order.StartDate(); !start.IsZero() {
		f := client.Frequency()
		a.Payments = []Payment{NewPayment(Interval{From: start, To: start.AddMonths(f)}, cost)}
	}
	return a
}

// OpenAMC creates and persists the AMC for an order. One AMC per order.
func (s *Synchronizer) OpenAMC(ctx context.Context, orderID string) (*AMC, error) {
	order, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", orderID, err)
	}
	if order == nil {
		return nil, &NotFoundError{Kind: "order", ID: orderID}
	}
	existing, err := s.Store.GetAMCByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load amc for order %s: %w", orderID, err)
	}
	if existing != nil {
		return nil, &BadRequestError{Reason: "order " + orderID + " already has an amc"}
	}
	client, err := s.Store.GetClient(ctx, order.ClientID)
	if err != nil {
		return nil, fmt.Errorf("load client %s: %w", order.ClientID, err)
	}

	a := NewAMC(s.NewID(), order, client, s.Now())
	if err := s.Store.SaveAMC(ctx, a); err != nil {
		return nil, &PersistenceError{Op: "create", AMCID: a.ID, Err: err}
	}
	return &a, nil
}

// ApplyCostChange recomputes the order's cost basis and refreshes the AMC's
// cached TotalCost, Amount and percentage. Existing payment snapshots are kept.
func (s *Synchronizer) ApplyCostChange(ctx context.Context, orderID string) (*AMC, error) {
	order, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", orderID, err)
	}
	if order == nil {
		return nil, &NotFoundError{Kind: "order", ID: orderID}
	}
	a, err := s.Store.GetAMCByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load amc for order %s: %w", orderID, err)
	}
	if a == nil {
		return nil, &NotFoundError{Kind: "amc", ID: "order:" + orderID}
	}
	client, err := s.Store.GetClient(ctx, order.ClientID)
	if err != nil {
		return nil, fmt.Errorf("load client %s: %w", order.ClientID, err)
	}

	cost := ComputeCost(order, client)
	a.TotalCost = cost.TotalCost
	a.Amount = cost.RateAmount
	a.AMCPercentage = cost.RateApplied
	a.UpdatedAt = s.Now()
	if err := s.Store.SaveAMC(ctx, *a); err != nil {
		return nil, &PersistenceError{Op: "update cost", AMCID: a.ID, Err: err}
	}
	return a, nil
}
