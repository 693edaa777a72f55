/*
Package amc implements the Annual Maintenance Contract billing engine.

PURPOSE:
  Every order sold to a client carries an AMC: a recurring maintenance fee
  billed in fixed-length periods (1, 3, 6, 12, 18 or 24 months). This package
  decides which periods must exist, what each one costs, and which ones are
  waived because the order was inactive.

KEY CONCEPTS:
  - Payment:   One billing period [FromDate, ToDate) with a cost snapshot
  - AMC:       The contract document holding the ordered payment list
  - Order:     Cost basis, start date, agreements and status history
  - Horizon:   How far generation runs (as of a date, before a date, through a year)

FREE FIRST PERIOD:
  The payment at FreePeriodIndex is never collected. It is covered by the
  original purchase. Anything summing money owed or received must go through
  AMC.BillablePayments so the rule lives in one place.

SEE ALSO:
  - period.go:     Payment cycle generation
  - inactivity.go: Inactivity reconciliation
  - cost.go:       Cost calculator
  - sync.go:       Due-check, review schedule, till-year catch-up
*/
package amc

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PAYMENT - One billing period embedded in an AMC
// =============================================================================

type PaymentStatus string

const (
	StatusPending PaymentStatus = "pending"
	StatusPartial PaymentStatus = "partial"
	StatusPaid    PaymentStatus = "paid"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPartial, StatusPaid:
		return true
	}
	return false
}

type Payment struct {
	FromDate Date
	ToDate   Date
	Status   PaymentStatus

	// Cost snapshot at the time the period was generated
	AMCRateApplied decimal.Decimal
	AMCRateAmount  decimal.Decimal
	TotalCost      decimal.Decimal

	// Filled by manual payment updates
	ReceivedDate        *time.Time
	ReceivedAmount      decimal.Decimal
	InvoiceNumber       string
	PurchaseOrderNumber string
}

func (p Payment) Interval() Interval { return Interval{From: p.FromDate, To: p.ToDate} }

// Collected returns what has actually come in for this payment.
func (p Payment) Collected() decimal.Decimal {
	switch p.Status {
	case StatusPaid:
		return p.AMCRateAmount
	case StatusPartial:
		return p.ReceivedAmount
	default:
		return decimal.Zero
	}
}

// =============================================================================
// AMC - Maintenance contract document
// =============================================================================

// FreePeriodIndex is the position of the non-billable payment in AMC.Payments.
const FreePeriodIndex = 0

type AMC struct {
	ID            string
	OrderID       string
	ClientID      string
	TotalCost     decimal.Decimal
	Amount        decimal.Decimal
	AMCPercentage decimal.Decimal
	Payments      []Payment
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

func (a *AMC) IsDeleted() bool { return a.DeletedAt != nil }

// IsFree reports whether the payment at index i is the free first period.
func (a *AMC) IsFree(i int) bool { return i == FreePeriodIndex }

// BillablePayments returns every payment except the free one.
func (a *AMC) BillablePayments() []Payment {
	if len(a.Payments) <= FreePeriodIndex+1 {
		return nil
	}
	return a.Payments[FreePeriodIndex+1:]
}

// AmountCollected sums received money, ignoring the free period whatever its status.
func (a *AMC) AmountCollected() decimal.Decimal {
	total := decimal.Zero
	for _, p := range a.BillablePayments() {
		total = total.Add(p.Collected())
	}
	return total
}

// AmountOutstanding is billed minus collected over billable payments.
func (a *AMC) AmountOutstanding() decimal.Decimal {
	billed := decimal.Zero
	for _, p := range a.BillablePayments() {
		billed = billed.Add(p.AMCRateAmount)
	}
	return billed.Sub(a.AmountCollected())
}

// LastPayment returns the most recent period, or nil when none exist.
func (a *AMC) LastPayment() *Payment {
	if len(a.Payments) == 0 {
		return nil
	}
	return &a.Payments[len(a.Payments)-1]
}

// HasPaymentFrom reports whether a payment already starts on from.
func (a *AMC) HasPaymentFrom(from Date) bool {
	for _, p := range a.Payments {
		if p.FromDate.Equal(from) {
			return true
		}
	}
	return false
}

// PaymentFor finds the persisted payment covering exactly iv.
func (a *AMC) PaymentFor(iv Interval) (Payment, bool) {
	for _, p := range a.Payments {
		if p.FromDate.Equal(iv.From) && p.ToDate.Equal(iv.To) {
			return p, true
		}
	}
	return Payment{}, false
}

// =============================================================================
// ORDER - Cost basis and service history
// =============================================================================

type OrderStatus string

const (
	OrderActive   OrderStatus = "active"
	OrderInactive OrderStatus = "inactive"
)

type Rate struct {
	Percentage *decimal.Decimal
	Amount     *decimal.Decimal
}

type Customization struct {
	ID    string
	Title string
	Cost  *decimal.Decimal
}

type License struct {
	ID           string
	Name         string
	TotalLicense *decimal.Decimal
	Rate         Rate
}

type Agreement struct {
	Start    Date
	End      Date
	Document string
}

type StatusLog struct {
	Date time.Time
	From OrderStatus
	To   OrderStatus
}

type Order struct {
	ID             string
	ClientID       string
	Title          string
	AMCStartDate   *time.Time
	BaseCost       *decimal.Decimal
	AMCRate        Rate
	Customizations []Customization
	Licenses       []License
	Agreements     []Agreement
	StatusLogs     []StatusLog
	CreatedAt      time.Time
}

// CurrentStatus is the target of the last status log, active when there is none.
func (o *Order) CurrentStatus() OrderStatus {
	if len(o.StatusLogs) == 0 {
		return OrderActive
	}
	return o.StatusLogs[len(o.StatusLogs)-1].To
}

// StartDate returns the AMC anchor, zero when the order has none.
func (o *Order) StartDate() Date {
	if o.AMCStartDate == nil {
		return Date{}
	}
	return DateOf(*o.AMCStartDate)
}

// AgreementEnd returns the latest agreement end date, if any agreement exists.
func (o *Order) AgreementEnd() (Date, bool) {
	var end Date
	found := false
	for _, a := range o.Agreements {
		if a.End.IsZero() {
			continue
		}
		if !found || a.End.After(end) {
			end = a.End
			found = true
		}
	}
	return end, found
}

// RecordStatus appends a status transition. Logs stay chronological.
func (o *Order) RecordStatus(to OrderStatus, at time.Time) error {
	if to != OrderActive && to != OrderInactive {
		return &BadRequestError{Reason: "unknown order status " + string(to)}
	}
	from := o.CurrentStatus()
	if from == to {
		return &BadRequestError{Reason: "order is already " + string(to)}
	}
	if n := len(o.StatusLogs); n > 0 && at.Before(o.StatusLogs[n-1].Date) {
		return &BadRequestError{Reason: "status change predates the last recorded change"}
	}
	o.StatusLogs = append(o.StatusLogs, StatusLog{Date: at, From: from, To: to})
	return nil
}

// =============================================================================
// CLIENT - Billing cadence owner
// =============================================================================

const DefaultFrequencyMonths = 12

var allowedFrequencies = map[int]bool{1: true, 3: true, 6: true, 12: true, 18: true, 24: true}

// NormalizeFrequency returns months when allowed, DefaultFrequencyMonths otherwise.
func NormalizeFrequency(months int) int {
	if allowedFrequencies[months] {
		return months
	}
	return DefaultFrequencyMonths
}

func ValidFrequency(months int) bool { return allowedFrequencies[months] }

type Client struct {
	ID                   string
	Name                 string
	AMCFrequencyInMonths int
	AMCPercentage        *decimal.Decimal // overrides the order rate when set
}

// Frequency returns the client's billing cadence; nil clients bill yearly.
func (c *Client) Frequency() int {
	if c == nil {
		return DefaultFrequencyMonths
	}
	return NormalizeFrequency(c.AMCFrequencyInMonths)
}
