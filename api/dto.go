/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the billing model in package amc from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY AND DATES:
  Money fields are decimal.Decimal and marshal as JSON strings ("150.25").
  Requests accept either strings or numbers. Period dates use "2006-01-02";
  instants (received dates, status changes, audit stamps) use RFC3339.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - amc/types.go: Domain types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/amc-engine/amc"
	"github.com/warp/amc-engine/store/sqlite"
)

// =============================================================================
// AMC
// =============================================================================

// PaymentDTO represents one billing period.
type PaymentDTO struct {
	FromDate            string          `json:"from_date"`
	ToDate              string          `json:"to_date"`
	Status              string          `json:"status"`
	IsFree              bool            `json:"is_free"`
	AMCRateApplied      decimal.Decimal `json:"amc_rate_applied"`
	AMCRateAmount       decimal.Decimal `json:"amc_rate_amount"`
	TotalCost           decimal.Decimal `json:"total_cost"`
	ReceivedDate        *string         `json:"received_date,omitempty"`
	ReceivedAmount      decimal.Decimal `json:"received_amount"`
	InvoiceNumber       string          `json:"invoice_number,omitempty"`
	PurchaseOrderNumber string          `json:"purchase_order_number,omitempty"`
}

// AMCDTO represents a maintenance contract with its payments.
type AMCDTO struct {
	ID                string          `json:"id"`
	OrderID           string          `json:"order_id"`
	ClientID          string          `json:"client_id"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	Amount            decimal.Decimal `json:"amount"`
	AMCPercentage     decimal.Decimal `json:"amc_percentage"`
	AmountCollected   decimal.Decimal `json:"amount_collected"`
	AmountOutstanding decimal.Decimal `json:"amount_outstanding"`
	Payments          []PaymentDTO    `json:"payments"`
	CreatedAt         string          `json:"created_at,omitempty"`
	UpdatedAt         string          `json:"updated_at,omitempty"`
}

// ScheduledPeriodDTO is one row of the review schedule.
type ScheduledPeriodDTO struct {
	Index             int             `json:"index"`
	FromDate          string          `json:"from_date"`
	ToDate            string          `json:"to_date"`
	IsFree            bool            `json:"is_free"`
	IsInactive        bool            `json:"is_inactive"`
	PartiallyInactive bool            `json:"partially_inactive"`
	Persisted         bool            `json:"persisted"`
	Status            string          `json:"status"`
	AMCRateApplied    decimal.Decimal `json:"amc_rate_applied"`
	AMCRateAmount     decimal.Decimal `json:"amc_rate_amount"`
	TotalCost         decimal.Decimal `json:"total_cost"`
}

// ReviewScheduleResponse wraps the schedule of one order.
type ReviewScheduleResponse struct {
	OrderID string               `json:"order_id"`
	Periods []ScheduledPeriodDTO `json:"periods"`
}

// TillYearRequest is the request to fill payments through a year.
type TillYearRequest struct {
	TillYear int `json:"till_year"`
}

// TillYearResponse reports what CreatePaymentsTillYear did.
type TillYearResponse struct {
	AMCID              string `json:"amc_id"`
	NewPaymentsCreated int    `json:"new_payments_created"`
	TotalPayments      int    `json:"total_payments"`
	TillYear           int    `json:"till_year"`
	Message            string `json:"message"`
}

// =============================================================================
// CLIENTS AND ORDERS
// =============================================================================

// ClientDTO represents a client in requests and responses.
type ClientDTO struct {
	ID                   string           `json:"id"`
	Name                 string           `json:"name"`
	AMCFrequencyInMonths int              `json:"amc_frequency_in_months"`
	AMCPercentage        *decimal.Decimal `json:"amc_percentage,omitempty"`
}

// RateDTO is a percentage and/or per-unit amount.
type RateDTO struct {
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
}

// CustomizationDTO is a one-off cost added to an order.
type CustomizationDTO struct {
	ID    string           `json:"id"`
	Title string           `json:"title"`
	Cost  *decimal.Decimal `json:"cost,omitempty"`
}

// LicenseDTO is a licensed line item billed per unit.
type LicenseDTO struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	TotalLicense *decimal.Decimal `json:"total_license,omitempty"`
	Rate         RateDTO          `json:"rate"`
}

// AgreementDTO is a signed maintenance agreement window.
type AgreementDTO struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Document  string `json:"document,omitempty"`
}

// StatusLogDTO is one order status transition.
type StatusLogDTO struct {
	Date string `json:"date"`
	From string `json:"from"`
	To   string `json:"to"`
}

// OrderDTO represents an order in API responses.
type OrderDTO struct {
	ID             string             `json:"id"`
	ClientID       string             `json:"client_id"`
	Title          string             `json:"title"`
	Status         string             `json:"status"`
	AMCStartDate   *string            `json:"amc_start_date,omitempty"`
	BaseCost       *decimal.Decimal   `json:"base_cost,omitempty"`
	AMCRate        RateDTO            `json:"amc_rate"`
	Customizations []CustomizationDTO `json:"customizations"`
	Licenses       []LicenseDTO       `json:"licenses"`
	Agreements     []AgreementDTO     `json:"agreements"`
	StatusLogs     []StatusLogDTO     `json:"status_logs"`
}

// CreateOrderRequest creates an order and opens its AMC.
type CreateOrderRequest struct {
	ID             string             `json:"id"`
	ClientID       string             `json:"client_id"`
	Title          string             `json:"title"`
	AMCStartDate   string             `json:"amc_start_date"`
	BaseCost       *decimal.Decimal   `json:"base_cost,omitempty"`
	AMCRate        RateDTO            `json:"amc_rate"`
	Customizations []CustomizationDTO `json:"customizations,omitempty"`
	Licenses       []LicenseDTO       `json:"licenses,omitempty"`
	Agreements     []AgreementDTO     `json:"agreements,omitempty"`
}

// CreateOrderResponse returns the order with its new AMC.
type CreateOrderResponse struct {
	Order OrderDTO `json:"order"`
	AMC   AMCDTO   `json:"amc"`
}

// OrderStatusRequest records an active/inactive transition. Date defaults to now.
type OrderStatusRequest struct {
	Status string `json:"status"`
	Date   string `json:"date,omitempty"`
}

// =============================================================================
// DUE CHECK
// =============================================================================

// DueCheckResultDTO summarizes one batch.
type DueCheckResultDTO struct {
	Processed        int `json:"processed"`
	Updated          int `json:"updated"`
	Skipped          int `json:"skipped"`
	Errors           int `json:"errors"`
	NewPaymentsAdded int `json:"new_payments_added"`
}

// DueCheckRunDTO is a recorded batch execution.
type DueCheckRunDTO struct {
	ID          string            `json:"id"`
	Status      string            `json:"status"`
	Result      DueCheckResultDTO `json:"result"`
	Error       string            `json:"error,omitempty"`
	StartedAt   string            `json:"started_at"`
	CompletedAt *string           `json:"completed_at,omitempty"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toPaymentDTO(p amc.Payment, index int) PaymentDTO {
	dto := PaymentDTO{
		FromDate:            p.FromDate.String(),
		ToDate:              p.ToDate.String(),
		Status:              string(p.Status),
		IsFree:              index == amc.FreePeriodIndex,
		AMCRateApplied:      p.AMCRateApplied,
		AMCRateAmount:       p.AMCRateAmount,
		TotalCost:           p.TotalCost,
		ReceivedAmount:      p.ReceivedAmount,
		InvoiceNumber:       p.InvoiceNumber,
		PurchaseOrderNumber: p.PurchaseOrderNumber,
	}
	if p.ReceivedDate != nil {
		dto.ReceivedDate = strPtr(p.ReceivedDate.UTC().Format(time.RFC3339))
	}
	return dto
}

func toAMCDTO(a *amc.AMC) AMCDTO {
	payments := make([]PaymentDTO, len(a.Payments))
	for i, p := range a.Payments {
		payments[i] = toPaymentDTO(p, i)
	}
	return AMCDTO{
		ID:                a.ID,
		OrderID:           a.OrderID,
		ClientID:          a.ClientID,
		TotalCost:         a.TotalCost,
		Amount:            a.Amount,
		AMCPercentage:     a.AMCPercentage,
		AmountCollected:   a.AmountCollected(),
		AmountOutstanding: a.AmountOutstanding(),
		Payments:          payments,
		CreatedAt:         formatInstant(a.CreatedAt),
		UpdatedAt:         formatInstant(a.UpdatedAt),
	}
}

func toScheduledPeriodDTO(sp amc.ScheduledPeriod) ScheduledPeriodDTO {
	return ScheduledPeriodDTO{
		Index:             sp.Index,
		FromDate:          sp.From.String(),
		ToDate:            sp.To.String(),
		IsFree:            sp.IsFree,
		IsInactive:        sp.IsInactive,
		PartiallyInactive: sp.PartiallyInactive,
		Persisted:         sp.Persisted,
		Status:            string(sp.Payment.Status),
		AMCRateApplied:    sp.Payment.AMCRateApplied,
		AMCRateAmount:     sp.Payment.AMCRateAmount,
		TotalCost:         sp.Payment.TotalCost,
	}
}

func toClientDTO(c *amc.Client) ClientDTO {
	return ClientDTO{
		ID:                   c.ID,
		Name:                 c.Name,
		AMCFrequencyInMonths: c.Frequency(),
		AMCPercentage:        c.AMCPercentage,
	}
}

func toRateDTO(r amc.Rate) RateDTO { return RateDTO{Percentage: r.Percentage, Amount: r.Amount} }

func fromRateDTO(r RateDTO) amc.Rate { return amc.Rate{Percentage: r.Percentage, Amount: r.Amount} }

func toOrderDTO(o *amc.Order) OrderDTO {
	dto := OrderDTO{
		ID:             o.ID,
		ClientID:       o.ClientID,
		Title:          o.Title,
		Status:         string(o.CurrentStatus()),
		BaseCost:       o.BaseCost,
		AMCRate:        toRateDTO(o.AMCRate),
		Customizations: make([]CustomizationDTO, len(o.Customizations)),
		Licenses:       make([]LicenseDTO, len(o.Licenses)),
		Agreements:     make([]AgreementDTO, len(o.Agreements)),
		StatusLogs:     make([]StatusLogDTO, len(o.StatusLogs)),
	}
	if start := o.StartDate(); !start.IsZero() {
		dto.AMCStartDate = strPtr(start.String())
	}
	for i, c := range o.Customizations {
		dto.Customizations[i] = CustomizationDTO{ID: c.ID, Title: c.Title, Cost: c.Cost}
	}
	for i, l := range o.Licenses {
		dto.Licenses[i] = LicenseDTO{ID: l.ID, Name: l.Name, TotalLicense: l.TotalLicense, Rate: toRateDTO(l.Rate)}
	}
	for i, a := range o.Agreements {
		dto.Agreements[i] = AgreementDTO{StartDate: a.Start.String(), EndDate: a.End.String(), Document: a.Document}
	}
	for i, l := range o.StatusLogs {
		dto.StatusLogs[i] = StatusLogDTO{Date: formatInstant(l.Date), From: string(l.From), To: string(l.To)}
	}
	return dto
}

func toDueCheckResultDTO(r amc.DueCheckResult) DueCheckResultDTO {
	return DueCheckResultDTO{
		Processed:        r.Processed,
		Updated:          r.Updated,
		Skipped:          r.Skipped,
		Errors:           r.Errors,
		NewPaymentsAdded: r.NewPaymentsAdded,
	}
}

func toDueCheckRunDTO(r sqlite.DueCheckRun) DueCheckRunDTO {
	dto := DueCheckRunDTO{
		ID:        r.ID,
		Status:    r.Status,
		Result:    toDueCheckResultDTO(r.Result),
		Error:     r.Error,
		StartedAt: formatInstant(r.StartedAt),
	}
	if r.CompletedAt != nil {
		dto.CompletedAt = strPtr(formatInstant(*r.CompletedAt))
	}
	return dto
}

func formatInstant(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func strPtr(s string) *string {
	return &s
}
