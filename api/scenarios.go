/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	billing data. Each scenario creates clients, orders and their AMCs in a
	state that shows one behaviour of the engine. Dates are relative to the
	synchronizer clock so scenarios stay meaningful whenever they are loaded.

AVAILABLE SCENARIOS:

	yearly-backlog:      Yearly AMC with three years of missing periods
	quarterly-agreement: Quarterly billing ahead of an agreement end date
	inactive-order:      A year of inactivity dropped from the review schedule
	payment-history:     Paid and partial periods with outstanding totals

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create client
 3. Create order with cost basis, agreements, status history
 4. Open the AMC (free first period)
 5. Optionally fill periods or mark them paid

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "yearly-backlog"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Order and AMC handlers
  - amc/sync.go: OpenAMC, CreatePaymentsTillYear
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/amc-engine/amc"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "yearly-backlog",
		Name:        "Yearly Backlog",
		Description: "Yearly AMC started three years ago with only its free period; run the due check to catch up",
	},
	{
		ID:          "quarterly-agreement",
		Name:        "Quarterly Agreement",
		Description: "Quarterly billing with a client rate override, licenses and a two-year agreement",
	},
	{
		ID:          "inactive-order",
		Name:        "Inactive Order",
		Description: "Order inactive for its second year; the review schedule drops that period",
	},
	{
		ID:          "payment-history",
		Name:        "Payment History",
		Description: "Paid and partially paid periods showing collected and outstanding amounts",
	},
}

type scenarioLoader func(h *Handler, ctx context.Context, today amc.Date) error

var scenarioLoaders = map[string]scenarioLoader{
	"yearly-backlog":      (*Handler).loadYearlyBacklogScenario,
	"quarterly-agreement": (*Handler).loadQuarterlyAgreementScenario,
	"inactive-order":      (*Handler).loadInactiveOrderScenario,
	"payment-history":     (*Handler).loadPaymentHistoryScenario,
}

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.Lock()
	current := h.currentScenario
	h.scenarioMu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads a scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	load, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	if err := load(h, ctx, amc.DateOf(h.Synchronizer.Now())); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID

	h.Logger.Info("scenario loaded", "scenario", req.ScenarioID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadYearlyBacklogScenario(ctx context.Context, today amc.Date) error {
	client := amc.Client{ID: "acme", Name: "Acme Manufacturing", AMCFrequencyInMonths: 12}
	start := amc.NewDate(today.Year()-3, time.January, 1)
	order := amc.Order{
		ID:       "ord-acme-erp",
		ClientID: client.ID,
		Title:    "ERP implementation",
		BaseCost: money("100000"),
		AMCRate:  amc.Rate{Percentage: money("18")},
	}
	_, err := h.seedOrder(ctx, client, order, start)
	return err
}

func (h *Handler) loadQuarterlyAgreementScenario(ctx context.Context, today amc.Date) error {
	client := amc.Client{
		ID:                   "globex",
		Name:                 "Globex Retail",
		AMCFrequencyInMonths: 3,
		AMCPercentage:        money("20"),
	}
	start := amc.NewDate(today.Year(), today.Month(), 1).AddMonths(-6)
	order := amc.Order{
		ID:       "ord-globex-pos",
		ClientID: client.ID,
		Title:    "Point of sale rollout",
		BaseCost: money("40000"),
		AMCRate:  amc.Rate{Percentage: money("15")},
		Customizations: []amc.Customization{
			{ID: "cust-loyalty", Title: "Loyalty module", Cost: money("5000")},
		},
		Licenses: []amc.License{
			{ID: "lic-terminals", Name: "Terminal seats", TotalLicense: money("25"), Rate: amc.Rate{Amount: money("400")}},
		},
		Agreements: []amc.Agreement{
			{Start: start, End: start.AddMonths(24), Document: "globex-amc-agreement.pdf"},
		},
	}
	_, err := h.seedOrder(ctx, client, order, start)
	return err
}

func (h *Handler) loadInactiveOrderScenario(ctx context.Context, today amc.Date) error {
	client := amc.Client{ID: "initech", Name: "Initech", AMCFrequencyInMonths: 12}
	start := amc.NewDate(today.Year()-3, time.January, 1)
	order := amc.Order{
		ID:       "ord-initech-hr",
		ClientID: client.ID,
		Title:    "HR portal",
		BaseCost: money("60000"),
		AMCRate:  amc.Rate{Percentage: money("15")},
	}
	if err := order.RecordStatus(amc.OrderInactive, start.AddMonths(12).Time); err != nil {
		return err
	}
	if err := order.RecordStatus(amc.OrderActive, start.AddMonths(24).Time); err != nil {
		return err
	}

	opened, err := h.seedOrder(ctx, client, order, start)
	if err != nil {
		return err
	}
	_, err = h.Synchronizer.CreatePaymentsTillYear(ctx, opened.ID, today.Year())
	return err
}

func (h *Handler) loadPaymentHistoryScenario(ctx context.Context, today amc.Date) error {
	client := amc.Client{ID: "umbrella", Name: "Umbrella Labs", AMCFrequencyInMonths: 6}
	start := amc.NewDate(today.Year()-2, time.April, 1)
	order := amc.Order{
		ID:       "ord-umbrella-lims",
		ClientID: client.ID,
		Title:    "Laboratory information system",
		BaseCost: money("80000"),
		AMCRate:  amc.Rate{Percentage: money("12.5")},
	}
	opened, err := h.seedOrder(ctx, client, order, start)
	if err != nil {
		return err
	}
	if _, err := h.Synchronizer.CreatePaymentsTillYear(ctx, opened.ID, today.Year()-1); err != nil {
		return err
	}

	a, err := h.Store.GetAMC(ctx, opened.ID)
	if err != nil {
		return err
	}
	if a == nil || len(a.Payments) < 3 {
		return fmt.Errorf("expected at least 3 payments on %s", opened.ID)
	}
	for i := range a.Payments {
		p := &a.Payments[i]
		received := p.FromDate.AddMonths(1).Time
		switch {
		case a.IsFree(i):
			continue
		case i == 1:
			p.Status = amc.StatusPaid
			p.ReceivedDate = &received
			p.ReceivedAmount = p.AMCRateAmount
			p.InvoiceNumber = fmt.Sprintf("INV-%s-%d", p.FromDate.Format("200601"), i)
		case i == 2:
			p.Status = amc.StatusPartial
			p.ReceivedDate = &received
			p.ReceivedAmount = p.AMCRateAmount.Div(decimal.NewFromInt(2)).Round(2)
			p.PurchaseOrderNumber = "PO-UMB-2291"
		}
	}
	return h.Store.SaveAMC(ctx, *a)
}

// seedOrder saves client and order (with the AMC start date) and opens the AMC.
func (h *Handler) seedOrder(ctx context.Context, client amc.Client, order amc.Order, start amc.Date) (*amc.AMC, error) {
	if err := h.Store.SaveClient(ctx, client); err != nil {
		return nil, err
	}
	order.AMCStartDate = &start.Time
	order.CreatedAt = start.Time
	if err := h.Store.SaveOrder(ctx, order); err != nil {
		return nil, err
	}
	return h.Synchronizer.OpenAMC(ctx, order.ID)
}

func money(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
