/*
handlers.go - HTTP API handlers for the AMC billing engine

PURPOSE:
  Exposes the AMC synchronizer via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to package amc.

ENDPOINTS:
  AMCs:
    GET    /api/amcs                          List live AMCs
    GET    /api/amcs/{id}                     AMC with payments and totals
    DELETE /api/amcs/{id}                     Soft-delete an AMC
    POST   /api/amcs/{id}/payments/till-year  Fill missing periods through a year

  Clients:
    POST   /api/clients                       Create/update client
    GET    /api/clients/{id}                  Client details

  Orders:
    POST   /api/orders                        Create order and open its AMC
    GET    /api/orders/{id}                   Order details
    GET    /api/orders/{id}/amc-schedule      Review schedule (inactivity applied)
    POST   /api/orders/{id}/status            Record active/inactive transition
    POST   /api/orders/{id}/agreements        Add agreement
    POST   /api/orders/{id}/customizations    Add customization (refreshes cost)
    POST   /api/orders/{id}/licenses          Add license (refreshes cost)

  Due check:
    POST   /api/amc/due-check                 Run the batch now
    GET    /api/amc/due-check/runs            Recent runs

  Scenarios:
    GET    /api/scenarios                     List demo scenarios
    POST   /api/scenarios/load                Reset and load a demo scenario

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access
  - Synchronizer: Billing operations
  - Scheduler: Singleton guard and run history for the due-check

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input (amc.IsClientError)
  - 404: Resource not found (amc.IsNotFound)
  - 409: Due check already running
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/amc-engine/amc"
	"github.com/warp/amc-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store        *sqlite.Store
	Synchronizer *amc.Synchronizer
	Scheduler    *DueCheckScheduler
	Logger       *slog.Logger

	// Track currently loaded scenario
	scenarioMu      sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler.
func NewHandler(store *sqlite.Store, syncer *amc.Synchronizer, scheduler *DueCheckScheduler, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:        store,
		Synchronizer: syncer,
		Scheduler:    scheduler,
		Logger:       logger.With("component", "api"),
	}
}

// =============================================================================
// AMC HANDLERS
// =============================================================================

// ListAMCs returns all live AMCs.
// GET /api/amcs
func (h *Handler) ListAMCs(w http.ResponseWriter, r *http.Request) {
	amcs, err := h.Store.ListAMCs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list AMCs", err)
		return
	}

	dtos := make([]AMCDTO, len(amcs))
	for i := range amcs {
		dtos[i] = toAMCDTO(&amcs[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetAMC returns one AMC with its payments.
// GET /api/amcs/{id}
func (h *Handler) GetAMC(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	a, err := h.Store.GetAMC(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get AMC", err)
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "AMC not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toAMCDTO(a))
}

// DeleteAMC soft-deletes an AMC. It is then ignored by every operation.
// DELETE /api/amcs/{id}
func (h *Handler) DeleteAMC(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	a, err := h.Store.GetAMC(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get AMC", err)
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "AMC not found", nil)
		return
	}
	if err := h.Store.SoftDeleteAMC(r.Context(), id, h.Synchronizer.Now()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete AMC", err)
		return
	}
	h.Logger.Info("amc deleted", "amc_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// CreatePaymentsTillYear fills missing periods through the requested year.
// POST /api/amcs/{id}/payments/till-year
func (h *Handler) CreatePaymentsTillYear(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req TillYearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.Synchronizer.CreatePaymentsTillYear(r.Context(), id, req.TillYear)
	if err != nil {
		writeDomainError(w, "Failed to create payments", err)
		return
	}

	writeJSON(w, http.StatusOK, TillYearResponse{
		AMCID:              result.AMCID,
		NewPaymentsCreated: result.NewPaymentsCreated,
		TotalPayments:      result.TotalPayments,
		TillYear:           result.TillYear,
		Message:            result.Message,
	})
}

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

// CreateClient creates or updates a client.
// POST /api/clients
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		writeError(w, http.StatusBadRequest, "id is required", nil)
		return
	}
	if req.AMCFrequencyInMonths == 0 {
		req.AMCFrequencyInMonths = amc.DefaultFrequencyMonths
	}
	if !amc.ValidFrequency(req.AMCFrequencyInMonths) {
		writeError(w, http.StatusBadRequest, "amc_frequency_in_months must be one of 1, 3, 6, 12, 18, 24", nil)
		return
	}
	if req.AMCPercentage != nil && req.AMCPercentage.IsNegative() {
		writeError(w, http.StatusBadRequest, "amc_percentage must not be negative", nil)
		return
	}

	client := amc.Client{
		ID:                   req.ID,
		Name:                 req.Name,
		AMCFrequencyInMonths: req.AMCFrequencyInMonths,
		AMCPercentage:        req.AMCPercentage,
	}
	if err := h.Store.SaveClient(r.Context(), client); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save client", err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientDTO(&client))
}

// GetClient returns a client.
// GET /api/clients/{id}
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	client, err := h.Store.GetClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get client", err)
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "Client not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(client))
}

// =============================================================================
// ORDER HANDLERS
// =============================================================================

// CreateOrder stores a new order and opens its AMC with the free first period.
// POST /api/orders
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.ID) == "" || strings.TrimSpace(req.ClientID) == "" {
		writeError(w, http.StatusBadRequest, "id and client_id are required", nil)
		return
	}

	existing, err := h.Store.GetOrder(ctx, req.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check order", err)
		return
	}
	if existing != nil {
		h.reopenOrder(w, r, existing)
		return
	}
	client, err := h.Store.GetClient(ctx, req.ClientID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get client", err)
		return
	}
	if client == nil {
		writeError(w, http.StatusBadRequest, "Unknown client_id", nil)
		return
	}

	order := amc.Order{
		ID:        req.ID,
		ClientID:  req.ClientID,
		Title:     req.Title,
		BaseCost:  req.BaseCost,
		AMCRate:   fromRateDTO(req.AMCRate),
		CreatedAt: h.Synchronizer.Now(),
	}
	if req.AMCStartDate != "" {
		start, err := parseDay(req.AMCStartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid amc_start_date", err)
			return
		}
		order.AMCStartDate = &start.Time
	}
	for _, c := range req.Customizations {
		order.Customizations = append(order.Customizations, amc.Customization{ID: c.ID, Title: c.Title, Cost: c.Cost})
	}
	for _, l := range req.Licenses {
		order.Licenses = append(order.Licenses, amc.License{ID: l.ID, Name: l.Name, TotalLicense: l.TotalLicense, Rate: fromRateDTO(l.Rate)})
	}
	for _, a := range req.Agreements {
		agreement, err := parseAgreement(a)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid agreement", err)
			return
		}
		order.Agreements = append(order.Agreements, agreement)
	}

	if err := h.Store.SaveOrder(ctx, order); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save order", err)
		return
	}
	opened, err := h.Synchronizer.OpenAMC(ctx, order.ID)
	if err != nil {
		writeDomainError(w, "Failed to open AMC", err)
		return
	}

	h.Logger.Info("order created", "order_id", order.ID, "amc_id", opened.ID)
	writeJSON(w, http.StatusCreated, CreateOrderResponse{Order: toOrderDTO(&order), AMC: toAMCDTO(opened)})
}

// reopenOrder answers a create for an order that is already stored. An order
// left without an AMC (a failed create, or a deleted AMC) gets one opened from
// its stored data; otherwise the create conflicts.
func (h *Handler) reopenOrder(w http.ResponseWriter, r *http.Request, order *amc.Order) {
	ctx := r.Context()

	current, err := h.Store.GetAMCByOrder(ctx, order.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check AMC", err)
		return
	}
	if current != nil {
		writeError(w, http.StatusConflict, "Order already exists", nil)
		return
	}
	opened, err := h.Synchronizer.OpenAMC(ctx, order.ID)
	if err != nil {
		writeDomainError(w, "Failed to open AMC", err)
		return
	}

	h.Logger.Info("amc reopened for existing order", "order_id", order.ID, "amc_id", opened.ID)
	writeJSON(w, http.StatusCreated, CreateOrderResponse{Order: toOrderDTO(order), AMC: toAMCDTO(opened)})
}

// GetOrder returns an order.
// GET /api/orders/{id}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(order))
}

// ReviewSchedule returns the order's full schedule with inactivity applied.
// GET /api/orders/{id}/amc-schedule
func (h *Handler) ReviewSchedule(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	schedule, err := h.Synchronizer.ReviewSchedule(r.Context(), orderID)
	if err != nil {
		writeDomainError(w, "Failed to review schedule", err)
		return
	}

	periods := make([]ScheduledPeriodDTO, len(schedule))
	for i, sp := range schedule {
		periods[i] = toScheduledPeriodDTO(sp)
	}
	writeJSON(w, http.StatusOK, ReviewScheduleResponse{OrderID: orderID, Periods: periods})
}

// ChangeOrderStatus records an active/inactive transition.
// POST /api/orders/{id}/status
func (h *Handler) ChangeOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req OrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	at := h.Synchronizer.Now()
	if req.Date != "" {
		parsed, err := parseInstant(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
		at = parsed
	}

	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	if err := order.RecordStatus(amc.OrderStatus(req.Status), at); err != nil {
		writeDomainError(w, "Failed to change status", err)
		return
	}
	if err := h.Store.SaveOrder(r.Context(), *order); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save order", err)
		return
	}
	h.Logger.Info("order status changed", "order_id", order.ID, "status", req.Status)
	writeJSON(w, http.StatusOK, toOrderDTO(order))
}

// AddAgreement attaches an agreement window to the order.
// POST /api/orders/{id}/agreements
func (h *Handler) AddAgreement(w http.ResponseWriter, r *http.Request) {
	var req AgreementDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	agreement, err := parseAgreement(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid agreement", err)
		return
	}

	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	order.Agreements = append(order.Agreements, agreement)
	if err := h.Store.SaveOrder(r.Context(), *order); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save order", err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderDTO(order))
}

// AddCustomization adds a customization and refreshes the AMC's cached cost.
// POST /api/orders/{id}/customizations
func (h *Handler) AddCustomization(w http.ResponseWriter, r *http.Request) {
	var req CustomizationDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.changeCost(w, r, func(o *amc.Order) {
		o.Customizations = append(o.Customizations, amc.Customization{ID: req.ID, Title: req.Title, Cost: req.Cost})
	})
}

// AddLicense adds a license and refreshes the AMC's cached cost.
// POST /api/orders/{id}/licenses
func (h *Handler) AddLicense(w http.ResponseWriter, r *http.Request) {
	var req LicenseDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.changeCost(w, r, func(o *amc.Order) {
		o.Licenses = append(o.Licenses, amc.License{
			ID: req.ID, Name: req.Name, TotalLicense: req.TotalLicense, Rate: fromRateDTO(req.Rate),
		})
	})
}

func (h *Handler) changeCost(w http.ResponseWriter, r *http.Request, mutate func(*amc.Order)) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	mutate(order)
	if err := h.Store.SaveOrder(r.Context(), *order); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save order", err)
		return
	}
	updated, err := h.Synchronizer.ApplyCostChange(r.Context(), order.ID)
	if err != nil {
		writeDomainError(w, "Failed to refresh AMC cost", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateOrderResponse{Order: toOrderDTO(order), AMC: toAMCDTO(updated)})
}

func (h *Handler) loadOrder(w http.ResponseWriter, r *http.Request) (*amc.Order, bool) {
	order, err := h.Store.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get order", err)
		return nil, false
	}
	if order == nil {
		writeError(w, http.StatusNotFound, "Order not found", nil)
		return nil, false
	}
	return order, true
}

// =============================================================================
// DUE CHECK HANDLERS
// =============================================================================

// TriggerDueCheck runs the due-check batch synchronously.
// POST /api/amc/due-check
func (h *Handler) TriggerDueCheck(w http.ResponseWriter, r *http.Request) {
	run, err := h.Scheduler.RunNow(r.Context())
	if errors.Is(err, ErrDueCheckRunning) {
		writeError(w, http.StatusConflict, "Due check already running", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Due check failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toDueCheckRunDTO(run))
}

// ListDueCheckRuns returns recent due-check runs, newest first.
// GET /api/amc/due-check/runs?limit=N
func (h *Handler) ListDueCheckRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", nil)
			return
		}
		limit = n
	}

	runs, err := h.Store.ListDueCheckRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}
	dtos := make([]DueCheckRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toDueCheckRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps amc error kinds to HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case amc.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case amc.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func parseDay(s string) (amc.Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return amc.Date{}, fmt.Errorf("expected YYYY-MM-DD: %w", err)
	}
	return amc.DateOf(t), nil
}

// parseInstant accepts RFC3339 or a bare date (midnight UTC).
func parseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := parseDay(s)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time, nil
}

func parseAgreement(a AgreementDTO) (amc.Agreement, error) {
	start, err := parseDay(a.StartDate)
	if err != nil {
		return amc.Agreement{}, fmt.Errorf("start_date: %w", err)
	}
	end, err := parseDay(a.EndDate)
	if err != nil {
		return amc.Agreement{}, fmt.Errorf("end_date: %w", err)
	}
	if !end.After(start) {
		return amc.Agreement{}, errors.New("end_date must be after start_date")
	}
	return amc.Agreement{Start: start, End: end, Document: a.Document}, nil
}
