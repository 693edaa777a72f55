/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the billing UI

ROUTE GROUPS:
  /api/amcs/*       AMC documents and till-year catch-up
  /api/clients/*    Client billing settings
  /api/orders/*     Orders, status history, cost changes, review schedule
  /api/amc/*        Due-check trigger and run history
  /api/scenarios/*  Demo scenarios (dev only, resets data)
  /metrics          Prometheus scrape endpoint
  /healthz          Liveness

SECURITY NOTE:
  No authentication middleware. All endpoints are public; run behind a
  gateway that authenticates.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions carries the settings NewRouter needs beyond the handler.
type RouterOptions struct {
	AllowedOrigins []string
	Gatherer       prometheus.Gatherer // nil serves the default registry
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// AMC routes
		r.Route("/amcs", func(r chi.Router) {
			r.Get("/", h.ListAMCs)
			r.Get("/{id}", h.GetAMC)
			r.Delete("/{id}", h.DeleteAMC)
			r.Post("/{id}/payments/till-year", h.CreatePaymentsTillYear)
		})

		// Client routes
		r.Route("/clients", func(r chi.Router) {
			r.Post("/", h.CreateClient)
			r.Get("/{id}", h.GetClient)
		})

		// Order routes
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.CreateOrder)
			r.Get("/{id}", h.GetOrder)
			r.Get("/{id}/amc-schedule", h.ReviewSchedule)
			r.Post("/{id}/status", h.ChangeOrderStatus)
			r.Post("/{id}/agreements", h.AddAgreement)
			r.Post("/{id}/customizations", h.AddCustomization)
			r.Post("/{id}/licenses", h.AddLicense)
		})

		// Due check routes
		r.Route("/amc/due-check", func(r chi.Router) {
			r.Post("/", h.TriggerDueCheck)
			r.Get("/runs", h.ListDueCheckRuns)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
