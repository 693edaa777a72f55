package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_AllLoad(t *testing.T) {
	ts := newTestServer(t)

	for _, s := range scenarios {
		t.Run(s.ID, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: s.ID})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			rec = ts.do(t, http.MethodGet, "/api/amcs", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Len(t, decode[[]AMCDTO](t, rec), 1, "each scenario seeds exactly one AMC")

			rec = ts.do(t, http.MethodGet, "/api/scenarios/current", nil)
			assert.Equal(t, s.ID, decode[ScenarioDTO](t, rec).ID)
		})
	}
	assert.Len(t, scenarioLoaders, len(scenarios))
}

func TestScenario_YearlyBacklogCatchesUp(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK,
		ts.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "yearly-backlog"}).Code)

	// WHEN: The due check runs on 2025-01-10 for an AMC started 2022-01-01
	rec := ts.do(t, http.MethodPost, "/api/amc/due-check", nil)

	// THEN: 2023, 2024 and 2025 are appended
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[DueCheckRunDTO](t, rec).Result.NewPaymentsAdded)
}

func TestScenario_InactiveOrderReview(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK,
		ts.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "inactive-order"}).Code)

	rec := ts.do(t, http.MethodGet, "/api/orders/ord-initech-hr/amc-schedule", nil)

	// THEN: 2022 (free), 2024 and 2025 remain; 2023 was spent inactive
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	periods := decode[ReviewScheduleResponse](t, rec).Periods
	require.Len(t, periods, 3)
	assert.Equal(t, []int{0, 2, 3}, []int{periods[0].Index, periods[1].Index, periods[2].Index})
	for _, p := range periods {
		assert.True(t, p.Persisted, "till-year filled every period through this year")
	}
}

func TestScenario_PaymentHistoryTotals(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK,
		ts.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "payment-history"}).Code)

	rec := ts.do(t, http.MethodGet, "/api/amcs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	amcs := decode[[]AMCDTO](t, rec)
	require.Len(t, amcs, 1)

	// 80000 at 12.5% is 10000 per half-year; one paid, one half paid
	a := amcs[0]
	require.Len(t, a.Payments, 4)
	assert.Equal(t, "paid", a.Payments[1].Status)
	assert.Equal(t, "partial", a.Payments[2].Status)
	assert.Equal(t, "15000", a.AmountCollected.String())
	assert.Equal(t, "15000", a.AmountOutstanding.String())
}

func TestLoadScenario_Unknown(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetDatabase(t *testing.T) {
	ts := newTestServer(t)
	ts.seedYearlyOrder(t)

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/scenarios/reset", nil).Code)

	rec := ts.do(t, http.MethodGet, "/api/amcs", nil)
	assert.Empty(t, decode[[]AMCDTO](t, rec))
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/orders/o1", nil).Code)
}
