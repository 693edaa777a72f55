package api

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/warp/amc-engine/amc"
)

// Metrics exposes Prometheus collectors for due-check activity.
type Metrics struct {
	runs        *prometheus.CounterVec
	outcomes    *prometheus.CounterVec
	newPayments prometheus.Counter
	duration    prometheus.Histogram
	lastSuccess prometheus.Gauge
}

// MustNewMetrics registers the collectors with reg. Collectors that are
// already registered are reused; any other registration error panics.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "amc",
			Subsystem: "due_check",
			Name:      "runs_total",
			Help:      "Due-check batches by final status.",
		}, []string{"status"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "amc",
			Subsystem: "due_check",
			Name:      "amcs_total",
			Help:      "AMCs visited by the due-check, by outcome.",
		}, []string{"outcome"}),
		newPayments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "amc",
			Subsystem: "due_check",
			Name:      "payments_created_total",
			Help:      "Payment periods appended by the due-check.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "amc",
			Subsystem: "due_check",
			Name:      "duration_seconds",
			Help:      "Wall time of one due-check batch.",
			Buckets:   prometheus.DefBuckets,
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "amc",
			Subsystem: "due_check",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last completed due-check.",
		}),
	}

	m.runs = register(reg, m.runs)
	m.outcomes = register(reg, m.outcomes)
	m.newPayments = register(reg, m.newPayments)
	m.duration = register(reg, m.duration)
	m.lastSuccess = register(reg, m.lastSuccess)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// ObserveDueCheck records one finished batch.
func (m *Metrics) ObserveDueCheck(result amc.DueCheckResult, err error, elapsed time.Duration, finished time.Time) {
	if m == nil {
		return
	}
	m.duration.Observe(elapsed.Seconds())
	if err != nil {
		m.runs.WithLabelValues("failed").Inc()
		return
	}
	m.runs.WithLabelValues("completed").Inc()
	m.outcomes.WithLabelValues("updated").Add(float64(result.Updated))
	m.outcomes.WithLabelValues("skipped").Add(float64(result.Skipped))
	m.outcomes.WithLabelValues("error").Add(float64(result.Errors))
	m.newPayments.Add(float64(result.NewPaymentsAdded))
	m.lastSuccess.Set(float64(finished.Unix()))
}
