package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kpp-all/drip-bot/internal/errors"
	"github.com/kpp-all/drip-bot/internal/progression"
)

var (
	botUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Total number of handled bot updates labeled by handler and status",
		},
		[]string{"handler", "status"},
	)
	updateDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "update_duration_seconds",
			Help:    "Duration of bot update handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler"},
	)
	progressionDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progression_decisions_total",
			Help: "Total number of progression decisions by outcome",
		},
		[]string{"outcome"},
	)
	storeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_requests_total",
			Help: "Total number of tabular store requests by operation and status",
		},
		[]string{"op", "status"},
	)
	storeRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_request_duration_seconds",
			Help:    "Latency of tabular store requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
	circuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state per breaker: 0 closed, 1 open, 2 half-open",
		},
		[]string{"name"},
	)
	activeEnrollments = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_enrollments",
			Help: "Number of active bound enrollments seen by the last registry scan",
		},
	)
)

func init() {
	errors.RegisterBreakerStateRecorder(RecordBreakerState)
	progression.RegisterDecisionRecorder(RecordDecision)
}

// RecordUpdate increments update counters and records duration.
func RecordUpdate(handler, status string, duration time.Duration) {
	if handler == "" {
		handler = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botUpdatesTotal.WithLabelValues(handler, status).Inc()
	updateDurationSeconds.WithLabelValues(handler).Observe(duration.Seconds())
}

// RecordDecision tracks progression outcomes.
func RecordDecision(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}

	progressionDecisionsTotal.WithLabelValues(outcome).Inc()
}

// RecordStoreRequest tracks one call against the tabular store.
func RecordStoreRequest(op, status string, duration time.Duration) {
	if op == "" {
		op = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	storeRequestsTotal.WithLabelValues(op, status).Inc()
	storeRequestDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordBreakerState exports circuit breaker state changes.
func RecordBreakerState(name string, state errors.BreakerState) {
	if name == "" {
		name = "unknown"
	}

	circuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// SetActiveEnrollments updates the active enrollments gauge.
func SetActiveEnrollments(count int) {
	activeEnrollments.Set(float64(count))
}
