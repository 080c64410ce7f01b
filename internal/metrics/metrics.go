package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline metrics
	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "corpquery_sessions_started_total",
			Help: "Total number of query sessions started",
		},
	)

	SessionsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corpquery_sessions_completed_total",
			Help: "Total number of query sessions completed",
		},
		[]string{"outcome"}, // answered|not_traded|exhausted|error
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "corpquery_stage_duration_seconds",
			Help:    "Duration of each pipeline stage",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"}, // resolve|retrieve|evaluate|verify
	)

	PipelineRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "corpquery_pipeline_retries_total",
			Help: "Full-pipeline retries after a failed verification round",
		},
	)

	// Evaluator metrics
	Verdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corpquery_verdicts_total",
			Help: "Evaluator and validator verdict distribution",
		},
		[]string{"verdict"}, // sufficient|irrelevant|incomplete|valid|invalid
	)

	// Retrieval metrics
	HandlerInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corpquery_handler_invocations_total",
			Help: "Retrieval handler invocations by handler and status",
		},
		[]string{"handler", "status"},
	)

	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corpquery_provider_calls_total",
			Help: "External provider calls by provider and status",
		},
		[]string{"provider", "status"},
	)

	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "corpquery_provider_latency_seconds",
			Help:    "External provider call latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	// Model metrics
	ModelCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corpquery_model_calls_total",
			Help: "Language model calls by purpose and status",
		},
		[]string{"purpose", "status"},
	)

	MalformedModelOutput = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corpquery_malformed_model_output_total",
			Help: "Model responses that failed shape validation and fell back to defaults",
		},
		[]string{"purpose"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "corpquery_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corpquery_circuit_breaker_trips_total",
			Help: "Circuit breaker transitions to open",
		},
		[]string{"name"},
	)
)

// RecordProviderCall records one provider call outcome with latency.
func RecordProviderCall(provider, status string, seconds float64) {
	ProviderCalls.WithLabelValues(provider, status).Inc()
	ProviderLatency.WithLabelValues(provider).Observe(seconds)
}
