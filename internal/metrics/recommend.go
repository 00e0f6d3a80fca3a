package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recommendation pipeline Prometheus metrics.
var (
	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kittylit",
			Name:      "decisions_total",
			Help:      "Rule engine evaluations by rule and whether the rule fired",
		},
		[]string{"rule", "fired"},
	)

	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kittylit",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by outcome",
		},
		[]string{"outcome"}, // hit / miss / stale / corrupt
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kittylit",
			Name:      "stage_duration_seconds",
			Help:      "Recommendation pipeline stage duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		},
		[]string{"stage"},
	)

	ResponsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kittylit",
			Name:      "responses_total",
			Help:      "Recommendation responses by fallback reason",
		},
		[]string{"fallback_reason"},
	)

	SafetyRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kittylit",
			Name:      "safety_rejections_total",
			Help:      "Candidates dropped by the safety filter, by reason",
		},
		[]string{"reason"},
	)

	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "kittylit",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

var recommendMetricsRegistered bool

// RegisterRecommendMetrics registers the pipeline metrics. Must be called once from main.
func RegisterRecommendMetrics() {
	if recommendMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		DecisionsTotal,
		CacheLookupsTotal,
		StageDuration,
		ResponsesTotal,
		SafetyRejectionsTotal,
		BreakerState,
	)
	recommendMetricsRegistered = true
}
