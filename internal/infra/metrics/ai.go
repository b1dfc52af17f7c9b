package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		aiCallsLatencyMs,
		aiRetriesTotal,
		aiRecoveryAttempts,
	)
}

var (
	aiCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_calls_latency_ms",
			Help:    "External generation call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 10000},
		},
		[]string{"provider", "op", "success"},
	)

	aiRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_retries_total",
			Help: "Retries performed against the generation API, by reason.",
		},
		[]string{"reason"}, // 'rate_limited', 'transport'
	)

	aiRecoveryAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_response_recovery_total",
			Help: "Response-recovery parser outcomes for structured model output.",
		},
		[]string{"parser", "outcome"}, // outcome: 'hit', 'miss'
	)
)

func ObserveAICall(provider, op string, latencyMs int, success bool) {
	aiCallsLatencyMs.WithLabelValues(norm(provider), norm(op), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}

func IncAIRetry(reason string) {
	aiRetriesTotal.WithLabelValues(norm(reason)).Inc()
}

func IncRecovery(parser, outcome string) {
	aiRecoveryAttempts.WithLabelValues(norm(parser), norm(outcome)).Inc()
}
