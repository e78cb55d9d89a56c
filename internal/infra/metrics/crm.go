package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		crmCallsTotal,
		crmCallLatencyMs,
	)
}

var (
	crmCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_calls_total",
			Help: "CRM calls by operation and outcome (ok/failed/timeout).",
		},
		[]string{"operation", "outcome"},
	)

	crmCallLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crm_call_latency_ms",
			Help:    "CRM call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"operation", "outcome"},
	)
)

func norm(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "_"))
}

// ObserveCRMCall records one CRM call's outcome and latency.
func ObserveCRMCall(operation, outcome string, ms float64) {
	crmCallsTotal.WithLabelValues(norm(operation), norm(outcome)).Inc()
	crmCallLatencyMs.WithLabelValues(norm(operation), norm(outcome)).Observe(ms)
}
