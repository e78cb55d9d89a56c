package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		provisioningTotal,
		httpRequestsTotal,
	)
}

var (
	provisioningTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provisioning_total",
			Help: "Subscribe outcomes by pipeline branch (new_contact, already_active, reactivated, recreated, provisioned, rejected, failed).",
		},
		[]string{"branch"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Inbound API requests by method, path and status.",
		},
		[]string{"method", "path", "status"},
	)
)

func IncProvisioning(branch string) {
	provisioningTotal.WithLabelValues(norm(branch)).Inc()
}

func IncHTTPRequest(method, path, status string) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
}
