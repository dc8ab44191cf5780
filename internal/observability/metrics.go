package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// warden-api metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"route", "method", "code"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "warden_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	ActiveRequests = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "warden_active_requests",
		Help: "Current in-flight requests",
	})

	// reconciler metrics
	OperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_operations_total",
		Help: "Operation completion count",
	}, []string{"type", "status"})

	OperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "warden_operation_duration_seconds",
		Help:    "Operation execution duration against the provisioner backend",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"type"})

	PendingOperations = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "warden_pending_operations",
		Help: "Operations waiting for a reconciler tick",
	})

	ProvisionTimeoutsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "warden_provision_timeouts_total",
		Help: "Backend calls that hit the provision timeout",
	})

	WorkspaceStateTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_workspace_state_transitions_total",
		Help: "Workspace status transition count",
	}, []string{"from", "to"})

	// janitor metrics
	JanitorSweepsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "warden_janitor_sweeps_total",
		Help: "Completed janitor sweeps",
	})

	JanitorExpiredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_janitor_expired_total",
		Help: "TTL-expired workspaces handled by the janitor",
	}, []string{"result"})
)

func RegisterAll(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, ActiveRequests,
		OperationsTotal, OperationDuration, PendingOperations,
		ProvisionTimeoutsTotal, WorkspaceStateTransitions,
		JanitorSweepsTotal, JanitorExpiredTotal,
	)
}
