package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PermissionDecisions counts permission evaluations per operation and outcome (allow|deny).
	PermissionDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clothingloop_permission_decisions_total",
			Help: "Total number of permission decisions",
		},
		[]string{"operation", "result"},
	)

	// LoginAttempts records magic link validations by result (success|failure).
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clothingloop_login_attempts_total",
			Help: "Total number of login link validations",
		},
		[]string{"result"},
	)

	// MailsEnqueued counts mails written to the queue by kind.
	MailsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clothingloop_mails_enqueued_total",
			Help: "Total number of mails enqueued",
		},
		[]string{"kind"},
	)

	// MailsDispatched counts delivery attempts by result (sent|failed).
	MailsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clothingloop_mails_dispatched_total",
			Help: "Total number of mail delivery attempts",
		},
		[]string{"result"},
	)

	// PendingMails tracks the size of the pending queue after each dispatch run.
	PendingMails = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clothingloop_pending_mails",
			Help: "Number of mails waiting for delivery",
		},
	)

	// HealthCheckStatus exposes the last probe result per component (1 up, 0.5 degraded, 0 down).
	HealthCheckStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "clothingloop_health_check_status",
			Help: "Last health probe result per component",
		},
		[]string{"probe", "component"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clothingloop_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestsInFlight is the number of requests currently being served.
	RequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clothingloop_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)

	// MaintenanceRuns counts background job runs by job and result.
	MaintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clothingloop_maintenance_runs_total",
			Help: "Background maintenance job runs",
		},
		[]string{"job", "result"},
	)

	// PanicsRecovered counts handler panics turned into 500 responses.
	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clothingloop_http_panics_recovered_total",
			Help: "Handler panics recovered by route",
		},
		[]string{"route"},
	)
)
