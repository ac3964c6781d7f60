package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	FIRsCreated        prometheus.Counter
	Transitions        *prometheus.CounterVec
	RoleAssignments    prometheus.Counter
	LedgerCommitTime   prometheus.Histogram
	AuditEventsDropped prometheus.Counter
	RequestDuration    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		FIRsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "firledger_firs_created_total",
			Help: "Total number of FIR records filed",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "firledger_transitions_total",
			Help: "Lifecycle transition attempts by action and outcome",
		}, []string{"action", "outcome"}),
		RoleAssignments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "firledger_role_assignments_total",
			Help: "Total number of accepted role assignments",
		}),
		LedgerCommitTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "firledger_ledger_commit_seconds",
			Help:    "Latency of ledger transaction commits",
			Buckets: prometheus.DefBuckets,
		}),
		AuditEventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "firledger_audit_events_dropped_total",
			Help: "Audit events dropped because the inbox was full",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "firledger_http_request_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// ObserveCommit records one ledger commit duration.
func (m *Metrics) ObserveCommit(d time.Duration) {
	m.LedgerCommitTime.Observe(d.Seconds())
}

// RecordTransition counts one transition attempt.
func (m *Metrics) RecordTransition(action, outcome string) {
	m.Transitions.WithLabelValues(action, outcome).Inc()
}
