package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	ManifestTransitions *prometheus.CounterVec
	Evaluations         *prometheus.CounterVec
	AuditEntries        prometheus.Counter
	AuditFailures       prometheus.Counter
	ExportsTotal        *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		ManifestTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "manifestgate_manifest_transitions_total",
			Help: "Total number of manifest lifecycle transitions",
		}, []string{"from", "to"}),
		Evaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "manifestgate_evaluations_total",
			Help: "Total number of compliance evaluations by kind and outcome",
		}, []string{"kind", "outcome"}),
		AuditEntries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "manifestgate_audit_entries_total",
			Help: "Total number of audit ledger entries written",
		}),
		AuditFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "manifestgate_audit_failures_total",
			Help: "Total number of audit ledger appends that degraded to a log line",
		}),
		ExportsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "manifestgate_manifest_exports_total",
			Help: "Total number of manifest exports by format",
		}, []string{"format"}),
	}
}

// ObserveManifestTransition records one lifecycle transition.
func (m *Metrics) ObserveManifestTransition(from, to string) {
	m.ManifestTransitions.WithLabelValues(from, to).Inc()
}

// ObserveEvaluation records one compliance evaluation outcome.
func (m *Metrics) ObserveEvaluation(kind, outcome string) {
	m.Evaluations.WithLabelValues(kind, outcome).Inc()
}

// IncrementAuditEntries increments the audit entry counter by 1.
func (m *Metrics) IncrementAuditEntries() {
	m.AuditEntries.Inc()
}

// IncrementAuditFailures counts an append that could not be persisted.
func (m *Metrics) IncrementAuditFailures() {
	m.AuditFailures.Inc()
}

// ObserveExport records one manifest export.
func (m *Metrics) ObserveExport(format string) {
	m.ExportsTotal.WithLabelValues(format).Inc()
}
