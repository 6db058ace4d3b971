package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReconcileMetrics records outcomes of the payment reconciliation paths.
type ReconcileMetrics struct {
	duration  *prometheus.HistogramVec
	success   *prometheus.CounterVec
	failure   *prometheus.CounterVec
	replays   prometheus.Counter
	conflicts prometheus.Counter
}

// NewReconcileMetrics registers the reconciliation metrics on the provided registerer.
func NewReconcileMetrics(reg prometheus.Registerer) *ReconcileMetrics {
	if reg == nil {
		return &ReconcileMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reconcile_duration_seconds",
		Help:    "Duration of payment reconciliation transitions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"trigger"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_success",
		Help: "Successful payment reconciliation transitions.",
	}, []string{"trigger"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_failure",
		Help: "Failed payment reconciliation transitions.",
	}, []string{"trigger"})
	replays := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconcile_replays",
		Help: "Reconciliation calls that were no-op replays of an already settled event.",
	})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "voucher_decrement_conflicts",
		Help: "Voucher balance CAS conflicts observed during consumption.",
	})
	reg.MustRegister(duration, success, failure, replays, conflicts)
	return &ReconcileMetrics{
		duration:  duration,
		success:   success,
		failure:   failure,
		replays:   replays,
		conflicts: conflicts,
	}
}

// ObserveDuration records how long the named trigger's transition took.
func (m *ReconcileMetrics) ObserveDuration(trigger string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(trigger)).Observe(d.Seconds())
}

// IncSuccess increments the success counter for the named trigger.
func (m *ReconcileMetrics) IncSuccess(trigger string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(trigger)).Inc()
}

// IncFailure increments the failure counter for the named trigger.
func (m *ReconcileMetrics) IncFailure(trigger string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(trigger)).Inc()
}

// IncReplay counts an idempotent no-op replay.
func (m *ReconcileMetrics) IncReplay() {
	if m == nil || m.replays == nil {
		return
	}
	m.replays.Inc()
}

// IncVoucherConflict counts a voucher CAS conflict.
func (m *ReconcileMetrics) IncVoucherConflict() {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.Inc()
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return value
}
