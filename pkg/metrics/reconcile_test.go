package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestReconcileMetricsRegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReconcileMetrics(reg)

	m.IncSuccess("gateway_webhook")
	m.IncSuccess("gateway_webhook")
	m.IncFailure("admin_action")
	m.IncReplay()
	m.IncVoucherConflict()
	m.ObserveDuration("gateway_webhook", 50*time.Millisecond)

	if got := testutil.ToFloat64(m.success.WithLabelValues("gateway_webhook")); got != 2 {
		t.Fatalf("expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(m.failure.WithLabelValues("admin_action")); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.replays); got != 1 {
		t.Fatalf("expected 1 replay, got %v", got)
	}
	if got := testutil.ToFloat64(m.conflicts); got != 1 {
		t.Fatalf("expected 1 conflict, got %v", got)
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *ReconcileMetrics
	m.IncSuccess("x")
	m.IncFailure("x")
	m.IncReplay()
	m.IncVoucherConflict()
	m.ObserveDuration("x", time.Second)
}

func TestNormalizeLabel(t *testing.T) {
	if normalizeLabel("  Admin_Action ") != "admin_action" {
		t.Fatal("expected lowercase trimmed label")
	}
	if normalizeLabel("") != "unknown" {
		t.Fatal("expected unknown fallback")
	}
}
