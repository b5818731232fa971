package handler

import (
	"fmt"
	"net/http"

	"github.com/aiinterface/notifier/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "notifier_balance_check_runs_total{status=\"completed\"} %d\n", snap.BalanceChecksCompleted)
	writeMetric(w, "notifier_balance_check_runs_total{status=\"failed\"} %d\n", snap.BalanceChecksFailed)
	writeMetric(w, "notifier_balance_check_runs_total{status=\"locked\"} %d\n", snap.BalanceChecksLocked)
	writeMetric(w, "notifier_balance_check_duration_seconds_count %d\n", snap.BalanceCheckDurationCount)
	writeMetric(w, "notifier_balance_check_duration_seconds_sum %.6f\n", float64(snap.BalanceCheckDurationTotalNs)/1e9)
	writeMetric(w, "notifier_balance_check_candidates_total %d\n", snap.BalanceCheckCandidates)

	writeMetric(w, "notifier_low_balance_alerts_total{status=\"sent\"} %d\n", snap.LowBalanceAlertsSent)
	writeMetric(w, "notifier_low_balance_alerts_total{status=\"failed\"} %d\n", snap.LowBalanceAlertsFailed)

	writeMetric(w, "notifier_emails_total{status=\"sent\"} %d\n", snap.EmailsSent)
	writeMetric(w, "notifier_emails_total{status=\"failed\"} %d\n", snap.EmailsFailed)
	writeMetric(w, "notifier_emails_total{status=\"rejected\"} %d\n", snap.EmailsRejected)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
