package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCronJobMetricsRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCronJobMetrics(reg)
	metrics.now = func() time.Time { return time.Unix(1767600000, 0) }

	metrics.ObserveRun("vault-reconciliation", 250*time.Millisecond, nil)
	metrics.ObserveRun("vault-reconciliation", time.Second, errors.New("drift"))
	metrics.ObserveRun("", time.Millisecond, nil)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	runs := findMetricFamily(mfs, "cashvault_cron_job_runs_total")
	if runs == nil {
		t.Fatalf("runs counter missing")
	}
	counts := map[string]float64{}
	for _, m := range runs.GetMetric() {
		if matchesLabel(m.GetLabel(), "job", "vault-reconciliation") {
			for _, l := range m.GetLabel() {
				if l.GetName() == "outcome" {
					counts[l.GetValue()] = m.GetCounter().GetValue()
				}
			}
		}
	}
	if counts["ok"] != 1 || counts["failed"] != 1 {
		t.Fatalf("unexpected outcome counts %v", counts)
	}

	if got, err := fetchHistogramSum(mfs, "cashvault_cron_job_duration_seconds", "job", "vault-reconciliation"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got != 1.25 {
		t.Fatalf("expected duration sum 1.25, got %f", got)
	}

	last := findMetricFamily(mfs, "cashvault_cron_job_last_success_timestamp_seconds")
	if last == nil {
		t.Fatalf("last success gauge missing")
	}
	for _, m := range last.GetMetric() {
		if matchesLabel(m.GetLabel(), "job", "unknown") && m.GetGauge().GetValue() != 1767600000 {
			t.Fatalf("unexpected last success %v", m.GetGauge().GetValue())
		}
	}
}

func TestCronJobMetricsNilSafe(t *testing.T) {
	var nilMetrics *CronJobMetrics
	nilMetrics.ObserveRun("job", time.Second, nil)
	NewCronJobMetrics(nil).ObserveRun("job", time.Second, errors.New("boom"))
}
