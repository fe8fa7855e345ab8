package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cashvault-backend/pkg/denomination"
	pkgerrors "github.com/angelmondragon/cashvault-backend/pkg/errors"
)

func TestLedgerMetricsRecordsOperationsAndState(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLedgerMetrics(reg)

	m.ObserveOperation("withdraw", nil)
	m.ObserveOperation("withdraw", pkgerrors.New(pkgerrors.CodeInsufficientFunds, "short"))
	m.SetVaultState(decimal.NewFromInt(1500), denomination.Vector{Thousands: 1, FiveHundreds: 1})
	m.SetDrift(decimal.NewFromInt(-20))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "cashvault_ledger_operations_total", "outcome", "ok"); err != nil || got != 1 {
		t.Fatalf("expected ok=1, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "cashvault_ledger_operations_total", "outcome", "insufficient_funds"); err != nil || got != 1 {
		t.Fatalf("expected insufficient_funds=1, got %f (%v)", got, err)
	}

	balance := findMetricFamily(mfs, "cashvault_vault_balance")
	if balance == nil || balance.GetMetric()[0].GetGauge().GetValue() != 1500 {
		t.Fatalf("unexpected balance gauge %v", balance)
	}
	notes := findMetricFamily(mfs, "cashvault_vault_notes")
	if notes == nil || len(notes.GetMetric()) != len(denomination.All) {
		t.Fatalf("expected one notes series per denomination, got %v", notes)
	}
	for _, metric := range notes.GetMetric() {
		if matchesLabel(metric.GetLabel(), "denomination", "thousands") && metric.GetGauge().GetValue() != 1 {
			t.Fatalf("expected thousands=1, got %f", metric.GetGauge().GetValue())
		}
	}
	drift := findMetricFamily(mfs, "cashvault_vault_drift")
	if drift == nil || drift.GetMetric()[0].GetGauge().GetValue() != -20 {
		t.Fatalf("unexpected drift gauge %v", drift)
	}
}

func TestLedgerMetricsNilSafe(t *testing.T) {
	var m *LedgerMetrics
	m.ObserveOperation("receive", nil)
	m.SetVaultState(decimal.Zero, denomination.Vector{})
	m.SetDrift(decimal.Zero)

	NewLedgerMetrics(nil).ObserveOperation("receive", errors.New("boom"))
}

func TestOutcome(t *testing.T) {
	if Outcome(nil) != "ok" {
		t.Fatalf("nil error should be ok")
	}
	if got := Outcome(errors.New("boom")); got != "internal_error" {
		t.Fatalf("untyped error should be internal_error, got %s", got)
	}
	if got := Outcome(pkgerrors.New(pkgerrors.CodeConflict, "cas")); got != "conflict" {
		t.Fatalf("expected conflict, got %s", got)
	}
}
