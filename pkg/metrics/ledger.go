package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cashvault-backend/pkg/denomination"
	pkgerrors "github.com/angelmondragon/cashvault-backend/pkg/errors"
)

const outcomeOK = "ok"

// LedgerMetrics tracks ledger writes and the last observed vault state.
type LedgerMetrics struct {
	operations *prometheus.CounterVec
	balance    prometheus.Gauge
	notes      *prometheus.GaugeVec
	drift      prometheus.Gauge
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cashvault_ledger_operations_total",
		Help: "Ledger operations by outcome.",
	}, []string{"operation", "outcome"})
	balance := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cashvault_vault_balance",
		Help: "Vault balance after the last committed movement.",
	})
	notes := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cashvault_vault_notes",
		Help: "Vault note count per denomination after the last committed movement.",
	}, []string{"denomination"})
	drift := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cashvault_vault_drift",
		Help: "Difference between the stored vault balance and its replayed history.",
	})
	reg.MustRegister(operations, balance, notes, drift)
	return &LedgerMetrics{
		operations: operations,
		balance:    balance,
		notes:      notes,
		drift:      drift,
	}
}

// ObserveOperation counts one operation; the outcome is "ok" or the
// lower-cased error code.
func (m *LedgerMetrics) ObserveOperation(operation string, err error) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(operation), Outcome(err)).Inc()
}

// SetVaultState publishes the balance and note mix of the vault.
func (m *LedgerMetrics) SetVaultState(balance decimal.Decimal, notes denomination.Vector) {
	if m == nil || m.balance == nil {
		return
	}
	m.balance.Set(balance.InexactFloat64())
	for _, d := range denomination.All {
		m.notes.WithLabelValues(d.Name).Set(float64(d.Count(notes)))
	}
}

// SetDrift publishes the last reconciliation drift.
func (m *LedgerMetrics) SetDrift(drift decimal.Decimal) {
	if m == nil || m.drift == nil {
		return
	}
	m.drift.Set(drift.InexactFloat64())
}

// Outcome maps an operation error to its metric label.
func Outcome(err error) string {
	if err == nil {
		return outcomeOK
	}
	if typed := pkgerrors.As(err); typed != nil {
		return strings.ToLower(string(typed.Code()))
	}
	return strings.ToLower(string(pkgerrors.CodeInternal))
}
