package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestOutboxMetricsCountsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)

	m.ObserveDelivery("vault_received", DeliveryPublished)
	m.ObserveDelivery("vault_received", DeliveryPublished)
	m.ObserveDelivery("vault_withdrawn", DeliveryDeadLettered)
	m.ObserveBatch(3)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	published, err := fetchCounterValue(mfs, "cashvault_outbox_deliveries_total", "result", DeliveryPublished)
	require.NoError(t, err)
	require.Equal(t, 2.0, published)

	dead, err := fetchCounterValue(mfs, "cashvault_outbox_deliveries_total", "event_type", "vault_withdrawn")
	require.NoError(t, err)
	require.Equal(t, 1.0, dead)

	require.NotNil(t, findMetricFamily(mfs, "cashvault_outbox_batch_size"))
}

func TestOutboxMetricsNilSafe(t *testing.T) {
	var m *OutboxMetrics
	m.ObserveDelivery("x", DeliveryRetry)
	m.ObserveBatch(1)
	NewOutboxMetrics(nil).ObserveDelivery("x", DeliveryRetry)
}
