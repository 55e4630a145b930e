package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("status", "pagado"),
		attribute.String("client_id", "456"),
		attribute.String("payment_method", "qr"),
	)
	if assert.Len(t, attrs, 2) {
		assert.Equal(t, attribute.Key("status"), attrs[0].Key)
		assert.Equal(t, attribute.Key("payment_method"), attrs[1].Key)
	}
}

func TestDisabledProviderIsNoop(t *testing.T) {
	provider, err := NewProvider(nil, Config{Enabled: false}, nil)
	require.NoError(t, err)

	m, err := New(Config{ServiceName: "storefront"}, provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordOrderCreated(ctx, "qr", "pendiente")
	m.RecordOrderRejected(ctx, "insufficient_stock")
	m.RecordStatusTransition(ctx, "pendiente", "procesando")
	m.RecordPaymentProof(ctx, "transferencia")
	m.RecordStatsCache(ctx, "miss")
	m.RecordRateLimitDenied(ctx, "/api/checkout")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordOrderCreated(context.Background(), "tarjeta", "pagado")

	_, err := NewHTTPMetrics(noop.NewMeterProvider())
	assert.NoError(t, err)
}
