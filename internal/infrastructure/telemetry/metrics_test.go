package telemetry_test

import (
	"context"
	"testing"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewBillingMetrics_NilMeter(t *testing.T) {
	m, err := telemetry.NewBillingMetrics(nil)

	require.Error(t, err)
	assert.Nil(t, m)
}

func TestBillingMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *telemetry.BillingMetrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.AuditWriteFailed(ctx, uuid.New(), "PaymentRecorded")
		m.PaymentRecorded(ctx, uuid.New(), "CASH")
		m.ConflictRetried(ctx, "record_payment")
		m.WebhookDuplicate(ctx)
		m.SubscriptionTransition(ctx, uuid.New(), "EXPIRED")
		m.SyncFailed(ctx, "items", "CONFLICT")
	})
}

func TestBillingMetrics_NoopMeter(t *testing.T) {
	m, err := telemetry.NewBillingMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		m.PaymentRecorded(context.Background(), uuid.New(), "CARD")
	})
}

func TestBillingMetrics_AuditFailuresAreCounted(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := telemetry.NewBillingMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	tenantID := uuid.New()
	m.AuditWriteFailed(ctx, tenantID, "InvoiceSent")
	m.AuditWriteFailed(ctx, tenantID, "InvoiceSent")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			if metric.Name != "audit_write_failures_total" {
				continue
			}
			sum, ok := metric.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), total)
}

func TestSetup_Disabled(t *testing.T) {
	p, err := telemetry.Setup(context.Background(), telemetry.Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, p.IsEnabled())
	assert.Nil(t, p.LoggerProvider())
	assert.NotNil(t, p.Tracer("test"))
	assert.NotNil(t, p.Meter("test"))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewZapCore_DisabledIsNop(t *testing.T) {
	p, err := telemetry.Setup(context.Background(), telemetry.Config{}, zap.NewNop())
	require.NoError(t, err)

	core := telemetry.NewZapCore(p, zapcore.InfoLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
	assert.False(t, telemetry.NewZapCore(nil, zapcore.InfoLevel).Enabled(zapcore.ErrorLevel))
}
