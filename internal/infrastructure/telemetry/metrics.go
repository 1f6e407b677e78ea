package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attribute keys shared by billing metrics.
var (
	AttrTenantID      = attribute.Key("tenant_id")
	AttrOperation     = attribute.Key("operation")
	AttrPaymentMethod = attribute.Key("payment_method")
	AttrOutcome       = attribute.Key("outcome")
)

// Counter is a thin wrapper over an Int64Counter.
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a new Counter metric.
func NewCounter(meter metric.Meter, name, description string) (*Counter, error) {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit("1"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return &Counter{counter: c}, nil
}

// Inc increments the counter by 1.
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// BillingMetrics groups the counters emitted by the ledger, subscription
// and audit services. A nil *BillingMetrics is valid and records nothing.
type BillingMetrics struct {
	auditWriteFailures *Counter
	paymentsRecorded   *Counter
	conflictRetries    *Counter
	webhookDuplicates  *Counter
	subscriptionEvents *Counter
	syncFailures       *Counter
}

// NewBillingMetrics registers the billing counters on meter.
func NewBillingMetrics(meter metric.Meter) (*BillingMetrics, error) {
	if meter == nil {
		return nil, errors.New("NewBillingMetrics: meter cannot be nil")
	}
	var (
		m   BillingMetrics
		err error
	)
	if m.auditWriteFailures, err = NewCounter(meter, "audit_write_failures_total", "Audit entries that could not be persisted"); err != nil {
		return nil, err
	}
	if m.paymentsRecorded, err = NewCounter(meter, "payments_recorded_total", "Payments accepted by the ledger"); err != nil {
		return nil, err
	}
	if m.conflictRetries, err = NewCounter(meter, "concurrency_conflict_retries_total", "Operations retried after an optimistic version conflict"); err != nil {
		return nil, err
	}
	if m.webhookDuplicates, err = NewCounter(meter, "webhook_duplicates_total", "Gateway webhook deliveries skipped as already processed"); err != nil {
		return nil, err
	}
	if m.subscriptionEvents, err = NewCounter(meter, "subscription_transitions_total", "Subscription lifecycle transitions"); err != nil {
		return nil, err
	}
	if m.syncFailures, err = NewCounter(meter, "sync_failures_total", "Rejected sync pushes by reconciliation outcome"); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *BillingMetrics) AuditWriteFailed(ctx context.Context, tenantID uuid.UUID, action string) {
	if m == nil {
		return
	}
	m.auditWriteFailures.Inc(ctx, AttrTenantID.String(tenantID.String()), AttrOperation.String(action))
}

func (m *BillingMetrics) PaymentRecorded(ctx context.Context, tenantID uuid.UUID, method string) {
	if m == nil {
		return
	}
	m.paymentsRecorded.Inc(ctx, AttrTenantID.String(tenantID.String()), AttrPaymentMethod.String(method))
}

func (m *BillingMetrics) ConflictRetried(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.conflictRetries.Inc(ctx, AttrOperation.String(operation))
}

func (m *BillingMetrics) WebhookDuplicate(ctx context.Context) {
	if m == nil {
		return
	}
	m.webhookDuplicates.Inc(ctx)
}

func (m *BillingMetrics) SubscriptionTransition(ctx context.Context, tenantID uuid.UUID, outcome string) {
	if m == nil {
		return
	}
	m.subscriptionEvents.Inc(ctx, AttrTenantID.String(tenantID.String()), AttrOutcome.String(outcome))
}

func (m *BillingMetrics) SyncFailed(ctx context.Context, kind, outcome string) {
	if m == nil {
		return
	}
	m.syncFailures.Inc(ctx, AttrOperation.String(kind), AttrOutcome.String(outcome))
}
