package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/logger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const webhookKeyPrefix = "gateway:"

// GatewayEvent is a payment gateway callback whose signature has already
// been verified by the transport.
type GatewayEvent struct {
	EventID   string    `json:"event_id" binding:"required,max=128"`
	TenantID  uuid.UUID `json:"tenant_id" binding:"required"`
	PaymentID uuid.UUID `json:"payment_id" binding:"required"`
	Outcome   string    `json:"outcome" binding:"required,oneof=COMPLETED FAILED"`
	Reason    string    `json:"reason" binding:"max=500"`
}

// WebhookProcessor applies gateway callbacks exactly once per event id.
// Gateways deliver at least once, so a redelivered event is acknowledged
// without touching the invoice.
type WebhookProcessor struct {
	ledger  *Service
	store   shared.IdempotencyStore
	ttl     time.Duration
	metrics *telemetry.BillingMetrics
}

// NewWebhookProcessor creates a processor remembering event ids for ttl
func NewWebhookProcessor(ledger *Service, store shared.IdempotencyStore, ttl time.Duration, metrics *telemetry.BillingMetrics) *WebhookProcessor {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &WebhookProcessor{ledger: ledger, store: store, ttl: ttl, metrics: metrics}
}

// Process confirms or fails the payment named by ev
func (w *WebhookProcessor) Process(ctx context.Context, ev GatewayEvent) (*PaymentResult, error) {
	ctx = logger.WithTenantID(ctx, ev.TenantID)
	log := logger.L(ctx).With(zap.String("event_id", ev.EventID), zap.String("payment_id", ev.PaymentID.String()))

	key := webhookKeyPrefix + ev.EventID
	fresh, err := w.store.MarkProcessed(ctx, key, w.ttl)
	if err != nil {
		return nil, shared.ErrPersistenceUnavailable.WithCause(err)
	}
	if !fresh {
		w.metrics.WebhookDuplicate(ctx)
		log.Info("Gateway event already processed")
		return &PaymentResult{Duplicate: true}, nil
	}

	res, err := w.ledger.ConfirmPayment(ctx, ev.TenantID, ev.PaymentID, ConfirmPaymentRequest{
		Outcome: ev.Outcome,
		Reason:  ev.Reason,
	})
	if err != nil {
		if transient(err) {
			// Let the gateway's redelivery run the event again.
			if ferr := w.store.Forget(ctx, key); ferr != nil {
				log.Error("Failed to release gateway event key", zap.Error(ferr))
			}
		}
		log.Warn("Gateway event rejected", zap.Error(err))
		return nil, err
	}
	return res, nil
}

// transient errors may succeed on redelivery; domain rejections will not
func transient(err error) bool {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return true
	}
	switch de.Code {
	case shared.CodeConcurrencyConflict, shared.CodePersistenceUnavailable:
		return true
	}
	return false
}
