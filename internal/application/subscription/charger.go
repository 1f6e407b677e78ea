package subscription

import (
	"context"
	"errors"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared/valueobject"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrChargeDeclined is returned by a RenewalCharger when the payment
// provider refused the charge
var ErrChargeDeclined = errors.New("renewal charge declined")

// ChargeRequest asks for one renewal period to be paid
type ChargeRequest struct {
	TenantID       uuid.UUID
	SubscriptionID uuid.UUID
	PackageID      uuid.UUID
	Amount         valueobject.Money
	Seats          int
	// IdempotencyKey is stable per subscription and period, so a charge
	// retried after a lost commit is not taken twice.
	IdempotencyKey string
}

// RenewalCharger takes the payment for a renewal period
type RenewalCharger interface {
	Charge(ctx context.Context, req ChargeRequest) error
}

// LogCharger approves every charge and logs it. It is the charger for
// deployments where renewals are invoiced outside the engine.
type LogCharger struct{}

func (LogCharger) Charge(ctx context.Context, req ChargeRequest) error {
	logger.L(ctx).Info("Renewal charge approved",
		zap.String("subscription_id", req.SubscriptionID.String()),
		zap.String("amount", req.Amount.String()),
		zap.Int("seats", req.Seats),
		zap.String("idempotency_key", req.IdempotencyKey),
	)
	return nil
}
