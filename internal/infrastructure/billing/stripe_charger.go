// Package billing adapts payment gateways to the subscription renewal charger.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/subscription"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/identity"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"go.uber.org/zap"
)

// ErrNoPaymentMethod is returned when the tenant has no saved Stripe
// customer or payment method to charge
var ErrNoPaymentMethod = shared.NewDomainError(shared.CodeInvalidInput, "Tenant has no Stripe payment method on file")

// TenantFinder loads the tenant whose billing settings name the Stripe customer
type TenantFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error)
}

// StripeCharger charges renewals as off-session PaymentIntents against the
// tenant's saved payment method
type StripeCharger struct {
	config  *StripeConfig
	tenants TenantFinder
	logger  *zap.Logger
}

// NewStripeCharger creates a new Stripe charger
func NewStripeCharger(config *StripeConfig, tenants TenantFinder, logger *zap.Logger) (*StripeCharger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	config.InitStripeClient()

	return &StripeCharger{
		config:  config,
		tenants: tenants,
		logger:  logger,
	}, nil
}

// Charge confirms a PaymentIntent for the renewal amount. The request's
// idempotency key is forwarded to Stripe, so a repeated call for the same
// period returns the first intent instead of charging twice. Card errors
// and intents that did not succeed map to subscription.ErrChargeDeclined.
func (c *StripeCharger) Charge(ctx context.Context, req subscription.ChargeRequest) error {
	t, err := c.tenants.FindByID(ctx, req.TenantID)
	if err != nil {
		return err
	}
	settings, err := t.Billing()
	if err != nil {
		return err
	}
	if settings.StripeCustomer == "" || settings.StripePaymentMethod == "" {
		return ErrNoPaymentMethod
	}

	amount, err := minorUnits(req)
	if err != nil {
		return err
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(amount),
		Currency:      stripe.String(strings.ToLower(req.Amount.Currency().String())),
		Customer:      stripe.String(settings.StripeCustomer),
		PaymentMethod: stripe.String(settings.StripePaymentMethod),
		Confirm:       stripe.Bool(true),
		OffSession:    stripe.Bool(true),
		Description:   stripe.String(fmt.Sprintf("Subscription renewal %s", req.SubscriptionID)),
	}
	if c.config.StatementDescriptor != "" {
		params.StatementDescriptor = stripe.String(c.config.StatementDescriptor)
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)
	params.AddMetadata("tenant_id", req.TenantID.String())
	params.AddMetadata("subscription_id", req.SubscriptionID.String())
	params.AddMetadata("package_id", req.PackageID.String())
	params.AddMetadata("seats", strconv.Itoa(req.Seats))

	log := c.logger.With(
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("subscription_id", req.SubscriptionID.String()),
		zap.String("idempotency_key", req.IdempotencyKey),
	)

	pi, err := paymentintent.New(params)
	if err != nil {
		var serr *stripe.Error
		if errors.As(err, &serr) && (serr.Type == stripe.ErrorTypeCard || serr.Code == stripe.ErrorCodeCardDeclined) {
			log.Warn("Stripe declined renewal charge", zap.String("code", string(serr.Code)))
			return fmt.Errorf("%w: %s", subscription.ErrChargeDeclined, serr.Msg)
		}
		log.Error("Failed to create Stripe payment intent", zap.Error(err))
		return fmt.Errorf("stripe: failed to create payment intent: %w", err)
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded, stripe.PaymentIntentStatusProcessing:
		log.Info("Stripe renewal charge accepted",
			zap.String("payment_intent_id", pi.ID),
			zap.String("status", string(pi.Status)))
		return nil
	default:
		log.Warn("Stripe payment intent not completed",
			zap.String("payment_intent_id", pi.ID),
			zap.String("status", string(pi.Status)))
		return fmt.Errorf("%w: payment intent %s is %s", subscription.ErrChargeDeclined, pi.ID, pi.Status)
	}
}

// minorUnits converts the package price to the smallest currency unit
// Stripe expects
func minorUnits(req subscription.ChargeRequest) (int64, error) {
	minor := req.Amount.Round().Amount().Shift(req.Amount.Scale())
	if !minor.IsInteger() || !minor.IsPositive() {
		return 0, shared.NewDomainError(shared.CodeInvalidInput, "Renewal amount must be positive")
	}
	return minor.IntPart(), nil
}
