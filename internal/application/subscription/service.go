// Package subscription runs the package subscription use cases. Changes
// to one tenant's subscriptions are serialized by the tenant lock key and
// by a row lock on the tenant inside the transaction.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	appaudit "github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/audit"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/tx"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/catalog"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/subscription"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/logger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxSweepPages bounds one sweep run when rows keep failing
const maxSweepPages = 100

// Service handles subscription operations
type Service struct {
	scope      tx.Scope
	repos      tx.Repositories
	locker     tx.Locker
	charger    RenewalCharger
	audit      *appaudit.Recorder
	metrics    *telemetry.BillingMetrics
	maxRetries int
	now        func() time.Time
}

// NewService creates a new subscription Service
func NewService(
	scope tx.Scope,
	repos tx.Repositories,
	locker tx.Locker,
	charger RenewalCharger,
	recorder *appaudit.Recorder,
	metrics *telemetry.BillingMetrics,
	maxConflictRetries int,
) *Service {
	if charger == nil {
		charger = LogCharger{}
	}
	if maxConflictRetries < 0 {
		maxConflictRetries = 0
	}
	return &Service{
		scope:      scope,
		repos:      repos,
		locker:     locker,
		charger:    charger,
		audit:      recorder,
		metrics:    metrics,
		maxRetries: maxConflictRetries,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Start begins a subscription for a tenant that has no current one
func (s *Service) Start(ctx context.Context, tenantID uuid.UUID, req StartRequest) (*SubscriptionResponse, error) {
	var started *subscription.PackageSubscription
	err := s.withTenant(ctx, tenantID, "start_subscription", func(repos tx.Repositories) ([]shared.DomainEvent, error) {
		current, err := repos.Subscriptions().FindCurrent(ctx, tenantID)
		switch {
		case err == nil:
			return nil, shared.ErrSubscriptionExists.WithState(*current)
		case !errors.Is(err, shared.ErrNotFound):
			return nil, err
		}
		sub, err := s.newSubscription(ctx, repos, tenantID, req)
		if err != nil {
			return nil, err
		}
		if err := repos.Subscriptions().Create(ctx, sub); err != nil {
			return nil, err
		}
		started = sub
		return sub.GetDomainEvents(), nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.SubscriptionTransition(ctx, tenantID, string(started.Status))
	return ToSubscriptionResponse(started, s.now()), nil
}

// Replace cancels the tenant's current subscription and starts a new one
// in the same transaction. Without a current subscription it behaves like
// Start.
func (s *Service) Replace(ctx context.Context, tenantID uuid.UUID, req StartRequest) (*SubscriptionResponse, error) {
	var started *subscription.PackageSubscription
	err := s.withTenant(ctx, tenantID, "replace_subscription", func(repos tx.Repositories) ([]shared.DomainEvent, error) {
		sub, err := s.newSubscription(ctx, repos, tenantID, req)
		if err != nil {
			return nil, err
		}
		var events []shared.DomainEvent
		current, err := repos.Subscriptions().FindCurrent(ctx, tenantID)
		switch {
		case err == nil:
			if err := current.ReplaceWith(sub, s.now()); err != nil {
				return nil, err
			}
			if err := repos.Subscriptions().SaveWithLock(ctx, current); err != nil {
				return nil, err
			}
			events = append(events, current.GetDomainEvents()...)
		case !errors.Is(err, shared.ErrNotFound):
			return nil, err
		}
		if err := repos.Subscriptions().Create(ctx, sub); err != nil {
			return nil, err
		}
		started = sub
		return append(events, sub.GetDomainEvents()...), nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.SubscriptionTransition(ctx, tenantID, "REPLACED")
	return ToSubscriptionResponse(started, s.now()), nil
}

func (s *Service) newSubscription(ctx context.Context, repos tx.Repositories, tenantID uuid.UUID, req StartRequest) (*subscription.PackageSubscription, error) {
	pkg, err := repos.Packages().FindByID(ctx, tenantID, req.PackageID)
	if err != nil {
		return nil, err
	}
	sub, err := subscription.Start(tenantID, pkg, req.Seats, req.TrialDays, req.AutoRenew, s.now())
	if err != nil {
		return nil, err
	}
	if userID, ok := logger.GetUserID(ctx); ok {
		sub.SetCreatedBy(userID)
	}
	return sub, nil
}

// Get returns one subscription of the tenant
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*SubscriptionResponse, error) {
	sub, err := s.repos.Subscriptions().FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return ToSubscriptionResponse(sub, s.now()), nil
}

// Current returns the tenant's non-terminal subscription
func (s *Service) Current(ctx context.Context, tenantID uuid.UUID) (*SubscriptionResponse, error) {
	sub, err := s.repos.Subscriptions().FindCurrent(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return ToSubscriptionResponse(sub, s.now()), nil
}

// History returns every subscription of the tenant, newest first
func (s *Service) History(ctx context.Context, tenantID uuid.UUID) ([]SubscriptionResponse, error) {
	subs, err := s.repos.Subscriptions().FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]SubscriptionResponse, len(subs))
	for i := range subs {
		out[i] = *ToSubscriptionResponse(&subs[i], now)
	}
	return out, nil
}

// Evaluate persists the expiry transition due at now, if any. Auto-renewing
// subscriptions are not expired here; the renewal sweep settles them.
func (s *Service) Evaluate(ctx context.Context, tenantID, id uuid.UUID) (*SubscriptionResponse, error) {
	sub, err := s.mutate(ctx, tenantID, id, "evaluate_subscription", func(sub *subscription.PackageSubscription) error {
		sub.ApplyExpiry(s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToSubscriptionResponse(sub, s.now()), nil
}

// Cancel ends the subscription
func (s *Service) Cancel(ctx context.Context, tenantID, id uuid.UUID, reason string) (*SubscriptionResponse, error) {
	sub, err := s.mutate(ctx, tenantID, id, "cancel_subscription", func(sub *subscription.PackageSubscription) error {
		return sub.Cancel(reason, s.now())
	})
	if err != nil {
		return nil, err
	}
	return ToSubscriptionResponse(sub, s.now()), nil
}

// SetAutoRenew toggles automatic renewal
func (s *Service) SetAutoRenew(ctx context.Context, tenantID, id uuid.UUID, on bool) (*SubscriptionResponse, error) {
	sub, err := s.mutate(ctx, tenantID, id, "set_auto_renew", func(sub *subscription.PackageSubscription) error {
		if sub.AutoRenew == on {
			return nil
		}
		return sub.SetAutoRenew(on)
	})
	if err != nil {
		return nil, err
	}
	return ToSubscriptionResponse(sub, s.now()), nil
}

// Renew charges the package price and extends the period. A declined
// charge expires the subscription; the result then carries the EXPIRED
// subscription and no error.
func (s *Service) Renew(ctx context.Context, tenantID, id uuid.UUID) (*SubscriptionResponse, error) {
	unlock, err := s.locker.Lock(ctx, tx.TenantKey(tenantID.String()))
	if err != nil {
		return nil, err
	}
	defer unlock()
	sub, err := s.renewLocked(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return ToSubscriptionResponse(sub, s.now()), nil
}

func (s *Service) renewLocked(ctx context.Context, tenantID, id uuid.UUID) (*subscription.PackageSubscription, error) {
	now := s.now()
	sub, err := s.repos.Subscriptions().FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := sub.CheckRenewable(now); err != nil {
		return nil, err
	}
	pkg, err := s.repos.Packages().FindByID(ctx, tenantID, sub.PackageID)
	if err != nil {
		return nil, err
	}

	chargeErr := s.charger.Charge(ctx, ChargeRequest{
		TenantID:       tenantID,
		SubscriptionID: sub.ID,
		PackageID:      pkg.ID,
		Amount:         pkg.Price,
		Seats:          sub.Seats,
		IdempotencyKey: fmt.Sprintf("renewal:%s:%d", sub.ID, sub.RenewalCount+1),
	})

	var result *subscription.PackageSubscription
	err = s.inTenantTx(ctx, tenantID, "renew_subscription", func(repos tx.Repositories) ([]shared.DomainEvent, error) {
		current, err := repos.Subscriptions().FindByID(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		if chargeErr != nil {
			err = current.RenewalFailed(chargeErr.Error(), now)
		} else {
			err = current.Renew(pkg.DurationDays, now)
		}
		if err != nil {
			return nil, err
		}
		if err := s.save(ctx, repos, current); err != nil {
			return nil, err
		}
		result = current
		return current.GetDomainEvents(), nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SubscriptionTransition(ctx, tenantID, string(result.Status))
	log := logger.L(ctx).With(zap.String("subscription_id", id.String()))
	if chargeErr != nil {
		log.Warn("Renewal charge failed, subscription expired", zap.Error(chargeErr))
	} else {
		log.Info("Subscription renewed", zap.Time("ends_at", result.EndsAt))
	}
	return result, nil
}

// HasCapability answers whether the tenant's current subscription grants c
func (s *Service) HasCapability(ctx context.Context, tenantID uuid.UUID, c catalog.Capability) (*CapabilityResponse, error) {
	resp := &CapabilityResponse{Capability: c}
	sub, err := s.repos.Subscriptions().FindCurrent(ctx, tenantID)
	if errors.Is(err, shared.ErrNotFound) {
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	resp.Tier = sub.Tier
	resp.Granted = sub.HasCapability(c, s.now())
	return resp, nil
}

// Sweep persists due expiry transitions across all tenants and renews
// auto-renewing subscriptions whose period ended. It pages until no due
// rows remain or a page makes no progress.
func (s *Service) Sweep(ctx context.Context, batchSize int) (SweepResult, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	var res SweepResult
	for page := 0; page < maxSweepPages; page++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		due, err := s.repos.Subscriptions().FindDue(ctx, s.now(), batchSize)
		if err != nil {
			return res, err
		}
		progressed := 0
		for i := range due {
			res.Scanned++
			if s.sweepOne(ctx, &due[i], &res) {
				progressed++
			}
		}
		if len(due) < batchSize || progressed == 0 {
			break
		}
	}
	return res, nil
}

func (s *Service) sweepOne(ctx context.Context, due *subscription.PackageSubscription, res *SweepResult) bool {
	ctx = logger.WithTenantID(ctx, due.TenantID)
	log := logger.L(ctx).With(zap.String("subscription_id", due.ID.String()))
	now := s.now()

	if due.AutoRenew && !now.Before(due.EndsAt) && !due.Status.IsTerminal() {
		unlock, err := s.locker.Lock(ctx, tx.TenantKey(due.TenantID.String()))
		if err != nil {
			res.Errors++
			log.Error("Sweep could not lock tenant", zap.Error(err))
			return false
		}
		sub, err := s.renewLocked(ctx, due.TenantID, due.ID)
		unlock()
		if err != nil {
			res.Errors++
			log.Error("Sweep renewal failed", zap.Error(err))
			return false
		}
		if sub.Status == subscription.StatusExpired {
			res.RenewalFailed++
		} else {
			res.Renewed++
		}
		return true
	}

	sub, err := s.mutate(ctx, due.TenantID, due.ID, "sweep_expiry", func(sub *subscription.PackageSubscription) error {
		sub.ApplyExpiry(now)
		return nil
	})
	if err != nil {
		res.Errors++
		log.Error("Sweep expiry failed", zap.Error(err))
		return false
	}
	switch sub.Status {
	case subscription.StatusExpired:
		res.Expired++
	case subscription.StatusActive:
		res.Activated++
	default:
		return false
	}
	return true
}

// mutate loads one subscription under the tenant lock, applies fn and
// saves it if fn changed it.
func (s *Service) mutate(ctx context.Context, tenantID, id uuid.UUID, op string, fn func(sub *subscription.PackageSubscription) error) (*subscription.PackageSubscription, error) {
	var (
		result *subscription.PackageSubscription
		before subscription.Status
	)
	err := s.withTenant(ctx, tenantID, op, func(repos tx.Repositories) ([]shared.DomainEvent, error) {
		sub, err := repos.Subscriptions().FindByID(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		before = sub.Status
		if err := fn(sub); err != nil {
			return nil, err
		}
		result = sub
		if sub.GetVersion() == sub.StoredVersion {
			return nil, nil
		}
		if err := s.save(ctx, repos, sub); err != nil {
			return nil, err
		}
		return sub.GetDomainEvents(), nil
	})
	if err != nil {
		return nil, err
	}
	if result.Status != before {
		s.metrics.SubscriptionTransition(ctx, tenantID, string(result.Status))
	}
	return result, nil
}

func (s *Service) save(ctx context.Context, repos tx.Repositories, sub *subscription.PackageSubscription) error {
	if err := sub.CheckInvariants(); err != nil {
		return err
	}
	return repos.Subscriptions().SaveWithLock(ctx, sub)
}

// withTenant takes the tenant lock key and runs fn in a tenant transaction
func (s *Service) withTenant(ctx context.Context, tenantID uuid.UUID, op string, fn func(repos tx.Repositories) ([]shared.DomainEvent, error)) error {
	unlock, err := s.locker.Lock(ctx, tx.TenantKey(tenantID.String()))
	if err != nil {
		return err
	}
	defer unlock()
	return s.inTenantTx(ctx, tenantID, op, fn)
}

// inTenantTx runs fn after locking the tenant row, records the audit trail
// of the returned events, and retries the unit on version conflicts. The
// caller must hold the tenant lock key.
func (s *Service) inTenantTx(ctx context.Context, tenantID uuid.UUID, op string, fn func(repos tx.Repositories) ([]shared.DomainEvent, error)) error {
	var (
		events []shared.DomainEvent
		err    error
	)
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		events = nil
		err = s.scope.Execute(ctx, func(repos tx.Repositories) error {
			if _, err := repos.Tenants().LockForUpdate(ctx, tenantID); err != nil {
				return err
			}
			ev, err := fn(repos)
			if err != nil {
				return err
			}
			events = ev
			return s.audit.InTx(ctx, repos.Audit(), events)
		})
		if err == nil || !shared.IsRetryable(err) || ctx.Err() != nil {
			break
		}
		if attempt < s.maxRetries {
			s.metrics.ConflictRetried(ctx, op)
			logger.L(ctx).Warn("Retrying after conflict", zap.String("operation", op), zap.Int("attempt", attempt+1))
		}
	}
	if err != nil {
		return err
	}
	s.audit.AfterCommit(ctx, events)
	return nil
}
