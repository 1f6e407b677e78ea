package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/subscription"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/persistence/models"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var currentStatuses = []string{string(subscription.StatusTrial), string(subscription.StatusActive)}

// GormSubscriptionRepository implements subscription.Repository using GORM
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormSubscriptionRepository creates a new GormSubscriptionRepository
func NewGormSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

func (r *GormSubscriptionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*subscription.PackageSubscription, error) {
	var model models.PackageSubscriptionModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindCurrent returns the tenant's TRIAL or ACTIVE subscription
func (r *GormSubscriptionRepository) FindCurrent(ctx context.Context, tenantID uuid.UUID) (*subscription.PackageSubscription, error) {
	var model models.PackageSubscriptionModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("status IN ?", currentStatuses).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByTenant returns the tenant's subscription history, newest first
func (r *GormSubscriptionRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]subscription.PackageSubscription, error) {
	var rows []models.PackageSubscriptionModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Order("starts_at DESC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	subs := make([]subscription.PackageSubscription, len(rows))
	for i := range rows {
		subs[i] = *rows[i].ToDomain()
	}
	return subs, nil
}

// FindDue runs across tenants for the expiry sweep
func (r *GormSubscriptionRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]subscription.PackageSubscription, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.PackageSubscriptionModel
	if err := r.db.WithContext(tenant.CrossTenant(ctx)).
		Where("status IN ?", currentStatuses).
		Where("ends_at <= ? OR (status = ? AND trial_ends_at < ?)", now, string(subscription.StatusTrial), now).
		Order("ends_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	subs := make([]subscription.PackageSubscription, len(rows))
	for i := range rows {
		subs[i] = *rows[i].ToDomain()
	}
	return subs, nil
}

// Create inserts s. The partial unique index on current subscriptions turns
// a second TRIAL/ACTIVE row into SUBSCRIPTION_EXISTS.
func (r *GormSubscriptionRepository) Create(ctx context.Context, s *subscription.PackageSubscription) error {
	if err := r.db.WithContext(ctx).Create(models.PackageSubscriptionModelFromDomain(s)).Error; err != nil {
		return subscriptionError(err)
	}
	s.MarkStored()
	return nil
}

func (r *GormSubscriptionRepository) SaveWithLock(ctx context.Context, s *subscription.PackageSubscription) error {
	prev := s.Version
	expected := advanceVersion(&s.BaseAggregateRoot)
	if err := updateVersioned(ctx, r.db, models.PackageSubscriptionModelFromDomain(s), expected, tenant.Scope(s.TenantID)); err != nil {
		s.Version = prev
		return subscriptionError(err)
	}
	s.MarkStored()
	return nil
}

func subscriptionError(err error) error {
	err = translateError(err)
	if errors.Is(err, shared.ErrAlreadyExists) {
		return shared.ErrSubscriptionExists.WithCause(err)
	}
	return err
}

var _ subscription.Repository = (*GormSubscriptionRepository)(nil)
