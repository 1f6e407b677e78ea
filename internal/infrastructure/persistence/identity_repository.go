package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/identity"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/persistence/models"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTenantRepository implements identity.TenantRepository using GORM
type GormTenantRepository struct {
	db *gorm.DB
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// FindByID finds a live tenant by ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	var model models.TenantModel
	if err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindBySlug finds a live tenant by slug
func (r *GormTenantRepository) FindBySlug(ctx context.Context, slug string) (*identity.Tenant, error) {
	var model models.TenantModel
	if err := r.db.WithContext(ctx).
		Where("slug = ? AND deleted_at IS NULL", strings.ToLower(slug)).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// ExistsBySlug also counts soft-deleted tenants; their slugs stay reserved.
func (r *GormTenantRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.TenantModel{}).
		Where("slug = ?", strings.ToLower(slug)).
		Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// LockForUpdate loads the tenant row with SELECT ... FOR UPDATE
func (r *GormTenantRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	var model models.TenantModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Save inserts a new tenant or updates it under the optimistic lock
func (r *GormTenantRepository) Save(ctx context.Context, t *identity.Tenant) error {
	if t.StoredVersion == 0 {
		if err := r.db.WithContext(ctx).Create(models.TenantModelFromDomain(t)).Error; err != nil {
			return translateError(err)
		}
		t.MarkStored()
		return nil
	}
	prev := t.Version
	expected := advanceVersion(&t.BaseAggregateRoot)
	if err := updateVersioned(ctx, r.db, models.TenantModelFromDomain(t), expected); err != nil {
		t.Version = prev
		return err
	}
	t.MarkStored()
	return nil
}

// GormUserRepository implements identity.UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormUserRepository) Save(ctx context.Context, u *identity.User) error {
	if u.StoredVersion == 0 {
		if err := r.db.WithContext(ctx).Create(models.UserModelFromDomain(u)).Error; err != nil {
			return translateError(err)
		}
		u.MarkStored()
		return nil
	}
	prev := u.Version
	expected := advanceVersion(&u.BaseAggregateRoot)
	if err := updateVersioned(ctx, r.db, models.UserModelFromDomain(u), expected); err != nil {
		u.Version = prev
		return err
	}
	u.MarkStored()
	return nil
}

// GormSessionRepository implements identity.SessionRepository using GORM.
// Sessions are looked up before the tenant is known, so reads and purges
// run cross-tenant.
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a new GormSessionRepository
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

func (r *GormSessionRepository) Save(ctx context.Context, s *identity.Session) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"expires"}),
		}).
		Create(models.SessionModelFromDomain(s)).Error
	return translateError(err)
}

func (r *GormSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Session, error) {
	var model models.SessionModel
	if err := r.db.WithContext(tenant.CrossTenant(ctx)).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormSessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(tenant.CrossTenant(ctx)).
		Where("expires < ?", before).
		Delete(&models.SessionModel{})
	if res.Error != nil {
		return 0, translateError(res.Error)
	}
	return res.RowsAffected, nil
}

var (
	_ identity.TenantRepository  = (*GormTenantRepository)(nil)
	_ identity.UserRepository    = (*GormUserRepository)(nil)
	_ identity.SessionRepository = (*GormSessionRepository)(nil)
)
