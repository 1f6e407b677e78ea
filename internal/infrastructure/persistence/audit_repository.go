package persistence

import (
	"context"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/audit"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditRepository implements audit.Repository using GORM. It only
// inserts and reads.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Append inserts entries in one statement
func (r *GormAuditRepository) Append(ctx context.Context, entries ...*audit.Log) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.AuditLogModel, len(entries))
	for i, e := range entries {
		rows[i] = models.AuditLogModelFromDomain(e)
	}
	return translateError(r.db.WithContext(ctx).Create(rows).Error)
}

// FindByTenant lists a tenant's entries, newest first by default
func (r *GormAuditRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID, filter audit.Filter) ([]audit.Log, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLogModel{}).Where("tenant_id = ?", tenantID)
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.Since != nil {
		query = query.Where("created_at >= ?", *filter.Since)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	var rows []models.AuditLogModel
	if err := applyPage(applyOrder(query, filter.Filter, auditSortFields), filter.Filter).Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	logs := make([]audit.Log, len(rows))
	for i := range rows {
		logs[i] = *rows[i].ToDomain()
	}
	return logs, total, nil
}

var _ audit.Repository = (*GormAuditRepository)(nil)
