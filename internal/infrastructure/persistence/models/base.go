// Package models holds the gorm row types and their domain conversions.
// Monetary columns are decimal(18,4) paired with a currency code column.
package models

import (
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared/valueobject"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/syncstate"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BaseModel provides common persistence fields for all models.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel adds the optimistic-lock version.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

func (m *AggregateModel) PopulateAggregateRoot(a *shared.BaseAggregateRoot) {
	a.BaseEntity = m.BaseModel.ToDomain()
	a.Version = m.Version
	a.StoredVersion = m.Version
}

// TenantAggregateModel adds tenant ownership.
type TenantAggregateModel struct {
	AggregateModel
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
}

func (m *TenantAggregateModel) FromDomainTenantAggregateRoot(t shared.TenantAggregateRoot) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.TenantID = t.TenantID
	m.CreatedBy = t.CreatedBy
}

func (m *TenantAggregateModel) PopulateTenantAggregateRoot(t *shared.TenantAggregateRoot) {
	m.PopulateAggregateRoot(&t.BaseAggregateRoot)
	t.TenantID = m.TenantID
	t.CreatedBy = m.CreatedBy
}

// TenantEntityModel is the base of tenant-owned child rows.
type TenantEntityModel struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
}

func (m *TenantEntityModel) FromDomainTenantEntity(e shared.TenantEntity) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.TenantID = e.TenantID
}

func (m *TenantEntityModel) ToTenantEntity() shared.TenantEntity {
	return shared.TenantEntity{BaseEntity: m.BaseModel.ToDomain(), TenantID: m.TenantID}
}

// SyncColumns persists syncstate.State.
type SyncColumns struct {
	SyncStatus        string `gorm:"type:varchar(10);not null;default:'PENDING';index"`
	LocalVersion      int64  `gorm:"not null;default:1"`
	ServerVersion     int64  `gorm:"not null;default:0"`
	ConflictVersion   int64  `gorm:"not null;default:0"`
	SyncFailureReason string `gorm:"type:text"`
	SyncFailedAt      *time.Time
	SyncedAt          *time.Time
}

func (c *SyncColumns) FromState(s syncstate.State) {
	c.SyncStatus = string(s.Status)
	c.LocalVersion = s.LocalVersion
	c.ServerVersion = s.ServerVersion
	c.ConflictVersion = s.ConflictVersion
	c.SyncFailureReason = s.FailureReason
	c.SyncFailedAt = s.FailedAt
	c.SyncedAt = s.SyncedAt
}

func (c *SyncColumns) ToState() syncstate.State {
	return syncstate.State{
		Status:          syncstate.Status(c.SyncStatus),
		LocalVersion:    c.LocalVersion,
		ServerVersion:   c.ServerVersion,
		ConflictVersion: c.ConflictVersion,
		FailureReason:   c.SyncFailureReason,
		FailedAt:        c.SyncFailedAt,
		SyncedAt:        c.SyncedAt,
	}
}

// toMoney rebuilds a stored amount. Rows are validated on write, so an error
// here means the row was edited outside the engine.
func toMoney(amount decimal.Decimal, currency string) (valueobject.Money, error) {
	return valueobject.NewMoney(amount, valueobject.Currency(currency))
}

// nullable maps "" to NULL so optional unique columns do not collide.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
