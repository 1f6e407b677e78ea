package models

import (
	"encoding/json"
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/audit"
	"github.com/google/uuid"
)

// AuditLogModel is the audit_logs row. It has no foreign keys so entries
// outlive the tenants and users they mention.
type AuditLogModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID   *uuid.UUID `gorm:"type:uuid;index"`
	UserID     *uuid.UUID `gorm:"type:uuid"`
	Actor      string     `gorm:"type:varchar(100);not null"`
	Action     string     `gorm:"type:varchar(100);not null;index"`
	EntityType string     `gorm:"type:varchar(50)"`
	EntityID   *uuid.UUID `gorm:"type:uuid;index"`
	Meta       string     `gorm:"type:jsonb;not null;default:'{}'"`
	IPAddress  string     `gorm:"type:varchar(45)"`
	CreatedAt  time.Time  `gorm:"not null;index"`
}

func (AuditLogModel) TableName() string { return "audit_logs" }

func (m *AuditLogModel) ToDomain() *audit.Log {
	return &audit.Log{
		ID:         m.ID,
		TenantID:   m.TenantID,
		UserID:     m.UserID,
		Actor:      m.Actor,
		Action:     m.Action,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Meta:       json.RawMessage(m.Meta),
		IPAddress:  m.IPAddress,
		CreatedAt:  m.CreatedAt,
	}
}

func AuditLogModelFromDomain(l *audit.Log) *AuditLogModel {
	meta := string(l.Meta)
	if meta == "" {
		meta = "{}"
	}
	return &AuditLogModel{
		ID:         l.ID,
		TenantID:   l.TenantID,
		UserID:     l.UserID,
		Actor:      l.Actor,
		Action:     l.Action,
		EntityType: l.EntityType,
		EntityID:   l.EntityID,
		Meta:       meta,
		IPAddress:  l.IPAddress,
		CreatedAt:  l.CreatedAt,
	}
}
