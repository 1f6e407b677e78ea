package models

import (
	"encoding/json"
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/identity"
	"github.com/google/uuid"
)

// TenantModel is the tenants row. Settings is stored as jsonb on postgres.
type TenantModel struct {
	AggregateModel
	Slug      string `gorm:"type:varchar(63);not null;uniqueIndex"`
	Name      string `gorm:"type:varchar(200);not null"`
	Settings  string `gorm:"type:jsonb;not null;default:'{}'"`
	DeletedAt *time.Time
}

func (TenantModel) TableName() string { return "tenants" }

func (m *TenantModel) ToDomain() *identity.Tenant {
	t := &identity.Tenant{
		Slug:      m.Slug,
		Name:      m.Name,
		Settings:  json.RawMessage(m.Settings),
		DeletedAt: m.DeletedAt,
	}
	m.PopulateAggregateRoot(&t.BaseAggregateRoot)
	return t
}

func (m *TenantModel) FromDomain(t *identity.Tenant) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.Slug = t.Slug
	m.Name = t.Name
	m.Settings = string(t.Settings)
	if m.Settings == "" {
		m.Settings = "{}"
	}
	m.DeletedAt = t.DeletedAt
}

func TenantModelFromDomain(t *identity.Tenant) *TenantModel {
	m := &TenantModel{}
	m.FromDomain(t)
	return m
}

// UserModel is the users row.
type UserModel struct {
	AggregateModel
	TenantID     *uuid.UUID `gorm:"type:uuid;index"`
	Email        string     `gorm:"type:varchar(320);not null;uniqueIndex"`
	Name         string     `gorm:"type:varchar(200)"`
	Role         string     `gorm:"type:varchar(20);not null"`
	IsActive     bool       `gorm:"not null;default:true"`
	PasswordHash string     `gorm:"type:varchar(100)"`
}

func (UserModel) TableName() string { return "users" }

func (m *UserModel) ToDomain() *identity.User {
	u := &identity.User{
		TenantID:     m.TenantID,
		Email:        m.Email,
		Name:         m.Name,
		Role:         identity.Role(m.Role),
		IsActive:     m.IsActive,
		PasswordHash: m.PasswordHash,
	}
	m.PopulateAggregateRoot(&u.BaseAggregateRoot)
	return u
}

func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		TenantID:     u.TenantID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         string(u.Role),
		IsActive:     u.IsActive,
		PasswordHash: u.PasswordHash,
	}
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	return m
}

// SessionModel is the sessions row.
type SessionModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Expires   time.Time `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null"`
}

func (SessionModel) TableName() string { return "sessions" }

func (m *SessionModel) ToDomain() *identity.Session {
	return &identity.Session{
		ID:        m.ID,
		UserID:    m.UserID,
		TenantID:  m.TenantID,
		Expires:   m.Expires,
		CreatedAt: m.CreatedAt,
	}
}

func SessionModelFromDomain(s *identity.Session) *SessionModel {
	return &SessionModel{
		ID:        s.ID,
		UserID:    s.UserID,
		TenantID:  s.TenantID,
		Expires:   s.Expires,
		CreatedAt: s.CreatedAt,
	}
}
