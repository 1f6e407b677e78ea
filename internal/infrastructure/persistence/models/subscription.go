package models

import (
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/catalog"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/subscription"
	"github.com/google/uuid"
)

// PackageSubscriptionModel is the package_subscriptions row. At most one
// TRIAL/ACTIVE row per tenant is enforced by a partial unique index.
type PackageSubscriptionModel struct {
	TenantAggregateModel
	PackageID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Tier         string    `gorm:"type:varchar(20);not null"`
	Seats        int       `gorm:"not null;default:1"`
	AutoRenew    bool      `gorm:"not null;default:false"`
	Status       string    `gorm:"type:varchar(10);not null;index"`
	StartsAt     time.Time `gorm:"not null"`
	EndsAt       time.Time `gorm:"not null;index"`
	TrialEndsAt  *time.Time
	CanceledAt   *time.Time
	ExpiredAt    *time.Time
	RenewedAt    *time.Time
	RenewalCount int        `gorm:"not null;default:0"`
	ReplacedBy   *uuid.UUID `gorm:"type:uuid"`
	EndReason    string     `gorm:"type:text"`
}

func (PackageSubscriptionModel) TableName() string { return "package_subscriptions" }

func (m *PackageSubscriptionModel) ToDomain() *subscription.PackageSubscription {
	s := &subscription.PackageSubscription{
		PackageID:    m.PackageID,
		Tier:         catalog.Tier(m.Tier),
		Seats:        m.Seats,
		AutoRenew:    m.AutoRenew,
		Status:       subscription.Status(m.Status),
		StartsAt:     m.StartsAt,
		EndsAt:       m.EndsAt,
		TrialEndsAt:  m.TrialEndsAt,
		CanceledAt:   m.CanceledAt,
		ExpiredAt:    m.ExpiredAt,
		RenewedAt:    m.RenewedAt,
		RenewalCount: m.RenewalCount,
		ReplacedBy:   m.ReplacedBy,
		EndReason:    m.EndReason,
	}
	m.PopulateTenantAggregateRoot(&s.TenantAggregateRoot)
	return s
}

func PackageSubscriptionModelFromDomain(s *subscription.PackageSubscription) *PackageSubscriptionModel {
	m := &PackageSubscriptionModel{
		PackageID:    s.PackageID,
		Tier:         string(s.Tier),
		Seats:        s.Seats,
		AutoRenew:    s.AutoRenew,
		Status:       string(s.Status),
		StartsAt:     s.StartsAt,
		EndsAt:       s.EndsAt,
		TrialEndsAt:  s.TrialEndsAt,
		CanceledAt:   s.CanceledAt,
		ExpiredAt:    s.ExpiredAt,
		RenewedAt:    s.RenewedAt,
		RenewalCount: s.RenewalCount,
		ReplacedBy:   s.ReplacedBy,
		EndReason:    s.EndReason,
	}
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	return m
}
