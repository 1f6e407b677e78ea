package subscription

import (
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/catalog"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/subscription"
	"github.com/google/uuid"
)

// StartRequest starts or replaces the tenant's subscription
type StartRequest struct {
	PackageID uuid.UUID `json:"package_id" binding:"required"`
	Seats     int       `json:"seats" binding:"required,min=1,max=100000"`
	TrialDays int       `json:"trial_days" binding:"min=0,max=365"`
	AutoRenew bool      `json:"auto_renew"`
}

// CancelRequest carries the cancellation reason
type CancelRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// AutoRenewRequest toggles renewal
type AutoRenewRequest struct {
	AutoRenew *bool `json:"auto_renew" binding:"required"`
}

// SubscriptionResponse represents a subscription in API responses.
// EffectiveStatus is the status at response time, which may run ahead of
// the stored Status until the sweep persists it.
type SubscriptionResponse struct {
	ID              uuid.UUID           `json:"id"`
	TenantID        uuid.UUID           `json:"tenant_id"`
	PackageID       uuid.UUID           `json:"package_id"`
	Tier            catalog.Tier        `json:"tier"`
	Seats           int                 `json:"seats"`
	AutoRenew       bool                `json:"auto_renew"`
	Status          subscription.Status `json:"status"`
	EffectiveStatus subscription.Status `json:"effective_status"`
	StartsAt        time.Time           `json:"starts_at"`
	EndsAt          time.Time           `json:"ends_at"`
	TrialEndsAt     *time.Time          `json:"trial_ends_at,omitempty"`
	CanceledAt      *time.Time          `json:"canceled_at,omitempty"`
	ExpiredAt       *time.Time          `json:"expired_at,omitempty"`
	RenewedAt       *time.Time          `json:"renewed_at,omitempty"`
	RenewalCount    int                 `json:"renewal_count"`
	ReplacedBy      *uuid.UUID          `json:"replaced_by,omitempty"`
	EndReason       string              `json:"end_reason,omitempty"`
	Version         int                 `json:"version"`
}

// CapabilityResponse answers an entitlement check
type CapabilityResponse struct {
	Capability catalog.Capability `json:"capability"`
	Granted    bool               `json:"granted"`
	Tier       catalog.Tier       `json:"tier,omitempty"`
}

// SweepResult counts what one sweep run did
type SweepResult struct {
	Scanned       int `json:"scanned"`
	Activated     int `json:"activated"`
	Expired       int `json:"expired"`
	Renewed       int `json:"renewed"`
	RenewalFailed int `json:"renewal_failed"`
	Errors        int `json:"errors"`
}

// ToSubscriptionResponse converts a domain subscription evaluated at now
func ToSubscriptionResponse(s *subscription.PackageSubscription, now time.Time) *SubscriptionResponse {
	return &SubscriptionResponse{
		ID:              s.ID,
		TenantID:        s.TenantID,
		PackageID:       s.PackageID,
		Tier:            s.Tier,
		Seats:           s.Seats,
		AutoRenew:       s.AutoRenew,
		Status:          s.Status,
		EffectiveStatus: s.EvaluateExpiry(now),
		StartsAt:        s.StartsAt,
		EndsAt:          s.EndsAt,
		TrialEndsAt:     s.TrialEndsAt,
		CanceledAt:      s.CanceledAt,
		ExpiredAt:       s.ExpiredAt,
		RenewedAt:       s.RenewedAt,
		RenewalCount:    s.RenewalCount,
		ReplacedBy:      s.ReplacedBy,
		EndReason:       s.EndReason,
		Version:         s.Version,
	}
}
