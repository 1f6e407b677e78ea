package subscription

import (
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeSubscription is the aggregate type for subscription events
const AggregateTypeSubscription = "PackageSubscription"

// Event type constants
const (
	EventTypeSubscriptionStarted   = "SubscriptionStarted"
	EventTypeSubscriptionActivated = "SubscriptionActivated"
	EventTypeSubscriptionRenewed   = "SubscriptionRenewed"
	EventTypeSubscriptionExpired   = "SubscriptionExpired"
	EventTypeSubscriptionCanceled  = "SubscriptionCanceled"
)

// SubscriptionEvent carries the subscription state after a transition
type SubscriptionEvent struct {
	shared.BaseDomainEvent
	PackageID uuid.UUID `json:"package_id"`
	Status    Status    `json:"status"`
	EndsAt    time.Time `json:"ends_at"`
	Reason    string    `json:"reason,omitempty"`
}

// NewSubscriptionEvent creates an event of eventType for s
func NewSubscriptionEvent(eventType string, s *PackageSubscription, reason string) *SubscriptionEvent {
	return &SubscriptionEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeSubscription, s.ID, s.TenantID),
		PackageID:       s.PackageID,
		Status:          s.Status,
		EndsAt:          s.EndsAt,
		Reason:          reason,
	}
}
