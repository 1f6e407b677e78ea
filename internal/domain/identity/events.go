package identity

import (
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
)

// AggregateTypeTenant is the aggregate type for tenant events
const AggregateTypeTenant = "Tenant"

const (
	EventTypeTenantCreated = "TenantCreated"
	EventTypeTenantDeleted = "TenantDeleted"
)

// TenantCreatedEvent is raised on signup
type TenantCreatedEvent struct {
	shared.BaseDomainEvent
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// NewTenantCreatedEvent creates a new TenantCreatedEvent
func NewTenantCreatedEvent(t *Tenant) *TenantCreatedEvent {
	return &TenantCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantCreated, AggregateTypeTenant, t.ID, t.ID),
		Slug:            t.Slug,
		Name:            t.Name,
	}
}

// TenantDeletedEvent is raised on soft delete
type TenantDeletedEvent struct {
	shared.BaseDomainEvent
	Slug string `json:"slug"`
}

// NewTenantDeletedEvent creates a new TenantDeletedEvent
func NewTenantDeletedEvent(t *Tenant) *TenantDeletedEvent {
	return &TenantDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantDeleted, AggregateTypeTenant, t.ID, t.ID),
		Slug:            t.Slug,
	}
}
