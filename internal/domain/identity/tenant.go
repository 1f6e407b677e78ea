package identity

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)

// BillingSettings is the part of the opaque tenant settings the engine reads
type BillingSettings struct {
	Currency     string          `json:"currency"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	Jurisdiction string          `json:"jurisdiction"`

	// Gateway customer and saved payment method charged for renewals
	StripeCustomer      string `json:"stripe_customer,omitempty"`
	StripePaymentMethod string `json:"stripe_payment_method,omitempty"`
}

// Tenant is the isolation boundary; every scoped entity is owned by one tenant.
// Tenants are soft-deleted and never hard-deleted while children exist.
type Tenant struct {
	shared.BaseAggregateRoot
	Slug      string
	Name      string
	Settings  json.RawMessage
	DeletedAt *time.Time
}

// NewTenant creates an active tenant with empty settings
func NewTenant(slug, name string) (*Tenant, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if !slugPattern.MatchString(slug) {
		return nil, shared.NewDomainError("INVALID_SLUG", "Tenant slug must be 2-63 lowercase letters, digits or hyphens")
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Tenant name must be 1-200 characters")
	}

	t := &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Slug:              slug,
		Name:              name,
		Settings:          json.RawMessage("{}"),
	}
	t.AddDomainEvent(NewTenantCreatedEvent(t))
	return t, nil
}

// GetTenantID returns the tenant's own ID, so a Tenant can be guarded like its children
func (t *Tenant) GetTenantID() uuid.UUID {
	return t.ID
}

// UpdateSettings replaces the settings document; it must be a JSON object
func (t *Tenant) UpdateSettings(raw json.RawMessage) error {
	if t.IsDeleted() {
		return shared.ErrInvalidStateTransition.WithState(t)
	}
	var probe map[string]any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return shared.NewDomainError("INVALID_SETTINGS", "Tenant settings must be a JSON object")
	}
	if _, err := decodeBilling(raw); err != nil {
		return err
	}
	t.Settings = raw
	t.Touch()
	t.IncrementVersion()
	return nil
}

// Billing decodes the billing-relevant settings, applying defaults
func (t *Tenant) Billing() (BillingSettings, error) {
	return decodeBilling(t.Settings)
}

// BillingCurrency returns the tenant's default invoice currency
func (t *Tenant) BillingCurrency() valueobject.Currency {
	b, err := t.Billing()
	if err != nil || b.Currency == "" {
		return valueobject.DefaultCurrency
	}
	return valueobject.Currency(b.Currency)
}

// SoftDelete marks the tenant deleted; the row and its children are kept
func (t *Tenant) SoftDelete(now time.Time) error {
	if t.IsDeleted() {
		return shared.ErrInvalidStateTransition.WithState(t)
	}
	t.DeletedAt = &now
	t.Touch()
	t.IncrementVersion()
	t.AddDomainEvent(NewTenantDeletedEvent(t))
	return nil
}

// IsDeleted reports whether the tenant was soft-deleted
func (t *Tenant) IsDeleted() bool {
	return t.DeletedAt != nil
}

func decodeBilling(raw json.RawMessage) (BillingSettings, error) {
	var b BillingSettings
	if len(raw) == 0 {
		return b, nil
	}
	if err := json.Unmarshal(raw, &b); err != nil {
		return b, shared.NewDomainError("INVALID_SETTINGS", "Tenant billing settings are malformed")
	}
	if b.Currency != "" {
		if _, err := valueobject.ParseCurrency(b.Currency); err != nil {
			return b, err
		}
	}
	if b.TaxRate.IsNegative() {
		return b, shared.NewDomainError("INVALID_SETTINGS", "Tax rate cannot be negative")
	}
	return b, nil
}
