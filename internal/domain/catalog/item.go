package catalog

import (
	"strings"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared/valueobject"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/syncstate"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is a tenant-scoped catalog line. Quantity is decimal so fractional
// units (hours, kg) are supported. SKU is optional and unique per tenant.
type Item struct {
	shared.TenantAggregateRoot
	SKU         string
	Name        string
	Description string
	UnitPrice   valueobject.Money
	Quantity    decimal.Decimal
	Sync        syncstate.State
}

// NewItem creates a new catalog item
func NewItem(tenantID uuid.UUID, sku, name string, unitPrice valueobject.Money, quantity decimal.Decimal) (*Item, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Item name must be 1-200 characters")
	}
	if err := validatePrice(unitPrice); err != nil {
		return nil, err
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	sku = NormalizeSKU(sku)
	if len(sku) > 64 {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 64 characters")
	}

	return &Item{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SKU:                 sku,
		Name:                name,
		UnitPrice:           unitPrice,
		Quantity:            quantity,
		Sync:                syncstate.NewState(),
	}, nil
}

// NormalizeSKU is the stored form of a SKU; uniqueness is checked on it
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

func validateQuantity(q decimal.Decimal) error {
	if q.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Item quantity cannot be negative")
	}
	return valueobject.CheckStorable(q)
}

// HasSKU reports whether the item carries a SKU
func (i *Item) HasSKU() bool {
	return i.SKU != ""
}

// Update changes the descriptive fields
func (i *Item) Update(name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Item name must be 1-200 characters")
	}
	i.Name = name
	i.Description = description
	i.changed()
	return nil
}

// SetUnitPrice changes the price. Issued invoices keep their snapshot.
func (i *Item) SetUnitPrice(price valueobject.Money) error {
	if err := validatePrice(price); err != nil {
		return err
	}
	i.UnitPrice = price
	i.changed()
	return nil
}

// SetQuantity changes the default quantity
func (i *Item) SetQuantity(q decimal.Decimal) error {
	if err := validateQuantity(q); err != nil {
		return err
	}
	i.Quantity = q
	i.changed()
	return nil
}

// SyncState exposes the sync state
func (i *Item) SyncState() *syncstate.State {
	return &i.Sync
}

func (i *Item) changed() {
	i.Touch()
	i.IncrementVersion()
	i.Sync.MarkPending()
}

func validatePrice(p valueobject.Money) error {
	if !p.Currency().IsValid() {
		return shared.NewDomainError("INVALID_PRICE", "Price currency is not supported")
	}
	if p.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	return nil
}
