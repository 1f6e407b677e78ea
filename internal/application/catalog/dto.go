package catalog

import (
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/catalog"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared/valueobject"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/syncstate"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateItemRequest represents a request to create a catalog item.
// Currency defaults to the tenant billing currency.
type CreateItemRequest struct {
	SKU         string           `json:"sku" binding:"max=64"`
	Name        string           `json:"name" binding:"required,min=1,max=200"`
	Description string           `json:"description" binding:"max=2000"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	Currency    string           `json:"currency" binding:"omitempty,len=3"`
	Quantity    *decimal.Decimal `json:"quantity"`
}

// UpdateItemRequest represents a partial item update
type UpdateItemRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string          `json:"description" binding:"omitempty,max=2000"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	Quantity    *decimal.Decimal `json:"quantity"`
}

// ContactRequest creates or updates a customer or vendor
type ContactRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=200"`
	Email   string `json:"email" binding:"omitempty,email,max=200"`
	Phone   string `json:"phone" binding:"max=50"`
	Address string `json:"address" binding:"max=500"`
}

// CreatePackageRequest represents a request to create a billing plan
type CreatePackageRequest struct {
	Tier         catalog.Tier    `json:"tier" binding:"required,oneof=Free Basic Pro Enterprise"`
	Name         string          `json:"name" binding:"required,min=1,max=100"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency" binding:"omitempty,len=3"`
	DurationDays int             `json:"duration_days" binding:"required,min=1,max=3660"`
}

// RepriceRequest changes a package price
type RepriceRequest struct {
	Price decimal.Decimal `json:"price"`
}

// ListFilter is the common list query
type ListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,max=50"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search   string `form:"search" binding:"max=100"`
}

// SyncResponse is the sync state carried by every catalog record
type SyncResponse struct {
	Status          syncstate.Status `json:"status"`
	LocalVersion    int64            `json:"local_version"`
	ServerVersion   int64            `json:"server_version"`
	ConflictVersion int64            `json:"conflict_version,omitempty"`
	FailureReason   string           `json:"failure_reason,omitempty"`
	FailedAt        *time.Time       `json:"failed_at,omitempty"`
	SyncedAt        *time.Time       `json:"synced_at,omitempty"`
}

// ItemResponse represents an item in API responses
type ItemResponse struct {
	ID          uuid.UUID    `json:"id"`
	TenantID    uuid.UUID    `json:"tenant_id"`
	SKU         string       `json:"sku,omitempty"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	UnitPrice   string       `json:"unit_price"`
	Currency    string       `json:"currency"`
	Quantity    string       `json:"quantity"`
	Sync        SyncResponse `json:"sync"`
	Version     int          `json:"version"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ContactResponse represents a customer or vendor
type ContactResponse struct {
	ID        uuid.UUID    `json:"id"`
	TenantID  uuid.UUID    `json:"tenant_id"`
	Name      string       `json:"name"`
	Email     string       `json:"email,omitempty"`
	Phone     string       `json:"phone,omitempty"`
	Address   string       `json:"address,omitempty"`
	Sync      SyncResponse `json:"sync"`
	Version   int          `json:"version"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// PackageResponse represents a billing plan
type PackageResponse struct {
	ID           uuid.UUID            `json:"id"`
	TenantID     uuid.UUID            `json:"tenant_id"`
	Tier         catalog.Tier         `json:"tier"`
	Name         string               `json:"name"`
	Price        string               `json:"price"`
	Currency     string               `json:"currency"`
	DurationDays int                  `json:"duration_days"`
	Capabilities []catalog.Capability `json:"capabilities"`
	Sync         SyncResponse         `json:"sync"`
	Version      int                  `json:"version"`
}

func fixed(m valueobject.Money) string {
	return m.Amount().StringFixed(m.Scale())
}

// ToSyncResponse converts a sync state
func ToSyncResponse(s syncstate.State) SyncResponse {
	return SyncResponse{
		Status:          s.Status,
		LocalVersion:    s.LocalVersion,
		ServerVersion:   s.ServerVersion,
		ConflictVersion: s.ConflictVersion,
		FailureReason:   s.FailureReason,
		FailedAt:        s.FailedAt,
		SyncedAt:        s.SyncedAt,
	}
}

// ToItemResponse converts a domain Item
func ToItemResponse(i *catalog.Item) ItemResponse {
	return ItemResponse{
		ID:          i.ID,
		TenantID:    i.TenantID,
		SKU:         i.SKU,
		Name:        i.Name,
		Description: i.Description,
		UnitPrice:   fixed(i.UnitPrice),
		Currency:    i.UnitPrice.Currency().String(),
		Quantity:    i.Quantity.String(),
		Sync:        ToSyncResponse(i.Sync),
		Version:     i.Version,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

func toContactResponse(root *shared.TenantAggregateRoot, c catalog.Contact, s syncstate.State) ContactResponse {
	return ContactResponse{
		ID:        root.ID,
		TenantID:  root.TenantID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		Sync:      ToSyncResponse(s),
		Version:   root.Version,
		CreatedAt: root.CreatedAt,
		UpdatedAt: root.UpdatedAt,
	}
}

// ToCustomerResponse converts a domain Customer
func ToCustomerResponse(c *catalog.Customer) ContactResponse {
	return toContactResponse(&c.TenantAggregateRoot, c.Contact, c.Sync)
}

// ToVendorResponse converts a domain Vendor
func ToVendorResponse(v *catalog.Vendor) ContactResponse {
	return toContactResponse(&v.TenantAggregateRoot, v.Contact, v.Sync)
}

// ToPackageResponse converts a domain Package
func ToPackageResponse(p *catalog.Package) PackageResponse {
	return PackageResponse{
		ID:           p.ID,
		TenantID:     p.TenantID,
		Tier:         p.Tier,
		Name:         p.Name,
		Price:        fixed(p.Price),
		Currency:     p.Price.Currency().String(),
		DurationDays: p.DurationDays,
		Capabilities: catalog.Capabilities(p.Tier),
		Sync:         ToSyncResponse(p.Sync),
		Version:      p.Version,
	}
}

func (c ContactRequest) toContact() catalog.Contact {
	return catalog.Contact{Name: c.Name, Email: c.Email, Phone: c.Phone, Address: c.Address}
}
