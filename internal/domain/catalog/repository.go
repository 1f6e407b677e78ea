package catalog

import (
	"context"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/syncstate"
	"github.com/google/uuid"
)

// ItemRepository defines the interface for item persistence.
// Every method is scoped by an explicit tenant ID.
type ItemRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Item, error)
	// FindByIDs returns the items found; missing or foreign ids are simply absent
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Item, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Item, int64, error)
	FindBySyncStatus(ctx context.Context, tenantID uuid.UUID, status syncstate.Status, filter shared.Filter) ([]Item, error)
	ExistsBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (bool, error)
	Save(ctx context.Context, item *Item) error
}

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Customer, int64, error)
	FindBySyncStatus(ctx context.Context, tenantID uuid.UUID, status syncstate.Status, filter shared.Filter) ([]Customer, error)
	Save(ctx context.Context, customer *Customer) error
}

// VendorRepository defines the interface for vendor persistence
type VendorRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Vendor, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Vendor, int64, error)
	FindBySyncStatus(ctx context.Context, tenantID uuid.UUID, status syncstate.Status, filter shared.Filter) ([]Vendor, error)
	Save(ctx context.Context, vendor *Vendor) error
}

// PackageRepository defines the interface for package persistence
type PackageRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Package, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Package, int64, error)
	FindBySyncStatus(ctx context.Context, tenantID uuid.UUID, status syncstate.Status, filter shared.Filter) ([]Package, error)
	ExistsByTier(ctx context.Context, tenantID uuid.UUID, tier Tier) (bool, error)
	ExistsByName(ctx context.Context, tenantID uuid.UUID, name string) (bool, error)
	Save(ctx context.Context, pkg *Package) error
}
