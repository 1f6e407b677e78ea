// Package catalog runs item, counterparty and package use cases.
package catalog

import (
	"context"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/tx"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/catalog"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared/valueobject"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service handles catalog operations
type Service struct {
	scope tx.Scope
	repos tx.Repositories
}

// NewService creates a new catalog Service
func NewService(scope tx.Scope, repos tx.Repositories) *Service {
	return &Service{scope: scope, repos: repos}
}

// CreateItem adds an item; a SKU already used by the tenant is rejected
func (s *Service) CreateItem(ctx context.Context, tenantID uuid.UUID, req CreateItemRequest) (*ItemResponse, error) {
	var item *catalog.Item
	err := s.scope.Execute(ctx, func(repos tx.Repositories) error {
		if sku := catalog.NormalizeSKU(req.SKU); sku != "" {
			exists, err := repos.Items().ExistsBySKU(ctx, tenantID, sku)
			if err != nil {
				return err
			}
			if exists {
				return shared.NewDomainError(shared.CodeAlreadyExists, "An item with this SKU already exists")
			}
		}
		currency, err := s.currency(ctx, repos, tenantID, req.Currency)
		if err != nil {
			return err
		}
		price, err := valueobject.NewMoney(req.UnitPrice, currency)
		if err != nil {
			return err
		}
		qty := decimal.NewFromInt(1)
		if req.Quantity != nil {
			qty = *req.Quantity
		}
		item, err = catalog.NewItem(tenantID, req.SKU, req.Name, price, qty)
		if err != nil {
			return err
		}
		if req.Description != "" {
			item.Description = req.Description
		}
		setCreatedBy(ctx, &item.TenantAggregateRoot)
		return repos.Items().Save(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Item created", zap.String("item_id", item.ID.String()), zap.String("sku", item.SKU))
	resp := ToItemResponse(item)
	return &resp, nil
}

// GetItem returns one item of the tenant
func (s *Service) GetItem(ctx context.Context, tenantID, id uuid.UUID) (*ItemResponse, error) {
	item, err := s.repos.Items().FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// ListItems lists the tenant's items
func (s *Service) ListItems(ctx context.Context, tenantID uuid.UUID, f ListFilter) (shared.Paginated[ItemResponse], error) {
	filter := f.toFilter()
	items, total, err := s.repos.Items().FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[ItemResponse]{}, err
	}
	out := make([]ItemResponse, len(items))
	for i := range items {
		out[i] = ToItemResponse(&items[i])
	}
	return shared.NewPaginated(out, total, filter.Page, filter.Limit()), nil
}

// UpdateItem applies a partial update. Invoices already issued keep the
// price they snapshotted.
func (s *Service) UpdateItem(ctx context.Context, tenantID, id uuid.UUID, req UpdateItemRequest) (*ItemResponse, error) {
	var item *catalog.Item
	err := s.scope.Execute(ctx, func(repos tx.Repositories) error {
		var err error
		item, err = repos.Items().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := shared.AssertSameTenant(shared.TenantRef(tenantID), item); err != nil {
			return err
		}
		if req.Name != nil || req.Description != nil {
			name, desc := item.Name, item.Description
			if req.Name != nil {
				name = *req.Name
			}
			if req.Description != nil {
				desc = *req.Description
			}
			if err := item.Update(name, desc); err != nil {
				return err
			}
		}
		if req.UnitPrice != nil {
			price, err := valueobject.NewMoney(*req.UnitPrice, item.UnitPrice.Currency())
			if err != nil {
				return err
			}
			if err := item.SetUnitPrice(price); err != nil {
				return err
			}
		}
		if req.Quantity != nil {
			if err := item.SetQuantity(*req.Quantity); err != nil {
				return err
			}
		}
		if item.GetVersion() == item.StoredVersion {
			return nil
		}
		return repos.Items().Save(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// CreateCustomer adds a billable customer
func (s *Service) CreateCustomer(ctx context.Context, tenantID uuid.UUID, req ContactRequest) (*ContactResponse, error) {
	c, err := catalog.NewCustomer(tenantID, req.toContact())
	if err != nil {
		return nil, err
	}
	setCreatedBy(ctx, &c.TenantAggregateRoot)
	if err := s.repos.Customers().Save(ctx, c); err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(c)
	return &resp, nil
}

// GetCustomer returns one customer of the tenant
func (s *Service) GetCustomer(ctx context.Context, tenantID, id uuid.UUID) (*ContactResponse, error) {
	c, err := s.repos.Customers().FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(c)
	return &resp, nil
}

// ListCustomers lists the tenant's customers
func (s *Service) ListCustomers(ctx context.Context, tenantID uuid.UUID, f ListFilter) (shared.Paginated[ContactResponse], error) {
	filter := f.toFilter()
	rows, total, err := s.repos.Customers().FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[ContactResponse]{}, err
	}
	out := make([]ContactResponse, len(rows))
	for i := range rows {
		out[i] = ToCustomerResponse(&rows[i])
	}
	return shared.NewPaginated(out, total, filter.Page, filter.Limit()), nil
}

// UpdateCustomer replaces the customer's contact details
func (s *Service) UpdateCustomer(ctx context.Context, tenantID, id uuid.UUID, req ContactRequest) (*ContactResponse, error) {
	var c *catalog.Customer
	err := s.scope.Execute(ctx, func(repos tx.Repositories) error {
		var err error
		if c, err = repos.Customers().FindByID(ctx, tenantID, id); err != nil {
			return err
		}
		if err := shared.AssertSameTenant(shared.TenantRef(tenantID), c); err != nil {
			return err
		}
		if err := c.Update(req.toContact()); err != nil {
			return err
		}
		return repos.Customers().Save(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(c)
	return &resp, nil
}

// CreateVendor adds a supplier
func (s *Service) CreateVendor(ctx context.Context, tenantID uuid.UUID, req ContactRequest) (*ContactResponse, error) {
	v, err := catalog.NewVendor(tenantID, req.toContact())
	if err != nil {
		return nil, err
	}
	setCreatedBy(ctx, &v.TenantAggregateRoot)
	if err := s.repos.Vendors().Save(ctx, v); err != nil {
		return nil, err
	}
	resp := ToVendorResponse(v)
	return &resp, nil
}

// GetVendor returns one vendor of the tenant
func (s *Service) GetVendor(ctx context.Context, tenantID, id uuid.UUID) (*ContactResponse, error) {
	v, err := s.repos.Vendors().FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToVendorResponse(v)
	return &resp, nil
}

// ListVendors lists the tenant's vendors
func (s *Service) ListVendors(ctx context.Context, tenantID uuid.UUID, f ListFilter) (shared.Paginated[ContactResponse], error) {
	filter := f.toFilter()
	rows, total, err := s.repos.Vendors().FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[ContactResponse]{}, err
	}
	out := make([]ContactResponse, len(rows))
	for i := range rows {
		out[i] = ToVendorResponse(&rows[i])
	}
	return shared.NewPaginated(out, total, filter.Page, filter.Limit()), nil
}

// UpdateVendor replaces the vendor's contact details
func (s *Service) UpdateVendor(ctx context.Context, tenantID, id uuid.UUID, req ContactRequest) (*ContactResponse, error) {
	var v *catalog.Vendor
	err := s.scope.Execute(ctx, func(repos tx.Repositories) error {
		var err error
		if v, err = repos.Vendors().FindByID(ctx, tenantID, id); err != nil {
			return err
		}
		if err := shared.AssertSameTenant(shared.TenantRef(tenantID), v); err != nil {
			return err
		}
		if err := v.Update(req.toContact()); err != nil {
			return err
		}
		return repos.Vendors().Save(ctx, v)
	})
	if err != nil {
		return nil, err
	}
	resp := ToVendorResponse(v)
	return &resp, nil
}

// CreatePackage adds a billing plan. Tier and name are each unique per tenant.
func (s *Service) CreatePackage(ctx context.Context, tenantID uuid.UUID, req CreatePackageRequest) (*PackageResponse, error) {
	var pkg *catalog.Package
	err := s.scope.Execute(ctx, func(repos tx.Repositories) error {
		exists, err := repos.Packages().ExistsByTier(ctx, tenantID, req.Tier)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.CodeAlreadyExists, "A package with this tier already exists")
		}
		if exists, err = repos.Packages().ExistsByName(ctx, tenantID, req.Name); err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.CodeAlreadyExists, "A package with this name already exists")
		}
		currency, err := s.currency(ctx, repos, tenantID, req.Currency)
		if err != nil {
			return err
		}
		price, err := valueobject.NewMoney(req.Price, currency)
		if err != nil {
			return err
		}
		if pkg, err = catalog.NewPackage(tenantID, req.Tier, req.Name, price, req.DurationDays); err != nil {
			return err
		}
		setCreatedBy(ctx, &pkg.TenantAggregateRoot)
		return repos.Packages().Save(ctx, pkg)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Package created", zap.String("package_id", pkg.ID.String()), zap.String("tier", string(pkg.Tier)))
	resp := ToPackageResponse(pkg)
	return &resp, nil
}

// GetPackage returns one package of the tenant
func (s *Service) GetPackage(ctx context.Context, tenantID, id uuid.UUID) (*PackageResponse, error) {
	p, err := s.repos.Packages().FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToPackageResponse(p)
	return &resp, nil
}

// ListPackages lists the tenant's packages
func (s *Service) ListPackages(ctx context.Context, tenantID uuid.UUID, f ListFilter) (shared.Paginated[PackageResponse], error) {
	filter := f.toFilter()
	rows, total, err := s.repos.Packages().FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[PackageResponse]{}, err
	}
	out := make([]PackageResponse, len(rows))
	for i := range rows {
		out[i] = ToPackageResponse(&rows[i])
	}
	return shared.NewPaginated(out, total, filter.Page, filter.Limit()), nil
}

// RepricePackage changes the price charged on later renewals
func (s *Service) RepricePackage(ctx context.Context, tenantID, id uuid.UUID, req RepriceRequest) (*PackageResponse, error) {
	var pkg *catalog.Package
	err := s.scope.Execute(ctx, func(repos tx.Repositories) error {
		var err error
		if pkg, err = repos.Packages().FindByID(ctx, tenantID, id); err != nil {
			return err
		}
		if err := shared.AssertSameTenant(shared.TenantRef(tenantID), pkg); err != nil {
			return err
		}
		price, err := valueobject.NewMoney(req.Price, pkg.Price.Currency())
		if err != nil {
			return err
		}
		if err := pkg.Reprice(price); err != nil {
			return err
		}
		return repos.Packages().Save(ctx, pkg)
	})
	if err != nil {
		return nil, err
	}
	resp := ToPackageResponse(pkg)
	return &resp, nil
}

// Capabilities returns the capability set of a tier
func (s *Service) Capabilities(tier catalog.Tier) ([]catalog.Capability, error) {
	if !tier.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unknown package tier")
	}
	return catalog.Capabilities(tier), nil
}

// currency resolves code, falling back to the tenant billing currency
func (s *Service) currency(ctx context.Context, repos tx.Repositories, tenantID uuid.UUID, code string) (valueobject.Currency, error) {
	if code != "" {
		return valueobject.ParseCurrency(code)
	}
	t, err := repos.Tenants().FindByID(ctx, tenantID)
	if err != nil {
		return "", err
	}
	return t.BillingCurrency(), nil
}

func (f ListFilter) toFilter() shared.Filter {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Search:   f.Search,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	return filter
}

func setCreatedBy(ctx context.Context, root *shared.TenantAggregateRoot) {
	if userID, ok := logger.GetUserID(ctx); ok {
		root.SetCreatedBy(userID)
	}
}
