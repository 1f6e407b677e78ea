package persistence

import (
	"context"
	"strings"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/catalog"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/syncstate"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/persistence/models"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormItemRepository implements catalog.ItemRepository using GORM
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// FindByID finds an item by ID within a tenant
func (r *GormItemRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Item, error) {
	var model models.ItemModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain()
}

// FindByIDs finds multiple items by their IDs within a tenant
func (r *GormItemRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Item, error) {
	if len(ids) == 0 {
		return []catalog.Item{}, nil
	}
	var rows []models.ItemModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return itemsToDomain(rows)
}

// FindAll lists items matching the filter; search covers name and sku
func (r *GormItemRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Item, int64, error) {
	query := applySearch(
		r.db.WithContext(ctx).Model(&models.ItemModel{}).Scopes(tenant.Scope(tenantID)),
		filter.Search, "name", "sku",
	).Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	var rows []models.ItemModel
	if err := applyPage(applyOrder(query, filter, itemSortFields), filter).Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	items, err := itemsToDomain(rows)
	return items, total, err
}

func (r *GormItemRepository) FindBySyncStatus(ctx context.Context, tenantID uuid.UUID, status syncstate.Status, filter shared.Filter) ([]catalog.Item, error) {
	var rows []models.ItemModel
	if err := bySyncStatus(r.db.WithContext(ctx), tenantID, status, filter).Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return itemsToDomain(rows)
}

// ExistsBySKU checks whether the tenant already has an item with the SKU
func (r *GormItemRepository) ExistsBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (bool, error) {
	sku = catalog.NormalizeSKU(sku)
	if sku == "" {
		return false, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ItemModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("sku = ?", sku).
		Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

func (r *GormItemRepository) Save(ctx context.Context, item *catalog.Item) error {
	return saveTenantAggregate(ctx, r.db, &item.TenantAggregateRoot, func() any {
		return models.ItemModelFromDomain(item)
	})
}

// GormCustomerRepository implements catalog.CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

func (r *GormCustomerRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormCustomerRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Customer, int64, error) {
	query := applySearch(
		r.db.WithContext(ctx).Model(&models.CustomerModel{}).Scopes(tenant.Scope(tenantID)),
		filter.Search, "name", "email",
	).Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	var rows []models.CustomerModel
	if err := applyPage(applyOrder(query, filter, partySortFields), filter).Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	customers := make([]catalog.Customer, len(rows))
	for i := range rows {
		customers[i] = *rows[i].ToDomain()
	}
	return customers, total, nil
}

func (r *GormCustomerRepository) FindBySyncStatus(ctx context.Context, tenantID uuid.UUID, status syncstate.Status, filter shared.Filter) ([]catalog.Customer, error) {
	var rows []models.CustomerModel
	if err := bySyncStatus(r.db.WithContext(ctx), tenantID, status, filter).Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	customers := make([]catalog.Customer, len(rows))
	for i := range rows {
		customers[i] = *rows[i].ToDomain()
	}
	return customers, nil
}

func (r *GormCustomerRepository) Save(ctx context.Context, c *catalog.Customer) error {
	return saveTenantAggregate(ctx, r.db, &c.TenantAggregateRoot, func() any {
		return models.CustomerModelFromDomain(c)
	})
}

// GormVendorRepository implements catalog.VendorRepository using GORM
type GormVendorRepository struct {
	db *gorm.DB
}

// NewGormVendorRepository creates a new GormVendorRepository
func NewGormVendorRepository(db *gorm.DB) *GormVendorRepository {
	return &GormVendorRepository{db: db}
}

func (r *GormVendorRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Vendor, error) {
	var model models.VendorModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormVendorRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Vendor, int64, error) {
	query := applySearch(
		r.db.WithContext(ctx).Model(&models.VendorModel{}).Scopes(tenant.Scope(tenantID)),
		filter.Search, "name", "email",
	).Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	var rows []models.VendorModel
	if err := applyPage(applyOrder(query, filter, partySortFields), filter).Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	vendors := make([]catalog.Vendor, len(rows))
	for i := range rows {
		vendors[i] = *rows[i].ToDomain()
	}
	return vendors, total, nil
}

func (r *GormVendorRepository) FindBySyncStatus(ctx context.Context, tenantID uuid.UUID, status syncstate.Status, filter shared.Filter) ([]catalog.Vendor, error) {
	var rows []models.VendorModel
	if err := bySyncStatus(r.db.WithContext(ctx), tenantID, status, filter).Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	vendors := make([]catalog.Vendor, len(rows))
	for i := range rows {
		vendors[i] = *rows[i].ToDomain()
	}
	return vendors, nil
}

func (r *GormVendorRepository) Save(ctx context.Context, v *catalog.Vendor) error {
	return saveTenantAggregate(ctx, r.db, &v.TenantAggregateRoot, func() any {
		return models.VendorModelFromDomain(v)
	})
}

// GormPackageRepository implements catalog.PackageRepository using GORM
type GormPackageRepository struct {
	db *gorm.DB
}

// NewGormPackageRepository creates a new GormPackageRepository
func NewGormPackageRepository(db *gorm.DB) *GormPackageRepository {
	return &GormPackageRepository{db: db}
}

func (r *GormPackageRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Package, error) {
	var model models.PackageModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain()
}

func (r *GormPackageRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Package, int64, error) {
	query := applySearch(
		r.db.WithContext(ctx).Model(&models.PackageModel{}).Scopes(tenant.Scope(tenantID)),
		filter.Search, "name",
	).Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	var rows []models.PackageModel
	if err := applyPage(applyOrder(query, filter, packageSortFields), filter).Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	pkgs, err := packagesToDomain(rows)
	return pkgs, total, err
}

func (r *GormPackageRepository) FindBySyncStatus(ctx context.Context, tenantID uuid.UUID, status syncstate.Status, filter shared.Filter) ([]catalog.Package, error) {
	var rows []models.PackageModel
	if err := bySyncStatus(r.db.WithContext(ctx), tenantID, status, filter).Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return packagesToDomain(rows)
}

func (r *GormPackageRepository) ExistsByTier(ctx context.Context, tenantID uuid.UUID, tier catalog.Tier) (bool, error) {
	return r.exists(ctx, tenantID, "tier = ?", string(tier))
}

func (r *GormPackageRepository) ExistsByName(ctx context.Context, tenantID uuid.UUID, name string) (bool, error) {
	return r.exists(ctx, tenantID, "name = ?", strings.TrimSpace(name))
}

func (r *GormPackageRepository) exists(ctx context.Context, tenantID uuid.UUID, cond string, arg any) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PackageModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where(cond, arg).
		Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

func (r *GormPackageRepository) Save(ctx context.Context, p *catalog.Package) error {
	return saveTenantAggregate(ctx, r.db, &p.TenantAggregateRoot, func() any {
		return models.PackageModelFromDomain(p)
	})
}

// saveTenantAggregate inserts a never-stored aggregate or updates it under
// the optimistic lock. toModel is called after the version is advanced.
func saveTenantAggregate(ctx context.Context, db *gorm.DB, root *shared.TenantAggregateRoot, toModel func() any) error {
	if root.StoredVersion == 0 {
		if err := db.WithContext(ctx).Create(toModel()).Error; err != nil {
			return translateError(err)
		}
		root.MarkStored()
		return nil
	}
	prev := root.Version
	expected := advanceVersion(&root.BaseAggregateRoot)
	if err := updateVersioned(ctx, db, toModel(), expected, tenant.Scope(root.TenantID)); err != nil {
		root.Version = prev
		return err
	}
	root.MarkStored()
	return nil
}

// bySyncStatus builds the listing used by the external sync retry job
func bySyncStatus(db *gorm.DB, tenantID uuid.UUID, status syncstate.Status, filter shared.Filter) *gorm.DB {
	return applyPage(
		db.Scopes(tenant.Scope(tenantID)).
			Where("sync_status = ?", string(status)).
			Order("updated_at ASC"),
		filter,
	)
}

func itemsToDomain(rows []models.ItemModel) ([]catalog.Item, error) {
	items := make([]catalog.Item, 0, len(rows))
	for i := range rows {
		item, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

func packagesToDomain(rows []models.PackageModel) ([]catalog.Package, error) {
	pkgs := make([]catalog.Package, 0, len(rows))
	for i := range rows {
		p, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, *p)
	}
	return pkgs, nil
}

var (
	_ catalog.ItemRepository     = (*GormItemRepository)(nil)
	_ catalog.CustomerRepository = (*GormCustomerRepository)(nil)
	_ catalog.VendorRepository   = (*GormVendorRepository)(nil)
	_ catalog.PackageRepository  = (*GormPackageRepository)(nil)
)
