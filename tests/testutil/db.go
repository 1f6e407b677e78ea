package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/catalog"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/identity"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared/valueobject"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/persistence"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewSQLiteDB opens an in-memory database with the full schema and the
// tenant guard installed. A single connection keeps every transaction on
// the same schema, so concurrent callers queue on the pool.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), persistence.GormConfig(nil))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, persistence.AutoMigrate(db))
	require.NoError(t, tenant.Guard(db))
	return db
}

// Money is valueobject.MustMoney in USD.
func Money(amount string) valueobject.Money {
	return valueobject.MustMoney(amount, valueobject.USD)
}

// SeedTenant stores a tenant billing in USD with the given tax rate.
func SeedTenant(t *testing.T, db *gorm.DB, slug, taxRate string) *identity.Tenant {
	t.Helper()
	tn, err := identity.NewTenant(slug, "Tenant "+slug)
	require.NoError(t, err)
	require.NoError(t, tn.UpdateSettings([]byte(`{"currency":"USD","tax_rate":"`+taxRate+`"}`)))
	require.NoError(t, persistence.NewGormTenantRepository(db).Save(context.Background(), tn))
	return tn
}

// SeedCustomer stores a customer for tenantID.
func SeedCustomer(t *testing.T, db *gorm.DB, tenantID uuid.UUID, name string) *catalog.Customer {
	t.Helper()
	c, err := catalog.NewCustomer(tenantID, catalog.Contact{Name: name, Email: "billing@example.test"})
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormCustomerRepository(db).Save(context.Background(), c))
	return c
}

// SeedItem stores a USD item with stock 100.
func SeedItem(t *testing.T, db *gorm.DB, tenantID uuid.UUID, sku, price string) *catalog.Item {
	t.Helper()
	item, err := catalog.NewItem(tenantID, sku, "Item "+sku, Money(price), decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormItemRepository(db).Save(context.Background(), item))
	return item
}

// SeedPackage stores a USD package.
func SeedPackage(t *testing.T, db *gorm.DB, tenantID uuid.UUID, tier catalog.Tier, price string, days int) *catalog.Package {
	t.Helper()
	p, err := catalog.NewPackage(tenantID, tier, string(tier)+" plan", Money(price), days)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormPackageRepository(db).Save(context.Background(), p))
	return p
}

// Clock is a settable time source for services that take a now func.
type Clock struct {
	t time.Time
}

// NewClock starts a clock at t.
func NewClock(t time.Time) *Clock {
	return &Clock{t: t}
}

func (c *Clock) Now() time.Time { return c.t }

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) { c.t = c.t.Add(d) }
