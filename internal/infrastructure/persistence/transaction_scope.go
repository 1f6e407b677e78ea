package persistence

import (
	"context"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/tx"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/audit"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/catalog"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/identity"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/ledger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/subscription"
	"gorm.io/gorm"
)

// GormTransactionScope implements tx.Scope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos tx.Repositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(NewRepositories(db))
	})
	return translateError(err)
}

// Repositories binds every repository to one *gorm.DB, which may be a
// transaction.
type Repositories struct {
	db *gorm.DB
}

// NewRepositories returns repositories sharing db
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{db: db}
}

func (r *Repositories) Tenants() identity.TenantRepository {
	return NewGormTenantRepository(r.db)
}

func (r *Repositories) Users() identity.UserRepository {
	return NewGormUserRepository(r.db)
}

func (r *Repositories) Sessions() identity.SessionRepository {
	return NewGormSessionRepository(r.db)
}

func (r *Repositories) Items() catalog.ItemRepository {
	return NewGormItemRepository(r.db)
}

func (r *Repositories) Customers() catalog.CustomerRepository {
	return NewGormCustomerRepository(r.db)
}

func (r *Repositories) Vendors() catalog.VendorRepository {
	return NewGormVendorRepository(r.db)
}

func (r *Repositories) Packages() catalog.PackageRepository {
	return NewGormPackageRepository(r.db)
}

func (r *Repositories) Invoices() ledger.InvoiceRepository {
	return NewGormInvoiceRepository(r.db)
}

func (r *Repositories) Subscriptions() subscription.Repository {
	return NewGormSubscriptionRepository(r.db)
}

func (r *Repositories) Audit() audit.Repository {
	return NewGormAuditRepository(r.db)
}

var (
	_ tx.Scope        = (*GormTransactionScope)(nil)
	_ tx.Repositories = (*Repositories)(nil)
)
