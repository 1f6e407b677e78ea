// Package tx defines the transaction and serialization ports the
// application services run their use cases under.
package tx

import (
	"context"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/audit"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/catalog"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/identity"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/ledger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/subscription"
)

// Scope runs a unit of work atomically.
// If fn returns an error, every write made through repos is rolled back.
type Scope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories gives access to every repository inside one transaction.
// All returned repositories share the same underlying transaction.
type Repositories interface {
	Tenants() identity.TenantRepository
	Users() identity.UserRepository
	Sessions() identity.SessionRepository
	Items() catalog.ItemRepository
	Customers() catalog.CustomerRepository
	Vendors() catalog.VendorRepository
	Packages() catalog.PackageRepository
	Invoices() ledger.InvoiceRepository
	Subscriptions() subscription.Repository
	Audit() audit.Repository
}

// Locker serializes work on one key (an invoice or a tenant) across
// goroutines and, with a shared backend, across processes.
type Locker interface {
	// Lock blocks until the key is held or ctx ends. The returned function
	// releases it and is safe to call more than once.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// InvoiceKey is the lock key serializing mutations of one invoice
func InvoiceKey(tenantID, invoiceID string) string {
	return "invoice:" + tenantID + ":" + invoiceID
}

// TenantKey is the lock key serializing subscription changes of one tenant
func TenantKey(tenantID string) string {
	return "tenant:" + tenantID
}
