// Package tenant keeps tenant-owned tables from being read or written
// without an explicit tenant_id condition.
//
// Repositories pass the tenant ID explicitly and add it with Scope. The
// guard installed by Guard rejects any statement on a tenant-owned table
// that lacks the condition, unless the context was marked with CrossTenant
// for the few system queries that legitimately span tenants.
package tenant

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Column is the tenant column name on every tenant-owned table
const Column = "tenant_id"

type crossTenantKey struct{}

// Scope filters a query to one tenant
func Scope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(Column+" = ?", tenantID)
	}
}

// CrossTenant marks ctx as running a deliberate cross-tenant statement,
// such as the subscription expiry sweep or session lookup before the
// tenant is known.
func CrossTenant(ctx context.Context) context.Context {
	return context.WithValue(ctx, crossTenantKey{}, true)
}

// IsCrossTenant reports whether ctx was marked with CrossTenant
func IsCrossTenant(ctx context.Context) bool {
	v, _ := ctx.Value(crossTenantKey{}).(bool)
	return v
}
