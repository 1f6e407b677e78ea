package shared

import (
	"fmt"

	"github.com/google/uuid"
)

// TenantScoped is implemented by everything owned by exactly one tenant
type TenantScoped interface {
	GetTenantID() uuid.UUID
}

// TenantRef adapts a bare tenant ID (e.g. from the auth context) to TenantScoped
type TenantRef uuid.UUID

// GetTenantID returns the referenced tenant
func (r TenantRef) GetTenantID() uuid.UUID {
	return uuid.UUID(r)
}

// AssertSameTenant fails with CROSS_TENANT_VIOLATION unless every argument
// carries the same non-nil tenant ID. It never mutates its arguments.
func AssertSameTenant(first TenantScoped, others ...TenantScoped) error {
	if first == nil {
		return ErrCrossTenantViolation.WithCause(fmt.Errorf("missing tenant scope"))
	}
	want := first.GetTenantID()
	if want == uuid.Nil {
		return ErrCrossTenantViolation.WithCause(fmt.Errorf("nil tenant scope"))
	}
	for i, o := range others {
		if o == nil {
			return ErrCrossTenantViolation.WithCause(fmt.Errorf("missing tenant scope at position %d", i+1))
		}
		if got := o.GetTenantID(); got != want {
			return ErrCrossTenantViolation.WithCause(fmt.Errorf("tenant %s does not match %s", got, want))
		}
	}
	return nil
}
