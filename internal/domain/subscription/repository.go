package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists package subscriptions
type Repository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*PackageSubscription, error)
	// FindCurrent returns the tenant's non-terminal subscription or NOT_FOUND
	FindCurrent(ctx context.Context, tenantID uuid.UUID) (*PackageSubscription, error)
	FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]PackageSubscription, error)
	// FindDue returns non-terminal subscriptions of any tenant whose period or
	// trial ended before now, oldest first. Used by the expiry sweep.
	FindDue(ctx context.Context, now time.Time, limit int) ([]PackageSubscription, error)
	// Create inserts s; a second non-terminal subscription yields SUBSCRIPTION_EXISTS
	Create(ctx context.Context, s *PackageSubscription) error
	SaveWithLock(ctx context.Context, s *PackageSubscription) error
}
