package catalog

import (
	"strings"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared/valueobject"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/syncstate"
	"github.com/google/uuid"
)

// Tier is the billing plan level of a package
type Tier string

const (
	TierFree       Tier = "Free"
	TierBasic      Tier = "Basic"
	TierPro        Tier = "Pro"
	TierEnterprise Tier = "Enterprise"
)

// IsValid checks if the tier is known
func (t Tier) IsValid() bool {
	_, ok := tierRank[t]
	return ok
}

// Rank orders tiers from Free (0) to Enterprise (3)
func (t Tier) Rank() int {
	return tierRank[t]
}

var tierRank = map[Tier]int{
	TierFree:       0,
	TierBasic:      1,
	TierPro:        2,
	TierEnterprise: 3,
}

// Package is a billing plan a tenant can subscribe to
type Package struct {
	shared.TenantAggregateRoot
	Tier         Tier
	Name         string
	Price        valueobject.Money
	DurationDays int
	Sync         syncstate.State
}

// NewPackage creates a new billing plan
func NewPackage(tenantID uuid.UUID, tier Tier, name string, price valueobject.Money, durationDays int) (*Package, error) {
	if !tier.IsValid() {
		return nil, shared.NewDomainError("INVALID_TIER", "Unknown package tier")
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_NAME", "Package name must be 1-100 characters")
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}
	if durationDays <= 0 {
		return nil, shared.NewDomainError("INVALID_DURATION", "Package duration must be positive")
	}
	return &Package{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Tier:                tier,
		Name:                name,
		Price:               price,
		DurationDays:        durationDays,
		Sync:                syncstate.NewState(),
	}, nil
}

// Reprice changes the price charged on subsequent renewals
func (p *Package) Reprice(price valueobject.Money) error {
	if err := validatePrice(price); err != nil {
		return err
	}
	p.Price = price
	p.Touch()
	p.IncrementVersion()
	p.Sync.MarkPending()
	return nil
}

// HasCapability reports whether this package's tier grants c
func (p *Package) HasCapability(c Capability) bool {
	return HasCapability(p.Tier, c)
}

// SyncState exposes the sync state
func (p *Package) SyncState() *syncstate.State {
	return &p.Sync
}
