package catalog

import "sort"

// Capability is a feature a package tier may grant
type Capability string

const (
	CapInvoicing        Capability = "invoicing"
	CapCustomers        Capability = "customers"
	CapItems            Capability = "items"
	CapVendors          Capability = "vendors"
	CapRecurringBilling Capability = "recurring_billing"
	CapMultiCurrency    Capability = "multi_currency"
	CapPaymentGateway   Capability = "payment_gateway"
	CapOfflineSync      Capability = "offline_sync"
	CapAuditLog         Capability = "audit_log"
	CapAPIAccess        Capability = "api_access"
	CapMultiUser        Capability = "multi_user"
	CapSSO              Capability = "sso"
	CapStrictCompliance Capability = "strict_compliance"
	CapPrioritySupport  Capability = "priority_support"
)

// grants lists what each tier adds on top of the tier below it
var grants = map[Tier][]Capability{
	TierFree:       {CapInvoicing, CapCustomers, CapItems},
	TierBasic:      {CapVendors, CapRecurringBilling, CapOfflineSync},
	TierPro:        {CapMultiCurrency, CapPaymentGateway, CapAuditLog, CapAPIAccess, CapMultiUser},
	TierEnterprise: {CapSSO, CapStrictCompliance, CapPrioritySupport},
}

var entitlements = buildEntitlements()

func buildEntitlements() map[Tier]map[Capability]struct{} {
	ordered := []Tier{TierFree, TierBasic, TierPro, TierEnterprise}
	out := make(map[Tier]map[Capability]struct{}, len(ordered))
	acc := map[Capability]struct{}{}
	for _, t := range ordered {
		for _, c := range grants[t] {
			acc[c] = struct{}{}
		}
		set := make(map[Capability]struct{}, len(acc))
		for c := range acc {
			set[c] = struct{}{}
		}
		out[t] = set
	}
	return out
}

// HasCapability answers "does tier grant c"; tiers are cumulative
func HasCapability(t Tier, c Capability) bool {
	_, ok := entitlements[t][c]
	return ok
}

// Capabilities returns the sorted capability set of a tier
func Capabilities(t Tier) []Capability {
	set := entitlements[t]
	out := make([]Capability, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
