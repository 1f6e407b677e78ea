// Package tax provides the tax calculator used when invoices are priced.
package tax

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/ledger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// FlatRateCalculator applies a single percentage to the subtotal.
// Rates are fractions (0.08 for 8%). A jurisdiction listed in Rates wins over
// the tenant's default rate.
type FlatRateCalculator struct {
	rates map[string]decimal.Decimal
}

// NewFlatRateCalculator copies rates; keys are matched case-insensitively
func NewFlatRateCalculator(rates map[string]decimal.Decimal) (*FlatRateCalculator, error) {
	c := &FlatRateCalculator{rates: make(map[string]decimal.Decimal, len(rates))}
	for k, v := range rates {
		if v.IsNegative() {
			return nil, fmt.Errorf("tax rate for %q cannot be negative", k)
		}
		c.rates[normalizeJurisdiction(k)] = v
	}
	return c, nil
}

// Calculate returns round(subtotal * rate) in the subtotal's currency
func (c *FlatRateCalculator) Calculate(_ context.Context, req ledger.TaxRequest) (valueobject.Money, error) {
	rate := req.DefaultRate
	if r, ok := c.rates[normalizeJurisdiction(req.Jurisdiction)]; ok && req.Jurisdiction != "" {
		rate = r
	}
	if rate.IsNegative() {
		return valueobject.Money{}, shared.NewDomainError(shared.CodeInvalidInput, "Tax rate cannot be negative")
	}
	if rate.IsZero() {
		return valueobject.Zero(req.Subtotal.Currency()), nil
	}
	tax, err := req.Subtotal.Multiply(rate)
	if err != nil {
		return valueobject.Money{}, err
	}
	return tax.Round(), nil
}

func normalizeJurisdiction(j string) string {
	return strings.ToUpper(strings.TrimSpace(j))
}

var _ ledger.TaxCalculator = (*FlatRateCalculator)(nil)
