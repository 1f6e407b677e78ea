package valueobject

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"golang.org/x/text/currency"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	PKR Currency = "PKR"
	KWD Currency = "KWD"
)

// DefaultCurrency is used when a tenant has no currency configured
const DefaultCurrency = USD

// ErrUnknownCurrency is returned for codes that are neither ISO 4217 nor registered
var ErrUnknownCurrency = shared.NewDomainError(shared.CodeInvalidInput, "Unknown currency code")

var (
	scaleMu        sync.RWMutex
	scaleOverrides = map[Currency]int32{}
)

// RegisterScale overrides the minor-unit scale of a currency.
// Codes outside ISO 4217 must be registered before use.
func RegisterScale(c Currency, scale int32) {
	scaleMu.Lock()
	defer scaleMu.Unlock()
	scaleOverrides[c] = scale
}

// ParseCurrency normalizes and validates a currency code
func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	if _, err := c.Scale(); err != nil {
		return "", err
	}
	return c, nil
}

// Scale returns the number of minor-unit digits for the currency
func (c Currency) Scale() (int32, error) {
	scaleMu.RLock()
	s, ok := scaleOverrides[c]
	scaleMu.RUnlock()
	if ok {
		return s, nil
	}
	unit, err := currency.ParseISO(string(c))
	if err != nil {
		return 0, ErrUnknownCurrency.WithCause(fmt.Errorf("%q: %w", c, err))
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale), nil
}

// IsValid reports whether the currency has a known scale
func (c Currency) IsValid() bool {
	_, err := c.Scale()
	return err == nil
}

// String returns the currency code
func (c Currency) String() string {
	return string(c)
}

func (c Currency) mustScale() int32 {
	s, err := c.Scale()
	if err != nil {
		// Unknown currencies never get past NewMoney; fall back to cents.
		return 2
	}
	return s
}
