package valueobject

import (
	"encoding/json"
	"fmt"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Amounts and quantities are stored as decimal(18,4).
const (
	MaxIntegerDigits  = 14
	MaxFractionDigits = 4
)

var maxMagnitude = decimal.New(1, MaxIntegerDigits)

// Money errors
var (
	ErrCurrencyMismatch = shared.NewDomainError(shared.CodeCurrencyMismatch, "Cannot mix currencies without conversion")
	ErrMoneyOverflow    = shared.NewDomainError(shared.CodeMoneyOverflow, "Monetary amount exceeds representable precision")
	ErrMoneyPrecision   = shared.NewDomainError(shared.CodeMoneyPrecision, "Value has more fractional digits than can be stored")
	ErrInvalidRate      = shared.NewDomainError(shared.CodeInvalidInput, "Conversion rate must be positive")
)

// Money is an immutable fixed-point monetary amount in a single currency.
// All operations return new values; binary floating point is never used.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates Money, rejecting unknown currencies and amounts that
// storage could not hold exactly
func NewMoney(amount decimal.Decimal, c Currency) (Money, error) {
	if _, err := c.Scale(); err != nil {
		return Money{}, err
	}
	if err := CheckStorable(amount); err != nil {
		return Money{}, err
	}
	return Money{amount: amount, currency: c}, nil
}

// NewMoneyFromString creates Money from a decimal string such as "108.00"
func NewMoneyFromString(amount string, c Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, shared.ErrInvalidInput.WithCause(fmt.Errorf("invalid amount %q: %w", amount, err))
	}
	return NewMoney(d, c)
}

// NewMoneyFromMinor creates Money from an integer count of minor units (cents)
func NewMoneyFromMinor(minor int64, c Currency) (Money, error) {
	scale, err := c.Scale()
	if err != nil {
		return Money{}, err
	}
	return NewMoney(decimal.New(minor, -scale), c)
}

// MustMoney is NewMoneyFromString that panics; for constants and tests
func MustMoney(amount string, c Currency) Money {
	m, err := NewMoneyFromString(amount, c)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns zero in the given currency
func Zero(c Currency) Money {
	return Money{amount: decimal.Zero, currency: c}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// Scale returns the minor-unit scale of the currency
func (m Money) Scale() int32 {
	return m.currency.mustScale()
}

func (m Money) IsZero() bool     { return m.amount.IsZero() }
func (m Money) IsPositive() bool { return m.amount.IsPositive() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// Add returns m + other
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return m.with(m.amount.Add(other.amount))
}

// Subtract returns m - other
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return m.with(m.amount.Sub(other.amount))
}

// Multiply returns m * quantity without rounding
func (m Money) Multiply(quantity decimal.Decimal) (Money, error) {
	return m.with(m.amount.Mul(quantity))
}

// Negate flips the sign
func (m Money) Negate() Money {
	return Money{amount: m.amount.Neg(), currency: m.currency}
}

// Round rounds HALF_UP to the currency's minor-unit scale
func (m Money) Round() Money {
	return m.RoundTo(m.Scale())
}

// RoundTo rounds HALF_UP (half away from zero) to the given scale
func (m Money) RoundTo(scale int32) Money {
	return Money{amount: m.amount.Round(scale), currency: m.currency}
}

// Compare returns -1, 0 or 1. Comparing different currencies is an error.
func (m Money) Compare(other Money) (int, error) {
	if err := m.sameCurrency(other); err != nil {
		return 0, err
	}
	return m.amount.Cmp(other.amount), nil
}

// Equals reports equal currency and numerically equal amount
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// ConvertTo converts into target using rate (units of target per unit of m),
// rounded to the target's scale.
func (m Money) ConvertTo(target Currency, rate decimal.Decimal) (Money, error) {
	if !rate.IsPositive() {
		return Money{}, ErrInvalidRate
	}
	scale, err := target.Scale()
	if err != nil {
		return Money{}, err
	}
	return NewMoney(m.amount.Mul(rate).Round(scale), target)
}

// String formats the amount at the currency scale, e.g. "108.00 USD"
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(m.Scale()), m.currency)
}

// MarshalJSON encodes the amount as a string to keep precision
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string   `json:"amount"`
		Currency Currency `json:"currency"`
	}{
		Amount:   m.amount.StringFixed(m.Scale()),
		Currency: m.currency,
	})
}

// UnmarshalJSON validates through NewMoney
func (m *Money) UnmarshalJSON(data []byte) error {
	var v struct {
		Amount   string   `json:"amount"`
		Currency Currency `json:"currency"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := NewMoneyFromString(v.Amount, v.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Money) with(amount decimal.Decimal) (Money, error) {
	if err := checkMagnitude(amount); err != nil {
		return Money{}, err
	}
	return Money{amount: amount, currency: m.currency}, nil
}

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return ErrCurrencyMismatch.WithCause(fmt.Errorf("%s vs %s", m.currency, other.currency))
	}
	return nil
}

// CheckStorable rejects a decimal that a decimal(18,4) column would round
// or overflow. Trailing zeros do not count as precision.
func CheckStorable(d decimal.Decimal) error {
	if err := checkMagnitude(d); err != nil {
		return err
	}
	if !d.Equal(d.Truncate(MaxFractionDigits)) {
		return ErrMoneyPrecision.WithCause(fmt.Errorf("%s has more than %d fractional digits", d.String(), MaxFractionDigits))
	}
	return nil
}

func checkMagnitude(amount decimal.Decimal) error {
	if amount.Abs().GreaterThanOrEqual(maxMagnitude) {
		return ErrMoneyOverflow.WithCause(fmt.Errorf("%s has more than %d integer digits", amount.String(), MaxIntegerDigits))
	}
	return nil
}
