package valueobject

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrencyScale(t *testing.T) {
	tests := []struct {
		currency Currency
		want     int32
	}{
		{USD, 2},
		{EUR, 2},
		{JPY, 0},
		{KWD, 3},
	}
	for _, tt := range tests {
		t.Run(string(tt.currency), func(t *testing.T) {
			got, err := tt.currency.Scale()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown currency", func(t *testing.T) {
		_, err := Currency("ZZZ").Scale()
		assert.Error(t, err)
	})

	t.Run("registered override", func(t *testing.T) {
		RegisterScale("PTS", 4)
		got, err := Currency("PTS").Scale()
		require.NoError(t, err)
		assert.Equal(t, int32(4), got)
	})
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency(" usd ")
	require.NoError(t, err)
	assert.Equal(t, USD, c)

	_, err = ParseCurrency("dollars")
	assert.Error(t, err)
}

func TestNewMoney(t *testing.T) {
	t.Run("valid amount", func(t *testing.T) {
		m, err := NewMoney(decimal.RequireFromString("100.50"), USD)
		require.NoError(t, err)
		assert.Equal(t, USD, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.RequireFromString("100.5")))
	})

	t.Run("unknown currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(1), "")
		assert.Error(t, err)
	})

	t.Run("overflow is rejected", func(t *testing.T) {
		_, err := NewMoneyFromString("100000000000000", USD)
		assert.True(t, errors.Is(err, ErrMoneyOverflow))
	})

	t.Run("more fractional digits than storage keeps", func(t *testing.T) {
		_, err := NewMoneyFromString("10.123456", USD)
		assert.True(t, errors.Is(err, ErrMoneyPrecision))

		m, err := NewMoneyFromString("10.1234", USD)
		require.NoError(t, err)
		assert.Equal(t, "10.1234", m.Amount().String())

		_, err = NewMoneyFromString("10.12340000", USD)
		assert.NoError(t, err, "trailing zeros are not precision")
	})

	t.Run("from minor units", func(t *testing.T) {
		m, err := NewMoneyFromMinor(10800, USD)
		require.NoError(t, err)
		assert.Equal(t, "108.00 USD", m.String())

		y, err := NewMoneyFromMinor(500, JPY)
		require.NoError(t, err)
		assert.Equal(t, "500 JPY", y.String())
	})

	t.Run("invalid string", func(t *testing.T) {
		_, err := NewMoneyFromString("abc", USD)
		assert.Error(t, err)
	})
}

func TestMoneyArithmetic(t *testing.T) {
	a := MustMoney("100.00", USD)
	b := MustMoney("8.00", USD)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Equals(MustMoney("108", USD)))

	diff, err := sum.Subtract(MustMoney("60.00", USD))
	require.NoError(t, err)
	assert.True(t, diff.Equals(MustMoney("48", USD)))

	neg, err := a.Subtract(MustMoney("150", USD))
	require.NoError(t, err)
	assert.True(t, neg.IsNegative())
	assert.True(t, neg.Negate().Equals(MustMoney("50", USD)))
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	usd := MustMoney("1.00", USD)
	eur := MustMoney("1.00", EUR)

	_, err := usd.Add(eur)
	assert.True(t, errors.Is(err, ErrCurrencyMismatch))

	_, err = usd.Subtract(eur)
	assert.True(t, errors.Is(err, ErrCurrencyMismatch))

	_, err = usd.Compare(eur)
	assert.True(t, errors.Is(err, ErrCurrencyMismatch))
}

func TestMoneyMultiplyAndRound(t *testing.T) {
	price := MustMoney("19.99", USD)

	t.Run("fractional quantity rounds half up", func(t *testing.T) {
		line, err := price.Multiply(decimal.RequireFromString("2.5"))
		require.NoError(t, err)
		// 49.975 -> 49.98
		assert.Equal(t, "49.98", line.Round().Amount().StringFixed(2))
	})

	t.Run("negative rounds away from zero", func(t *testing.T) {
		m := MustMoney("-0.125", USD)
		assert.Equal(t, "-0.13", m.Round().Amount().StringFixed(2))
	})

	t.Run("zero-scale currency", func(t *testing.T) {
		m := MustMoney("100.5", JPY)
		assert.Equal(t, "101", m.Round().Amount().String())
	})

	t.Run("multiply overflow", func(t *testing.T) {
		big := MustMoney("99999999999999", USD)
		_, err := big.Multiply(decimal.NewFromInt(10))
		assert.True(t, errors.Is(err, ErrMoneyOverflow))
	})
}

func TestMoneyCompare(t *testing.T) {
	a := MustMoney("10.00", USD)
	b := MustMoney("10", USD)
	c := MustMoney("10.01", USD)

	cmp, err := a.Compare(b)
	require.NoError(t, err)
	assert.Equal(t, 0, cmp)

	cmp, err = a.Compare(c)
	require.NoError(t, err)
	assert.Equal(t, -1, cmp)
}

func TestMoneyConvertTo(t *testing.T) {
	eur := MustMoney("100.00", EUR)

	usd, err := eur.ConvertTo(USD, decimal.RequireFromString("1.08555"))
	require.NoError(t, err)
	assert.Equal(t, USD, usd.Currency())
	assert.Equal(t, "108.56", usd.Amount().StringFixed(2))

	yen, err := MustMoney("0.0001", USD).ConvertTo(JPY, decimal.RequireFromString("151.123456"))
	require.NoError(t, err, "conversion rounds before the precision check")
	assert.Equal(t, "0", yen.Amount().String())

	_, err = eur.ConvertTo(USD, decimal.Zero)
	assert.True(t, errors.Is(err, ErrInvalidRate))

	_, err = eur.ConvertTo("ZZZ", decimal.NewFromInt(1))
	assert.Error(t, err)
}

func TestMoneyJSON(t *testing.T) {
	m := MustMoney("108", USD)
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"108.00","currency":"USD"}`, string(data))

	var back Money
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Equals(m))

	assert.Error(t, json.Unmarshal([]byte(`{"amount":"1","currency":"ZZZ"}`), &back))
}
