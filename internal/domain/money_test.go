package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoneyNormalizesScale(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency Currency
		want     string
	}{
		{name: "already at scale", amount: "100.00", currency: CurrencyUSD, want: "100.00 USD"},
		{name: "rounds half up", amount: "10.005", currency: CurrencyUSD, want: "10.01 USD"},
		{name: "rounds down below half", amount: "10.004", currency: CurrencyUSD, want: "10.00 USD"},
		{name: "extends scale", amount: "5", currency: CurrencyEUR, want: "5.00 EUR"},
		{name: "zero-digit currency", amount: "1200.5", currency: CurrencyJPY, want: "1201 JPY"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, err := ParseMoney(tc.amount, tc.currency)
			require.NoError(t, err)
			assert.Equal(t, tc.want, m.String())
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := MustMoney("100.50", CurrencyUSD)
	b := MustMoney("24.50", CurrencyUSD)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "125.00 USD", sum.String())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, "76.00 USD", diff.String())

	assert.Equal(t, "201.00 USD", a.Mul(decimal.NewFromInt(2)).String())

	half, err := a.Div(decimal.NewFromInt(3))
	require.NoError(t, err)
	assert.Equal(t, "33.50 USD", half.String())

	_, err = a.Div(decimal.Zero)
	assert.Error(t, err)
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	usd := MustMoney("10.00", CurrencyUSD)
	eur := MustMoney("10.00", CurrencyEUR)

	_, err := usd.Add(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = usd.Sub(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = usd.Cmp(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestMoneyComparisons(t *testing.T) {
	big := MustMoney("50.00", CurrencyGBP)
	small := MustMoney("20.00", CurrencyGBP)

	gt, err := big.GreaterThan(small)
	require.NoError(t, err)
	assert.True(t, gt)

	lt, err := big.LessThan(small)
	require.NoError(t, err)
	assert.False(t, lt)

	assert.True(t, ZeroMoney(CurrencyGBP).IsZero())
	assert.True(t, big.IsPositive())
	assert.False(t, big.IsNegative())

	diff, err := small.Sub(big)
	require.NoError(t, err)
	assert.True(t, diff.IsNegative())
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	m := MustMoney("1234.56", CurrencyUSD)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"1234.56","currency":"USD"}`, string(data))

	var back Money
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, m.Equal(back))
}
