package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyNGN Currency = "NGN"
	CurrencyJPY Currency = "JPY"
)

var currencyDigits = map[Currency]int32{
	CurrencyUSD: 2,
	CurrencyEUR: 2,
	CurrencyGBP: 2,
	CurrencyNGN: 2,
	CurrencyJPY: 0,
}

func (c Currency) IsValid() bool {
	_, ok := currencyDigits[c]
	return ok
}

// FractionDigits reports the number of decimal places amounts of this
// currency are kept at.
func (c Currency) FractionDigits() int32 {
	if d, ok := currencyDigits[c]; ok {
		return d
	}
	return 2
}

// Money is a currency-tagged decimal amount. Construction normalizes the
// scale to the currency's fraction digits, rounding half up. The zero value
// has no currency and should not be used; build values with NewMoney or
// ZeroMoney.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

func NewMoney(amount decimal.Decimal, currency Currency) Money {
	return Money{
		amount:   amount.Round(currency.FractionDigits()),
		currency: currency,
	}
}

func ParseMoney(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("ParseMoney: %w", err)
	}
	return NewMoney(d, currency), nil
}

// MustMoney panics on a malformed amount. For constants and tests.
func MustMoney(amount string, currency Currency) Money {
	m, err := ParseMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

func ZeroMoney(currency Currency) Money {
	return Money{amount: decimal.Zero.Round(currency.FractionDigits()), currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency     { return m.currency }

func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return NewMoney(m.amount.Add(other.amount), m.currency), nil
}

func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return NewMoney(m.amount.Sub(other.amount), m.currency), nil
}

func (m Money) Mul(factor decimal.Decimal) Money {
	return NewMoney(m.amount.Mul(factor), m.currency)
}

func (m Money) Div(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, fmt.Errorf("Div: division by zero")
	}
	return NewMoney(m.amount.DivRound(divisor, m.currency.FractionDigits()), m.currency), nil
}

// Cmp returns -1, 0 or 1 like decimal.Cmp. Comparing across currencies is a
// caller bug, reported as CurrencyMismatch.
func (m Money) Cmp(other Money) (int, error) {
	if err := m.sameCurrency(other); err != nil {
		return 0, err
	}
	return m.amount.Cmp(other.amount), nil
}

func (m Money) GreaterThan(other Money) (bool, error) {
	c, err := m.Cmp(other)
	return c > 0, err
}

func (m Money) LessThan(other Money) (bool, error) {
	c, err := m.Cmp(other)
	return c < 0, err
}

func (m Money) IsZero() bool     { return m.amount.IsZero() }
func (m Money) IsPositive() bool { return m.amount.IsPositive() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// Equal reports whether both currency and amount match.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

func (m Money) String() string {
	return m.amount.StringFixed(m.currency.FractionDigits()) + " " + string(m.currency)
}

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return NewCurrencyMismatch(m.currency, other.currency)
	}
	return nil
}

type moneyJSON struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{
		Amount:   m.amount.StringFixed(m.currency.FractionDigits()),
		Currency: string(m.currency),
	})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseMoney(raw.Amount, Currency(raw.Currency))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
