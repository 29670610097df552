// Package types provides value objects shared across domains.
package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"retailops/internal/core/apperror"
)

// MoneyScale is the number of fractional digits every Money amount is kept at.
const MoneyScale = 2

// Money is a non-negative amount in a single currency.
// Amounts are rounded half-up to MoneyScale digits on construction and after
// every operation. The zero value is not a valid Money; use NewMoney or ZeroMoney.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney builds a Money from a decimal amount and an ISO 4217 code.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	cur, err := NormalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	if amount.IsNegative() {
		return Money{}, apperror.NewValidation("Money amount cannot be negative").
			WithDetail("amount", amount.String())
	}
	return Money{amount: quantize(amount), currency: cur}, nil
}

// NewMoneyFromString parses amount as a decimal string.
func NewMoneyFromString(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, apperror.NewValidation("invalid money amount").
			WithDetail("amount", amount).
			WithCause(err)
	}
	return NewMoney(d, currency)
}

// MustMoney is NewMoneyFromString that panics on error.
// Use only for constants and tests.
func MustMoney(amount, currency string) Money {
	m, err := NewMoneyFromString(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// ZeroMoney returns zero in the given currency.
func ZeroMoney(currency string) (Money, error) {
	return NewMoney(decimal.Zero, currency)
}

// NormalizeCurrency validates a 3-letter currency code and upper-cases it.
func NormalizeCurrency(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) != 3 {
		return "", apperror.NewValidation("Currency must be a 3-letter code").WithDetail("currency", code)
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", apperror.NewValidation("Currency must be a 3-letter code").WithDetail("currency", code)
		}
	}
	return c, nil
}

// RoundAmount rounds d to the precision Money stores.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return quantize(d)
}

func quantize(d decimal.Decimal) decimal.Decimal {
	// decimal.Round rounds half away from zero, which is half-up for non-negative amounts.
	return d.Round(MoneyScale)
}

// Amount returns the rounded amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the ISO 4217 code.
func (m Money) Currency() string { return m.currency }

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool { return m.amount.IsPositive() }

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return apperror.NewCurrencyMismatch(m.currency, other.currency)
	}
	return nil
}

// Add returns m + other.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: quantize(m.amount.Add(other.amount)), currency: m.currency}, nil
}

// Subtract returns m - other. The result may not be negative.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return NewMoney(m.amount.Sub(other.amount), m.currency)
}

// Multiply scales m by a non-negative quantity.
func (m Money) Multiply(qty int) (Money, error) {
	if qty < 0 {
		return Money{}, apperror.NewValidation("multiplier must not be negative").WithDetail("quantity", qty)
	}
	return Money{amount: quantize(m.amount.Mul(decimal.NewFromInt(int64(qty)))), currency: m.currency}, nil
}

// Cmp compares amounts: -1 if m < other, 0 if equal, +1 if m > other.
func (m Money) Cmp(other Money) (int, error) {
	if err := m.sameCurrency(other); err != nil {
		return 0, err
	}
	return m.amount.Cmp(other.amount), nil
}

// GreaterThan reports m > other.
func (m Money) GreaterThan(other Money) (bool, error) {
	c, err := m.Cmp(other)
	return c > 0, err
}

// LessThan reports m < other.
func (m Money) LessThan(other Money) (bool, error) {
	c, err := m.Cmp(other)
	return c < 0, err
}

// Equal reports whether amount and currency both match.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// String renders the amount with two fractional digits followed by the code.
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(MoneyScale), m.currency)
}

type moneyJSON struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// MarshalJSON encodes Money as {"amount":"32.50","currency":"USD"}.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount.StringFixed(MoneyScale), Currency: m.currency})
}

// UnmarshalJSON decodes the MarshalJSON form and re-validates it.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := NewMoneyFromString(raw.Amount, raw.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
