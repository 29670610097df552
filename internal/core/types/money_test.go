package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/core/apperror"
)

func TestNewMoneyFromString(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		currency    string
		want        string
		wantCur     string
		expectError bool
	}{
		{name: "valid", amount: "10.00", currency: "USD", want: "10", wantCur: "USD"},
		{name: "zero is valid", amount: "0", currency: "EUR", want: "0", wantCur: "EUR"},
		{name: "rounds half up", amount: "1.005", currency: "USD", want: "1.01", wantCur: "USD"},
		{name: "rounds down below half", amount: "1.004", currency: "USD", want: "1", wantCur: "USD"},
		{name: "lower case currency is upper-cased", amount: "3.5", currency: "usd", want: "3.5", wantCur: "USD"},
		{name: "negative amount", amount: "-0.01", currency: "USD", expectError: true},
		{name: "empty currency", amount: "1", currency: "", expectError: true},
		{name: "two letter currency", amount: "1", currency: "US", expectError: true},
		{name: "digits in currency", amount: "1", currency: "U5D", expectError: true},
		{name: "garbage amount", amount: "ten", currency: "USD", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMoneyFromString(tt.amount, tt.currency)
			if tt.expectError {
				require.Error(t, err)
				assert.True(t, apperror.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(m.Amount()), "got %s", m.Amount())
			assert.Equal(t, tt.wantCur, m.Currency())
		})
	}
}

func TestMoney_Arithmetic(t *testing.T) {
	a := MustMoney("10.25", "USD")
	b := MustMoney("0.75", "USD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "11.00 USD", sum.String())

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.Equal(t, "9.50 USD", diff.String())

	_, err = b.Subtract(a)
	assert.True(t, apperror.IsValidation(err))

	prod, err := MustMoney("6.50", "USD").Multiply(5)
	require.NoError(t, err)
	assert.Equal(t, "32.50 USD", prod.String())

	_, err = a.Multiply(-1)
	assert.Error(t, err)
}

func TestMoney_CurrencyMismatch(t *testing.T) {
	usd := MustMoney("1", "USD")
	eur := MustMoney("1", "EUR")

	_, err := usd.Add(eur)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeCurrencyMismatch, appErr.Code)

	_, err = usd.Subtract(eur)
	assert.Error(t, err)
	_, err = usd.GreaterThan(eur)
	assert.Error(t, err)
	_, err = usd.LessThan(eur)
	assert.Error(t, err)
	assert.False(t, usd.Equal(eur))
}

func TestMoney_Compare(t *testing.T) {
	small := MustMoney("1.99", "USD")
	big := MustMoney("2.00", "USD")

	gt, err := big.GreaterThan(small)
	require.NoError(t, err)
	assert.True(t, gt)

	lt, err := big.LessThan(small)
	require.NoError(t, err)
	assert.False(t, lt)

	assert.True(t, MustMoney("2", "USD").Equal(big))
}

func TestMoney_JSON(t *testing.T) {
	data, err := json.Marshal(MustMoney("32.5", "USD"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"32.50","currency":"USD"}`, string(data))

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"1.235","currency":"eur"}`), &m))
	assert.Equal(t, "1.24 EUR", m.String())

	assert.Error(t, json.Unmarshal([]byte(`{"amount":"-1","currency":"EUR"}`), &m))
}
