package sales

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/core/apperror"
	"retailops/internal/core/entity"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
)

func TestNewSale_Currency(t *testing.T) {
	s, err := NewSale("", nil)
	require.NoError(t, err)
	assert.Equal(t, "USD", s.Currency)

	s, err = NewSale("eur", nil)
	require.NoError(t, err)
	assert.Equal(t, "EUR", s.Currency)

	_, err = NewSale("EURO", nil)
	assert.True(t, apperror.IsValidation(err))
}

func TestSale_Lifecycle(t *testing.T) {
	s, err := NewSale("USD", nil)
	require.NoError(t, err)

	assert.Error(t, s.Close(time.Now()), "empty sale cannot close")

	p1, p2 := id.New(), id.New()
	_, err = s.AddLine(p1, 2, decimal.RequireFromString("12.50"))
	require.NoError(t, err)
	_, err = s.AddLine(p2, 1, decimal.RequireFromString("5"))
	require.NoError(t, err)
	_, err = s.AddLine(p1, 1, decimal.RequireFromString("12.50"))
	require.NoError(t, err)

	assert.Equal(t, "42.50 USD", s.TotalAmount().String())
	assert.Equal(t, 4, s.TotalQuantity())

	_, err = s.GenerateMovements()
	assert.Error(t, err, "open sale has no movements")

	closedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Close(closedAt))
	assert.True(t, s.IsClosed())
	assert.Error(t, s.Close(closedAt), "close is one-shot")

	_, err = s.AddLine(p2, 1, decimal.NewFromInt(1))
	assert.True(t, apperror.IsValidation(err))

	movements, err := s.GenerateMovements()
	require.NoError(t, err)
	require.Len(t, movements, 3, "one movement per line, not merged")
	for i, m := range movements {
		assert.Equal(t, s.Items[i].ProductID, m.ProductID)
		assert.Equal(t, s.Items[i].Quantity, m.Quantity)
		assert.Equal(t, entity.DirectionOut, m.Direction)
		assert.Equal(t, entity.ReasonSale, m.Reason)
		require.NotNil(t, m.Reference)
		assert.Equal(t, s.ID.String(), *m.Reference)
		assert.Equal(t, closedAt, m.OccurredAt)
	}
}

func TestSale_AddLineValidation(t *testing.T) {
	s, err := NewSale("USD", nil)
	require.NoError(t, err)

	tests := []struct {
		name  string
		pid   id.ID
		qty   int
		price string
	}{
		{name: "nil product", pid: id.Nil(), qty: 1, price: "1"},
		{name: "zero quantity", pid: id.New(), qty: 0, price: "1"},
		{name: "zero price", pid: id.New(), qty: 1, price: "0"},
		{name: "negative price", pid: id.New(), qty: 1, price: "-2"},
		{name: "price rounds to zero", pid: id.New(), qty: 1, price: "0.004"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.AddLine(tt.pid, tt.qty, decimal.RequireFromString(tt.price))
			assert.True(t, apperror.IsValidation(err))
		})
	}
	assert.Empty(t, s.Items)
}

func TestSale_AddItemCurrencyMismatch(t *testing.T) {
	s, err := NewSale("USD", nil)
	require.NoError(t, err)

	price := types.MustMoney("3", "EUR")
	err = s.AddItem(SaleItem{ID: id.New(), ProductID: id.New(), Quantity: 1, UnitPrice: price, LineTotal: price})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeCurrencyMismatch, appErr.Code)
}
