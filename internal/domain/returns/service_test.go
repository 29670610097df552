package returns_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/core/apperror"
	"retailops/internal/core/entity"
	"retailops/internal/core/id"
	"retailops/internal/domain/catalog"
	"retailops/internal/domain/returns"
	"retailops/internal/domain/sales"
	"retailops/internal/infrastructure/storage/memory"
)

type fixture struct {
	store   *memory.Store
	sales   *sales.Service
	returns *returns.Service
	product *catalog.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	p, err := catalog.NewProduct("SKU-R", "Lamp", decimal.NewFromInt(20), decimal.NewFromInt(12), "USD")
	require.NoError(t, err)
	require.NoError(t, store.Products().Create(ctx, p))
	m, err := entity.NewInventoryMovement(p.ID, 100, entity.DirectionIn, entity.ReasonPurchase, "", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.NoError(t, store.Movements().Add(ctx, m))

	return &fixture{
		store:   store,
		product: p,
		sales: sales.NewService(sales.Config{
			TxManager: store,
			Products:  store.Products(),
			Customers: store.Customers(),
			Sales:     store.Sales(),
			Movements: store.Movements(),
		}),
		returns: returns.NewService(returns.Config{
			TxManager: store,
			Sales:     store.Sales(),
			Returns:   store.Returns(),
			Movements: store.Movements(),
		}),
	}
}

func (f *fixture) sell(t *testing.T, qty int) *sales.Sale {
	t.Helper()
	res, err := f.sales.Record(context.Background(), sales.RecordInput{Lines: []sales.LineInput{
		{ProductID: f.product.ID, Quantity: qty, UnitPrice: decimal.RequireFromString("19.99")},
	}})
	require.NoError(t, err)
	return res.Sale
}

func (f *fixture) stock(t *testing.T) int {
	t.Helper()
	level, err := f.store.Movements().StockLevel(context.Background(), f.product.ID, nil)
	require.NoError(t, err)
	return level.QuantityOnHand
}

func TestRecord_RemainingQuantityGuard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sale := f.sell(t, 5)
	item := sale.Items[0]
	require.Equal(t, 95, f.stock(t))

	res, err := f.returns.Record(ctx, returns.RecordInput{SaleID: sale.ID, Lines: []returns.LineInput{{SaleItemID: item.ID, Quantity: 3}}})
	require.NoError(t, err)
	assert.Equal(t, "59.97 USD", res.Return.TotalAmount().String())
	require.Len(t, res.Movements, 1)
	m := res.Movements[0]
	assert.Equal(t, entity.DirectionIn, m.Direction)
	assert.Equal(t, entity.ReasonReturn, m.Reason)
	assert.Equal(t, res.Return.ID.String(), *m.Reference)
	assert.Equal(t, 98, f.stock(t))

	_, err = f.returns.Record(ctx, returns.RecordInput{SaleID: sale.ID, Lines: []returns.LineInput{{SaleItemID: item.ID, Quantity: 3}}})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeOverReturn, appErr.Code)
	assert.Equal(t, 98, f.stock(t))

	_, err = f.returns.Record(ctx, returns.RecordInput{SaleID: sale.ID, Lines: []returns.LineInput{{SaleItemID: item.ID, Quantity: 2}}})
	require.NoError(t, err)
	assert.Equal(t, 100, f.stock(t))

	list, err := f.returns.List(ctx, returns.ListFilter{SaleID: &sale.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, list.TotalCount)
}

func TestRecord_CoalescesDuplicateLines(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sale := f.sell(t, 4)
	item := sale.Items[0]

	_, err := f.returns.Record(ctx, returns.RecordInput{SaleID: sale.ID, Lines: []returns.LineInput{
		{SaleItemID: item.ID, Quantity: 3},
		{SaleItemID: item.ID, Quantity: 2},
	}})
	assert.True(t, apperror.IsValidation(err), "3+2 exceeds 4")

	res, err := f.returns.Record(ctx, returns.RecordInput{SaleID: sale.ID, Lines: []returns.LineInput{
		{SaleItemID: item.ID, Quantity: 1},
		{SaleItemID: item.ID, Quantity: 2},
	}})
	require.NoError(t, err)
	require.Len(t, res.Return.Items, 1)
	assert.Equal(t, 3, res.Return.Items[0].Quantity)
	assert.Len(t, res.Movements, 1)
}

func TestRecord_Failures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sale := f.sell(t, 2)

	_, err := f.returns.Record(ctx, returns.RecordInput{Lines: []returns.LineInput{{SaleItemID: id.New(), Quantity: 1}}})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.returns.Record(ctx, returns.RecordInput{SaleID: sale.ID})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.returns.Record(ctx, returns.RecordInput{SaleID: id.New(), Lines: []returns.LineInput{{SaleItemID: id.New(), Quantity: 1}}})
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.returns.Record(ctx, returns.RecordInput{SaleID: sale.ID, Lines: []returns.LineInput{{SaleItemID: id.New(), Quantity: 1}}})
	assert.True(t, apperror.IsValidation(err), "item must belong to the sale")

	_, err = f.returns.Record(ctx, returns.RecordInput{SaleID: sale.ID, Lines: []returns.LineInput{{SaleItemID: sale.Items[0].ID, Quantity: 0}}})
	assert.True(t, apperror.IsValidation(err))

	open, err := sales.NewSale("USD", nil)
	require.NoError(t, err)
	_, err = open.AddLine(f.product.ID, 1, decimal.NewFromInt(1))
	require.NoError(t, err)
	require.NoError(t, f.store.Sales().AddSale(ctx, open))
	_, err = f.returns.Record(ctx, returns.RecordInput{SaleID: open.ID, Lines: []returns.LineInput{{SaleItemID: open.Items[0].ID, Quantity: 1}}})
	assert.True(t, apperror.IsValidation(err), "open sale cannot be returned against")
}

func TestRecord_ConcurrentReturnsOfLastUnit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sale := f.sell(t, 1)
	item := sale.Items[0]

	const attempts = 8
	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.returns.Record(ctx, returns.RecordInput{SaleID: sale.ID, Lines: []returns.LineInput{{SaleItemID: item.ID, Quantity: 1}}})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, 100, f.stock(t))
}
