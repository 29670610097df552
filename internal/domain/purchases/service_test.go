package purchases_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/core/apperror"
	"retailops/internal/core/entity"
	"retailops/internal/core/id"
	"retailops/internal/domain/catalog"
	"retailops/internal/domain/purchases"
	"retailops/internal/infrastructure/storage/memory"
)

func setup(t *testing.T) (*memory.Store, *purchases.Service, *catalog.Supplier, *catalog.Product) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	supplier := catalog.NewSupplier("Acme")
	require.NoError(t, store.Suppliers().Create(ctx, supplier))

	p, err := catalog.NewProduct("SKU-1", "Bolt", decimal.NewFromInt(9), decimal.RequireFromString("6.50"), "USD")
	require.NoError(t, err)
	require.NoError(t, store.Products().Create(ctx, p))

	svc := purchases.NewService(purchases.Config{
		TxManager: store,
		Products:  store.Products(),
		Suppliers: store.Suppliers(),
		Purchases: store.Purchases(),
		Movements: store.Movements(),
	})
	return store, svc, supplier, p
}

func TestRecord_Success(t *testing.T) {
	ctx := context.Background()
	store, svc, supplier, p := setup(t)

	res, err := svc.Record(ctx, purchases.RecordInput{
		SupplierID: supplier.ID,
		Lines:      []purchases.LineInput{{ProductID: p.ID, Quantity: 5, UnitCost: decimal.RequireFromString("6.50")}},
	})
	require.NoError(t, err)

	assert.Equal(t, "32.50 USD", res.Purchase.TotalAmount().String())
	require.NotNil(t, res.Purchase.ReceivedAt)
	assert.Equal(t, res.Purchase.CreatedAt, *res.Purchase.ReceivedAt)

	require.Len(t, res.Movements, 1)
	m := res.Movements[0]
	assert.Equal(t, entity.DirectionIn, m.Direction)
	assert.Equal(t, 5, m.Quantity)
	assert.Equal(t, entity.ReasonPurchase, m.Reason)
	assert.Equal(t, res.Purchase.CreatedAt, m.OccurredAt)
	require.NotNil(t, m.Reference)
	assert.Equal(t, res.Purchase.ID.String(), *m.Reference)

	level, err := store.Movements().StockLevel(ctx, p.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, level.QuantityOnHand)

	stored, err := store.Products().GetByID(ctx, p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Version, "purchases do not fence products")

	list, err := svc.List(ctx, purchases.ListFilter{SupplierID: &supplier.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.TotalCount)
}

func TestRecord_Failures(t *testing.T) {
	ctx := context.Background()
	store, svc, supplier, p := setup(t)

	inactive := catalog.NewSupplier("Gone")
	inactive.Active = false
	require.NoError(t, store.Suppliers().Create(ctx, inactive))

	good := []purchases.LineInput{{ProductID: p.ID, Quantity: 1, UnitCost: decimal.NewFromInt(1)}}

	tests := []struct {
		name     string
		input    purchases.RecordInput
		notFound bool
	}{
		{name: "no supplier", input: purchases.RecordInput{Lines: good}},
		{name: "no lines", input: purchases.RecordInput{SupplierID: supplier.ID}},
		{name: "unknown supplier", input: purchases.RecordInput{SupplierID: id.New(), Lines: good}, notFound: true},
		{name: "inactive supplier", input: purchases.RecordInput{SupplierID: inactive.ID, Lines: good}},
		{
			name:     "unknown product",
			input:    purchases.RecordInput{SupplierID: supplier.ID, Lines: []purchases.LineInput{{ProductID: id.New(), Quantity: 1, UnitCost: decimal.NewFromInt(1)}}},
			notFound: true,
		},
		{
			name:  "zero quantity",
			input: purchases.RecordInput{SupplierID: supplier.ID, Lines: []purchases.LineInput{{ProductID: p.ID, Quantity: 0, UnitCost: decimal.NewFromInt(1)}}},
		},
		{
			name:  "zero cost",
			input: purchases.RecordInput{SupplierID: supplier.ID, Lines: []purchases.LineInput{{ProductID: p.ID, Quantity: 1, UnitCost: decimal.Zero}}},
		},
		{
			name:  "cost rounds to zero",
			input: purchases.RecordInput{SupplierID: supplier.ID, Lines: []purchases.LineInput{{ProductID: p.ID, Quantity: 1, UnitCost: decimal.RequireFromString("0.001")}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Record(ctx, tt.input)
			require.Error(t, err)
			if tt.notFound {
				assert.True(t, apperror.IsNotFound(err), "got %v", err)
			} else {
				assert.True(t, apperror.IsValidation(err), "got %v", err)
			}
		})
	}

	level, err := store.Movements().StockLevel(ctx, p.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, level.QuantityOnHand)
}
