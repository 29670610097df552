package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/core/apperror"
	"retailops/internal/core/entity"
	"retailops/internal/core/id"
	"retailops/internal/domain"
	"retailops/internal/domain/catalog"
	"retailops/internal/domain/inventory"
	"retailops/internal/infrastructure/storage/memory"
)

type observed struct {
	ops  []string
	errs []error
}

func (o *observed) ObserveOperation(op string, err error, _ time.Duration) {
	o.ops = append(o.ops, op)
	o.errs = append(o.errs, err)
}

func setup(t *testing.T) (*memory.Store, *inventory.Service, *catalog.Product, *observed) {
	t.Helper()
	store := memory.NewStore()
	p, err := catalog.NewProduct("SKU-INV", "Shelf", decimal.NewFromInt(30), decimal.NewFromInt(18), "USD")
	require.NoError(t, err)
	require.NoError(t, store.Products().Create(context.Background(), p))

	obs := &observed{}
	svc := inventory.NewService(inventory.Config{
		TxManager: store,
		Products:  store.Products(),
		Movements: store.Movements(),
		Observer:  obs,
	})
	return store, svc, p, obs
}

func TestRecordMovement(t *testing.T) {
	ctx := context.Background()
	store, svc, p, obs := setup(t)

	res, err := svc.RecordMovement(ctx, inventory.RecordMovementInput{
		ProductID: p.ID,
		Quantity:  12,
		Direction: entity.DirectionIn,
		Reason:    " stocktake ",
		Reference: "count-7",
	})
	require.NoError(t, err)
	assert.Equal(t, "stocktake", res.Movement.Reason)
	assert.Equal(t, 12, res.Stock.QuantityOnHand)

	res, err = svc.RecordMovement(ctx, inventory.RecordMovementInput{
		ProductID: p.ID,
		Quantity:  2,
		Direction: entity.DirectionOut,
		Reason:    "damaged",
	})
	require.NoError(t, err)
	assert.Equal(t, 10, res.Stock.QuantityOnHand)

	stored, err := store.Products().GetByID(ctx, p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Version)

	assert.Equal(t, []string{inventory.OpRecordMovement, inventory.OpRecordMovement}, obs.ops)
}

func TestRecordMovement_Failures(t *testing.T) {
	ctx := context.Background()
	_, svc, p, obs := setup(t)

	_, err := svc.RecordMovement(ctx, inventory.RecordMovementInput{ProductID: id.New(), Quantity: 1, Direction: entity.DirectionIn, Reason: "x"})
	assert.True(t, apperror.IsNotFound(err))

	_, err = svc.RecordMovement(ctx, inventory.RecordMovementInput{ProductID: p.ID, Quantity: 0, Direction: entity.DirectionIn, Reason: "x"})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.RecordMovement(ctx, inventory.RecordMovementInput{ProductID: p.ID, Quantity: 1, Direction: entity.DirectionIn})
	assert.True(t, apperror.IsValidation(err))

	require.Len(t, obs.errs, 3)
	for _, err := range obs.errs {
		assert.Error(t, err)
	}
}

func TestStockLevelAndHistory(t *testing.T) {
	ctx := context.Background()
	_, svc, p, _ := setup(t)
	t0 := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)

	for i, dir := range []entity.Direction{entity.DirectionIn, entity.DirectionOut, entity.DirectionIn} {
		at := t0.Add(time.Duration(i) * 24 * time.Hour)
		_, err := svc.RecordMovement(ctx, inventory.RecordMovementInput{
			ProductID: p.ID, Quantity: 10 - i, Direction: dir, Reason: "manual", OccurredAt: &at,
		})
		require.NoError(t, err)
	}

	level, err := svc.StockLevel(ctx, p.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 10-9+8, level.QuantityOnHand)
	assert.Equal(t, t0.Add(48*time.Hour), level.AsOf)

	asOf := t0.Add(30 * time.Hour)
	level, err = svc.StockLevel(ctx, p.ID, &asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, level.QuantityOnHand)
	assert.Equal(t, asOf, level.AsOf)

	_, err = svc.StockLevel(ctx, id.New(), nil)
	assert.True(t, apperror.IsNotFound(err))

	page, err := svc.ListMovements(ctx, p.ID, inventory.MovementFilter{ListFilter: domain.ListFilter{Limit: 2, Offset: 1}})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.TotalCount)
	require.Len(t, page.Items, 2)
	assert.Equal(t, 9, page.Items[0].Quantity)
	assert.Equal(t, 10, page.Items[1].Quantity)

	bad := entity.Direction("up")
	_, err = svc.ListMovements(ctx, p.ID, inventory.MovementFilter{Direction: &bad})
	assert.True(t, apperror.IsValidation(err))
}
