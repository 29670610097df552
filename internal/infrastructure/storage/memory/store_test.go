package memory

import (
	"context"
	"errors"
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
)

func newProduct(t *testing.T) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct("SKU-"+id.New().String()[:8], "Widget", decimal.NewFromInt(10), decimal.NewFromInt(6), "USD")
	require.NoError(t, err)
	return p
}

func TestStore_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	p := newProduct(t)
	require.NoError(t, store.Products().Create(ctx, p))

	boom := errors.New("boom")
	err := store.RunInTransaction(ctx, func(ctx context.Context) error {
		m, err := entity.NewInventoryMovement(p.ID, 5, entity.DirectionIn, "purchase", "", time.Now())
		require.NoError(t, err)
		require.NoError(t, store.Movements().Add(ctx, m))

		level, err := store.Movements().StockLevel(ctx, p.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, 5, level.QuantityOnHand, "writes are visible inside the unit of work")
		return boom
	})
	require.ErrorIs(t, err, boom)

	level, err := store.Movements().StockLevel(ctx, p.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, level.QuantityOnHand)
}

func TestStore_NestedTransactionJoinsOuter(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	p := newProduct(t)

	err := store.RunInTransaction(ctx, func(ctx context.Context) error {
		return store.RunInTransaction(ctx, func(ctx context.Context) error {
			return store.Products().Create(ctx, p)
		})
	})
	require.NoError(t, err)

	got, err := store.Products().GetByID(ctx, p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, p.SKU, got.SKU)
}

func TestProductRepo_UpdateIsCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	p := newProduct(t)
	require.NoError(t, store.Products().Create(ctx, p))

	stale := *p
	p.Touch()
	ok, err := store.Products().Update(ctx, p, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	stale.Touch()
	ok, err = store.Products().Update(ctx, &stale, 0)
	require.NoError(t, err)
	assert.False(t, ok, "second writer on the same version loses")

	got, err := store.Products().GetByID(ctx, p.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)

	_, err = store.Products().GetByID(ctx, id.New(), false)
	assert.True(t, apperror.IsNotFound(err))
}

func TestMovementRepo_ListForProduct(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	pid := id.New()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := range 5 {
		dir := entity.DirectionIn
		if i%2 == 1 {
			dir = entity.DirectionOut
		}
		m, err := entity.NewInventoryMovement(pid, i+1, dir, "adjustment", "", base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		require.NoError(t, store.Movements().Add(ctx, m))
	}

	res, err := store.Movements().ListForProduct(ctx, pid, inventory.MovementFilter{
		ListFilter: domain.ListFilter{Limit: 2},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 5, res.TotalCount)
	require.Len(t, res.Items, 2)
	assert.Equal(t, 5, res.Items[0].Quantity, "newest first")
	assert.Equal(t, 4, res.Items[1].Quantity)

	out := entity.DirectionOut
	res, err = store.Movements().ListForProduct(ctx, pid, inventory.MovementFilter{Direction: &out})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.TotalCount)

	levels, err := store.Movements().StockLevels(ctx, []id.ID{pid, id.New()})
	require.NoError(t, err)
	assert.Len(t, levels, 2)
	assert.Equal(t, 1+3+5-2-4, levels[pid])
}
