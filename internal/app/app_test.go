package app

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/config"
	"retailops/internal/domain/catalog"
	"retailops/internal/domain/purchases"
	"retailops/pkg/logger"
)

func TestNew_MemoryStorage(t *testing.T) {
	cfg := &config.Config{
		App:         config.AppConfig{Env: "development", Storage: config.StorageMemory},
		Idempotency: config.IdempotencyConfig{Backend: config.IdempotencyNone},
	}
	a, err := New(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Pool)
	assert.Nil(t, a.Idempotency)
	assert.Empty(t, a.HealthChecks)

	ctx := context.Background()
	p, err := catalog.NewProduct("SKU-APP", "Coffee", decimal.NewFromInt(9), decimal.NewFromInt(5), "USD")
	require.NoError(t, err)
	require.NoError(t, a.Products.Create(ctx, p))
	s := catalog.NewSupplier("Roaster")
	require.NoError(t, a.Suppliers.Create(ctx, s))

	_, err = a.Purchases.Record(ctx, purchases.RecordInput{
		SupplierID: s.ID,
		Lines:      []purchases.LineInput{{ProductID: p.ID, Quantity: 4, UnitCost: decimal.NewFromInt(5)}},
	})
	require.NoError(t, err)

	level, err := a.Inventory.StockLevel(ctx, p.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, level.QuantityOnHand)
}

func TestNew_UnknownIdempotencyBackend(t *testing.T) {
	cfg := &config.Config{
		App:         config.AppConfig{Storage: config.StorageMemory},
		Idempotency: config.IdempotencyConfig{Backend: "memcached"},
	}
	_, err := New(context.Background(), cfg, logger.Nop())
	assert.Error(t, err)
}
