package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
)

func mustMovement(t *testing.T, productID id.ID, qty int, dir Direction, at time.Time) InventoryMovement {
	t.Helper()
	m, err := NewInventoryMovement(productID, qty, dir, "test", "", at)
	require.NoError(t, err)
	return m
}

func TestNewInventoryMovement_Validation(t *testing.T) {
	pid := id.New()
	now := time.Now()

	tests := []struct {
		name      string
		productID id.ID
		qty       int
		dir       Direction
		reason    string
	}{
		{name: "nil product", productID: id.Nil(), qty: 1, dir: DirectionIn, reason: "x"},
		{name: "zero quantity", productID: pid, qty: 0, dir: DirectionIn, reason: "x"},
		{name: "negative quantity", productID: pid, qty: -3, dir: DirectionOut, reason: "x"},
		{name: "unknown direction", productID: pid, qty: 1, dir: "sideways", reason: "x"},
		{name: "blank reason", productID: pid, qty: 1, dir: DirectionIn, reason: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInventoryMovement(tt.productID, tt.qty, tt.dir, tt.reason, "", now)
			require.Error(t, err)
			assert.True(t, apperror.IsValidation(err))
		})
	}
}

func TestNewInventoryMovement_Normalizes(t *testing.T) {
	m, err := NewInventoryMovement(id.New(), 2, DirectionOut, "  sale ", "  ", time.Time{})
	require.NoError(t, err)

	assert.Equal(t, "sale", m.Reason)
	assert.Nil(t, m.Reference)
	assert.False(t, m.OccurredAt.IsZero())
	assert.Equal(t, -2, m.Delta())

	m, err = NewInventoryMovement(id.New(), 2, DirectionIn, "purchase", " PO-1 ", time.Now())
	require.NoError(t, err)
	require.NotNil(t, m.Reference)
	assert.Equal(t, "PO-1", *m.Reference)
	assert.Equal(t, 2, m.Delta())
}

func TestProjectStock(t *testing.T) {
	pid := id.New()
	other := id.New()
	t0 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	movements := []InventoryMovement{
		mustMovement(t, pid, 10, DirectionIn, t0),
		mustMovement(t, pid, 3, DirectionOut, t0.Add(time.Hour)),
		mustMovement(t, other, 50, DirectionIn, t0),
		mustMovement(t, pid, 1, DirectionIn, t0.Add(2*time.Hour)),
	}

	t.Run("all movements", func(t *testing.T) {
		level := ProjectStock(pid, movements, nil)
		assert.Equal(t, 8, level.QuantityOnHand)
		assert.Equal(t, t0.Add(2*time.Hour), level.AsOf)
	})

	t.Run("as of a point in time is inclusive", func(t *testing.T) {
		asOf := t0.Add(time.Hour)
		level := ProjectStock(pid, movements, &asOf)
		assert.Equal(t, 7, level.QuantityOnHand)
		assert.Equal(t, asOf, level.AsOf)
	})

	t.Run("before any movement", func(t *testing.T) {
		asOf := t0.Add(-time.Minute)
		level := ProjectStock(pid, movements, &asOf)
		assert.Equal(t, 0, level.QuantityOnHand)
	})

	t.Run("unknown product", func(t *testing.T) {
		level := ProjectStock(id.New(), movements, nil)
		assert.Equal(t, 0, level.QuantityOnHand)
		assert.False(t, level.AsOf.IsZero())
	})
}
