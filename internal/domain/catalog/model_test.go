package catalog

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct_Touch(t *testing.T) {
	p, err := NewProduct("SKU-1", "Tea", decimal.RequireFromString("6.50"), decimal.RequireFromString("4.00"), "usd")
	require.NoError(t, err)
	stale := time.Now().Add(-time.Hour).UTC()
	p.UpdatedAt = stale

	p.Touch()

	assert.Equal(t, 1, p.Version)
	assert.True(t, p.UpdatedAt.After(stale))
	assert.Equal(t, "USD", p.Currency)
}
