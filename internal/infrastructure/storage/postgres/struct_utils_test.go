package postgres

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/domain/catalog"
)

func TestExtractDBColumns_Product(t *testing.T) {
	cols := ExtractDBColumns[catalog.Product]()

	assert.Equal(t, []string{
		"id", "version", "created_at", "updated_at",
		"sku", "name", "price_retail", "purchase_price", "currency", "category_id", "active",
	}, cols)
}

func TestStructToMap_Product(t *testing.T) {
	p, err := catalog.NewProduct("SKU-1", "Tea", decimal.RequireFromString("6.50"), decimal.RequireFromString("4.00"), "usd")
	require.NoError(t, err)
	p.Touch()

	m := StructToMap(p)

	assert.Equal(t, p.ID, m["id"])
	assert.Equal(t, 1, m["version"])
	assert.Equal(t, "SKU-1", m["sku"])
	assert.Equal(t, "USD", m["currency"])
	assert.Equal(t, true, m["active"])
	assert.Len(t, m, len(ExtractDBColumns[catalog.Product]()))
}

func TestWithoutColumns(t *testing.T) {
	cols := WithoutColumns([]string{"id", "version", "sku"}, "id")
	assert.Equal(t, []string{"version", "sku"}, cols)
}
