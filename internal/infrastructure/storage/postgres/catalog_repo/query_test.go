package catalog_repo

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/domain/catalog"
)

func TestSelectByID(t *testing.T) {
	repo := NewProductRepo(nil)
	p, err := catalog.NewProduct("SKU-1", "Tea", decimal.NewFromInt(2), decimal.NewFromInt(1), "USD")
	require.NoError(t, err)

	tests := []struct {
		name    string
		lock    bool
		wantSQL string
	}{
		{
			name:    "plain",
			wantSQL: "SELECT id, version, created_at, updated_at, sku, name, price_retail, purchase_price, currency, category_id, active FROM products WHERE id = $1",
		},
		{
			name:    "locked",
			lock:    true,
			wantSQL: "SELECT id, version, created_at, updated_at, sku, name, price_retail, purchase_price, currency, category_id, active FROM products WHERE id = $1 FOR UPDATE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := repo.selectByID(p.ID, tt.lock).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, []any{p.ID}, args)
		})
	}
}

func TestUpdateQuery_ComparesVersion(t *testing.T) {
	repo := NewProductRepo(nil)
	p, err := catalog.NewProduct("SKU-1", "Tea", decimal.NewFromInt(2), decimal.NewFromInt(1), "USD")
	require.NoError(t, err)
	p.Touch()

	q, err := repo.updateQuery(p, 0)
	require.NoError(t, err)
	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE products SET active = $1, category_id = $2, currency = $3, name = $4, price_retail = $5, purchase_price = $6, sku = $7, updated_at = $8, version = $9 WHERE id = $10 AND version = $11",
		sql)
	assert.Equal(t, 1, args[8])
	assert.Equal(t, p.ID, args[9])
	assert.Equal(t, 0, args[10])
}

func TestInsertQuery_UsesAllColumns(t *testing.T) {
	repo := NewSupplierRepo(nil)
	s := catalog.NewSupplier("Acme")

	q, err := repo.insertQuery(s)
	require.NoError(t, err)
	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO suppliers (active,contact_email,created_at,id,name,updated_at,version) VALUES ($1,$2,$3,$4,$5,$6,$7)",
		sql)
	assert.Len(t, args, 7)
}
