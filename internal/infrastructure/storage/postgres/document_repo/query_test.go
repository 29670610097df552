package document_repo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/core/id"
	"retailops/internal/domain/sales"
)

func closedSale(t *testing.T) *sales.Sale {
	t.Helper()
	s, err := sales.NewSale("USD", nil)
	require.NoError(t, err)
	_, err = s.AddLine(id.New(), 2, decimal.RequireFromString("3.25"))
	require.NoError(t, err)
	_, err = s.AddLine(id.New(), 1, decimal.RequireFromString("10"))
	require.NoError(t, err)
	require.NoError(t, s.Close(time.Now().UTC()))
	return s
}

func TestSaleRows_KeepLineOrderAndTotals(t *testing.T) {
	s := closedSale(t)

	header, lines := toSaleRows(s)
	assert.True(t, decimal.RequireFromString("16.50").Equal(header.TotalAmount))
	assert.Equal(t, 3, header.TotalQuantity)
	require.Len(t, lines, 2)
	assert.Equal(t, 1, lines[0].LineNo)
	assert.Equal(t, 2, lines[1].LineNo)

	back, err := fromSaleRows(header, lines)
	require.NoError(t, err)
	assert.Equal(t, s.ID, back.ID)
	assert.Equal(t, s.Items[0].ID, back.Items[0].ID)
	assert.Equal(t, "6.50", back.Items[0].LineTotal.Amount().StringFixed(2))
	assert.True(t, s.TotalAmount().Equal(back.TotalAmount()))
}

func TestSaleRepo_Queries(t *testing.T) {
	repo := NewSaleRepo(nil)
	saleID := id.New()

	sql, _, err := repo.selectHeader(saleID, true).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, currency, customer_id, total_amount, total_quantity, created_at, closed_at FROM sales WHERE id = $1 FOR UPDATE",
		sql)

	sql, args, err := repo.selectLines([]id.ID{saleID}).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, sale_id, product_id, line_no, quantity, unit_price, line_total FROM sale_items WHERE sale_id IN ($1) ORDER BY sale_id, line_no",
		sql)
	assert.Equal(t, []any{saleID}, args)

	customer := id.New()
	sql, _, err = repo.listQuery(sales.ListFilter{CustomerID: &customer}).Columns("COUNT(*)").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM sales WHERE customer_id = $1", sql)
}

func TestSaleRepo_InsertQueries(t *testing.T) {
	repo := NewSaleRepo(nil)
	header, lines := toSaleRows(closedSale(t))

	sql, args, err := repo.insertHeader(header).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO sales (closed_at,created_at,currency,customer_id,id,total_amount,total_quantity) VALUES ($1,$2,$3,$4,$5,$6,$7)",
		sql)
	assert.Len(t, args, 7)

	sql, args, err = repo.insertLines(lines).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO sale_items (id,sale_id,product_id,line_no,quantity,unit_price,line_total) VALUES ($1,$2,$3,$4,$5,$6,$7),($8,$9,$10,$11,$12,$13,$14)",
		sql)
	assert.Len(t, args, 14)
}

func TestReturnedQuery(t *testing.T) {
	a, b := id.New(), id.New()
	sql, args, err := returnedQuery([]id.ID{a, b}).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT sale_item_id, SUM(quantity) AS returned FROM return_items WHERE sale_item_id IN ($1,$2) GROUP BY sale_item_id",
		sql)
	assert.Equal(t, []any{a, b}, args)
}
