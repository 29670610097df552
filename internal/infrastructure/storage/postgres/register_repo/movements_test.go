package register_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/core/entity"
	"retailops/internal/core/id"
	"retailops/internal/domain"
	"retailops/internal/domain/inventory"
)

func TestMovementColumns(t *testing.T) {
	assert.Equal(t, []string{
		"id", "product_id", "quantity", "direction", "reason", "reference", "occurred_at", "created_at",
	}, movementColumns)

	m, err := entity.NewInventoryMovement(id.New(), 3, entity.DirectionOut, entity.ReasonSale, "ref", time.Time{})
	require.NoError(t, err)
	assert.Len(t, movementRow(m), len(movementColumns))
}

func TestStockLevelQuery(t *testing.T) {
	pid := id.New()

	sql, args, err := stockLevelQuery(pid, nil).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT COALESCE(SUM(CASE WHEN direction = 'out' THEN -quantity ELSE quantity END), 0), MAX(occurred_at) FROM inventory_movements WHERE product_id = $1",
		sql)
	assert.Equal(t, []any{pid}, args)

	asOf := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	sql, args, err = stockLevelQuery(pid, &asOf).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "AND occurred_at <= $2")
	assert.Equal(t, []any{pid, asOf}, args)
}

func TestStockLevelsQuery(t *testing.T) {
	a, b := id.New(), id.New()
	sql, args, err := stockLevelsQuery([]id.ID{a, b}).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT product_id, COALESCE(SUM(CASE WHEN direction = 'out' THEN -quantity ELSE quantity END), 0) AS on_hand FROM inventory_movements WHERE product_id IN ($1,$2) GROUP BY product_id",
		sql)
	assert.Len(t, args, 2)
}

func TestListBase_Filters(t *testing.T) {
	pid := id.New()
	dir := entity.DirectionIn
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	q := listBase(pid, inventory.MovementFilter{
		ListFilter: domain.ListFilter{From: &from},
		Direction:  &dir,
		Reason:     entity.ReasonPurchase,
	})
	sql, args, err := q.Columns("COUNT(*)").ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT COUNT(*) FROM inventory_movements WHERE product_id = $1 AND direction = $2 AND reason = $3 AND occurred_at >= $4",
		sql)
	assert.Equal(t, []any{pid, "in", entity.ReasonPurchase, from}, args)
}

func TestInsertMovements(t *testing.T) {
	pid := id.New()
	m1, err := entity.NewInventoryMovement(pid, 1, entity.DirectionIn, entity.ReasonPurchase, "", time.Time{})
	require.NoError(t, err)
	m2, err := entity.NewInventoryMovement(pid, 2, entity.DirectionOut, entity.ReasonSale, "s-1", time.Time{})
	require.NoError(t, err)

	sql, args, err := insertMovements([]entity.InventoryMovement{m1, m2}).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO inventory_movements (id,product_id,quantity,direction,reason,reference,occurred_at,created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8),($9,$10,$11,$12,$13,$14,$15,$16)",
		sql)
	assert.Len(t, args, 16)
}
