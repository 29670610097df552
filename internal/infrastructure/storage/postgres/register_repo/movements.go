// Package register_repo provides the PostgreSQL inventory movement ledger.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"retailops/internal/core/entity"
	"retailops/internal/core/id"
	"retailops/internal/domain"
	"retailops/internal/domain/inventory"
	"retailops/internal/infrastructure/storage/postgres"
)

const movementsTable = "inventory_movements"

var movementColumns = postgres.ExtractDBColumns[entity.InventoryMovement]()

// MovementRepo implements inventory.MovementRepository. Rows are only ever
// inserted.
type MovementRepo struct {
	txManager *postgres.TxManager
	inserter  *postgres.BatchInserter
}

var _ inventory.MovementRepository = (*MovementRepo)(nil)

// NewMovementRepo creates a new movement repository.
func NewMovementRepo(txManager *postgres.TxManager) *MovementRepo {
	return &MovementRepo{
		txManager: txManager,
		inserter:  postgres.NewBatchInserter(txManager),
	}
}

func movementRow(m entity.InventoryMovement) []any {
	return []any{m.ID, m.ProductID, m.Quantity, string(m.Direction), m.Reason, m.Reference, m.OccurredAt, m.CreatedAt}
}

// Add appends movements. Inside a transaction rows are loaded with COPY.
func (r *MovementRepo) Add(ctx context.Context, movements ...entity.InventoryMovement) error {
	if len(movements) == 0 {
		return nil
	}

	if r.txManager.GetTx(ctx) != nil {
		rows := make([][]any, 0, len(movements))
		for _, m := range movements {
			rows = append(rows, movementRow(m))
		}
		if _, err := r.inserter.CopyFromSlice(ctx, movementsTable, movementColumns, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	sql, args, err := insertMovements(movements).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}
	return nil
}

func insertMovements(movements []entity.InventoryMovement) squirrel.InsertBuilder {
	q := postgres.Builder().Insert(movementsTable).Columns(movementColumns...)
	for _, m := range movements {
		q = q.Values(movementRow(m)...)
	}
	return q
}

// stockLevelQuery sums signed quantities for one product.
func stockLevelQuery(productID id.ID, asOf *time.Time) squirrel.SelectBuilder {
	q := postgres.Builder().
		Select(
			"COALESCE(SUM(CASE WHEN direction = 'out' THEN -quantity ELSE quantity END), 0)",
			"MAX(occurred_at)",
		).
		From(movementsTable).
		Where(squirrel.Eq{"product_id": productID})
	if asOf != nil {
		q = q.Where(squirrel.LtOrEq{"occurred_at": *asOf})
	}
	return q
}

// StockLevel implements inventory.MovementRepository.
func (r *MovementRepo) StockLevel(ctx context.Context, productID id.ID, asOf *time.Time) (entity.StockLevel, error) {
	level := entity.StockLevel{ProductID: productID}

	sql, args, err := stockLevelQuery(productID, asOf).ToSql()
	if err != nil {
		return level, fmt.Errorf("build stock query: %w", err)
	}

	var latest *time.Time
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&level.QuantityOnHand, &latest); err != nil {
		return level, fmt.Errorf("stock level: %w", err)
	}

	switch {
	case asOf != nil:
		level.AsOf = *asOf
	case latest != nil:
		level.AsOf = latest.UTC()
	default:
		level.AsOf = time.Now().UTC()
	}
	return level, nil
}

func stockLevelsQuery(productIDs []id.ID) squirrel.SelectBuilder {
	return postgres.Builder().
		Select("product_id", "COALESCE(SUM(CASE WHEN direction = 'out' THEN -quantity ELSE quantity END), 0) AS on_hand").
		From(movementsTable).
		Where(squirrel.Eq{"product_id": productIDs}).
		GroupBy("product_id")
}

// StockLevels implements inventory.MovementRepository.
func (r *MovementRepo) StockLevels(ctx context.Context, productIDs []id.ID) (map[id.ID]int, error) {
	out := make(map[id.ID]int, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	for _, pid := range productIDs {
		out[pid] = 0
	}

	sql, args, err := stockLevelsQuery(productIDs).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stock levels query: %w", err)
	}

	var rows []struct {
		ProductID id.ID `db:"product_id"`
		OnHand    int   `db:"on_hand"`
	}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("stock levels: %w", err)
	}
	for _, row := range rows {
		out[row.ProductID] = row.OnHand
	}
	return out, nil
}

func listBase(productID id.ID, filter inventory.MovementFilter) squirrel.SelectBuilder {
	q := postgres.Builder().
		Select().
		From(movementsTable).
		Where(squirrel.Eq{"product_id": productID})
	if filter.Direction != nil {
		q = q.Where(squirrel.Eq{"direction": string(*filter.Direction)})
	}
	if filter.Reason != "" {
		q = q.Where(squirrel.Eq{"reason": filter.Reason})
	}
	return postgres.WithTimeRange(q, "occurred_at", filter.ListFilter)
}

// ListForProduct implements inventory.MovementRepository.
func (r *MovementRepo) ListForProduct(ctx context.Context, productID id.ID, filter inventory.MovementFilter) (domain.ListResult[entity.InventoryMovement], error) {
	return postgres.ListPage[entity.InventoryMovement](ctx, r.txManager.GetQuerier(ctx),
		listBase(productID, filter),
		movementColumns,
		[]string{"occurred_at DESC", "created_at DESC", "id DESC"},
		filter.ListFilter,
	)
}
