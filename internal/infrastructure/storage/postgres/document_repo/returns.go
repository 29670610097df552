package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"retailops/internal/core/id"
	"retailops/internal/domain"
	"retailops/internal/domain/returns"
	"retailops/internal/infrastructure/storage/postgres"
)

type returnRow struct {
	ID            id.ID           `db:"id"`
	SaleID        id.ID           `db:"sale_id"`
	Currency      string          `db:"currency"`
	TotalAmount   decimal.Decimal `db:"total_amount"`
	TotalQuantity int             `db:"total_quantity"`
	CreatedAt     time.Time       `db:"created_at"`
}

type returnItemRow struct {
	ID         id.ID           `db:"id"`
	ReturnID   id.ID           `db:"return_id"`
	SaleItemID id.ID           `db:"sale_item_id"`
	ProductID  id.ID           `db:"product_id"`
	LineNo     int             `db:"line_no"`
	Quantity   int             `db:"quantity"`
	UnitPrice  decimal.Decimal `db:"unit_price"`
	LineTotal  decimal.Decimal `db:"line_total"`
}

// ReturnRepo implements returns.Repository.
type ReturnRepo struct {
	*BaseDocumentRepo[returnRow, returnItemRow]
}

var _ returns.Repository = (*ReturnRepo)(nil)

// NewReturnRepo creates a new return repository.
func NewReturnRepo(txManager *postgres.TxManager) *ReturnRepo {
	return &ReturnRepo{
		BaseDocumentRepo: newBaseDocumentRepo[returnRow, returnItemRow](txManager, docTables{
			header:     "returns",
			lines:      "return_items",
			parentCol:  "return_id",
			entityName: "Return",
		}),
	}
}

func toReturnRows(ret *returns.Return) (returnRow, []returnItemRow) {
	header := returnRow{
		ID:            ret.ID,
		SaleID:        ret.SaleID,
		Currency:      ret.Currency,
		TotalAmount:   ret.TotalAmount().Amount(),
		TotalQuantity: ret.TotalQuantity(),
		CreatedAt:     ret.CreatedAt,
	}
	lines := make([]returnItemRow, 0, len(ret.Items))
	for i, item := range ret.Items {
		lines = append(lines, returnItemRow{
			ID:         item.ID,
			ReturnID:   ret.ID,
			SaleItemID: item.SaleItemID,
			ProductID:  item.ProductID,
			LineNo:     i + 1,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice.Amount(),
			LineTotal:  item.LineTotal.Amount(),
		})
	}
	return header, lines
}

func fromReturnRows(h returnRow, lines []returnItemRow) (*returns.Return, error) {
	ret := &returns.Return{
		ID:        h.ID,
		SaleID:    h.SaleID,
		Currency:  h.Currency,
		Items:     make([]returns.ReturnItem, 0, len(lines)),
		CreatedAt: h.CreatedAt,
	}
	for _, l := range lines {
		unit, err := money(l.UnitPrice, h.Currency)
		if err != nil {
			return nil, err
		}
		total, err := money(l.LineTotal, h.Currency)
		if err != nil {
			return nil, err
		}
		ret.Items = append(ret.Items, returns.ReturnItem{
			ID:         l.ID,
			ReturnID:   l.ReturnID,
			SaleItemID: l.SaleItemID,
			ProductID:  l.ProductID,
			Quantity:   l.Quantity,
			UnitPrice:  unit,
			LineTotal:  total,
		})
	}
	return ret, nil
}

// AddReturn implements returns.Repository.
func (r *ReturnRepo) AddReturn(ctx context.Context, ret *returns.Return) error {
	header, lines := toReturnRows(ret)
	return r.insert(ctx, header, lines)
}

func returnedQuery(saleItemIDs []id.ID) squirrel.SelectBuilder {
	return postgres.Builder().
		Select("sale_item_id", "SUM(quantity) AS returned").
		From("return_items").
		Where(squirrel.Eq{"sale_item_id": saleItemIDs}).
		GroupBy("sale_item_id")
}

// ReturnedQuantities implements returns.Repository.
func (r *ReturnRepo) ReturnedQuantities(ctx context.Context, saleItemIDs []id.ID) (map[id.ID]int, error) {
	out := make(map[id.ID]int)
	if len(saleItemIDs) == 0 {
		return out, nil
	}

	sql, args, err := returnedQuery(saleItemIDs).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build returned query: %w", err)
	}
	var rows []struct {
		SaleItemID id.ID `db:"sale_item_id"`
		Returned   int   `db:"returned"`
	}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("returned quantities: %w", err)
	}
	for _, row := range rows {
		out[row.SaleItemID] = row.Returned
	}
	return out, nil
}

// GetByID implements returns.Repository.
func (r *ReturnRepo) GetByID(ctx context.Context, returnID id.ID) (*returns.Return, error) {
	h, lines, err := r.get(ctx, returnID, false)
	if err != nil {
		return nil, err
	}
	return fromReturnRows(*h, lines)
}

// List implements returns.Repository.
func (r *ReturnRepo) List(ctx context.Context, filter returns.ListFilter) (domain.ListResult[*returns.Return], error) {
	q := r.listBase()
	if filter.SaleID != nil {
		q = q.Where(squirrel.Eq{"sale_id": *filter.SaleID})
	}
	return listDocuments(ctx, r.BaseDocumentRepo, q, filter.ListFilter,
		func(h returnRow) id.ID { return h.ID },
		func(l returnItemRow) id.ID { return l.ReturnID },
		fromReturnRows,
	)
}
