package document_repo

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"retailops/internal/core/id"
	"retailops/internal/domain"
	"retailops/internal/domain/sales"
	"retailops/internal/infrastructure/storage/postgres"
)

type saleRow struct {
	ID            id.ID           `db:"id"`
	Currency      string          `db:"currency"`
	CustomerID    *id.ID          `db:"customer_id"`
	TotalAmount   decimal.Decimal `db:"total_amount"`
	TotalQuantity int             `db:"total_quantity"`
	CreatedAt     time.Time       `db:"created_at"`
	ClosedAt      *time.Time      `db:"closed_at"`
}

type saleItemRow struct {
	ID        id.ID           `db:"id"`
	SaleID    id.ID           `db:"sale_id"`
	ProductID id.ID           `db:"product_id"`
	LineNo    int             `db:"line_no"`
	Quantity  int             `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`
	LineTotal decimal.Decimal `db:"line_total"`
}

// SaleRepo implements sales.Repository.
type SaleRepo struct {
	*BaseDocumentRepo[saleRow, saleItemRow]
}

var _ sales.Repository = (*SaleRepo)(nil)

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txManager *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		BaseDocumentRepo: newBaseDocumentRepo[saleRow, saleItemRow](txManager, docTables{
			header:     "sales",
			lines:      "sale_items",
			parentCol:  "sale_id",
			entityName: "Sale",
		}),
	}
}

func toSaleRows(s *sales.Sale) (saleRow, []saleItemRow) {
	header := saleRow{
		ID:            s.ID,
		Currency:      s.Currency,
		CustomerID:    s.CustomerID,
		TotalAmount:   s.TotalAmount().Amount(),
		TotalQuantity: s.TotalQuantity(),
		CreatedAt:     s.CreatedAt,
		ClosedAt:      s.ClosedAt,
	}
	lines := make([]saleItemRow, 0, len(s.Items))
	for i, item := range s.Items {
		lines = append(lines, saleItemRow{
			ID:        item.ID,
			SaleID:    s.ID,
			ProductID: item.ProductID,
			LineNo:    i + 1,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.Amount(),
			LineTotal: item.LineTotal.Amount(),
		})
	}
	return header, lines
}

func fromSaleRows(h saleRow, lines []saleItemRow) (*sales.Sale, error) {
	s := &sales.Sale{
		ID:         h.ID,
		Currency:   h.Currency,
		CustomerID: h.CustomerID,
		Items:      make([]sales.SaleItem, 0, len(lines)),
		CreatedAt:  h.CreatedAt,
		ClosedAt:   h.ClosedAt,
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
		s.Items = append(s.Items, sales.SaleItem{
			ID:        l.ID,
			SaleID:    l.SaleID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: unit,
			LineTotal: total,
		})
	}
	return s, nil
}

// AddSale implements sales.Repository.
func (r *SaleRepo) AddSale(ctx context.Context, sale *sales.Sale) error {
	header, lines := toSaleRows(sale)
	return r.insert(ctx, header, lines)
}

// GetByID implements sales.Repository.
func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	h, lines, err := r.get(ctx, saleID, false)
	if err != nil {
		return nil, err
	}
	return fromSaleRows(*h, lines)
}

// GetForUpdate implements sales.Repository.
func (r *SaleRepo) GetForUpdate(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	h, lines, err := r.get(ctx, saleID, true)
	if err != nil {
		return nil, err
	}
	return fromSaleRows(*h, lines)
}

func (r *SaleRepo) listQuery(filter sales.ListFilter) squirrel.SelectBuilder {
	q := r.listBase()
	if filter.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
	}
	return q
}

// List implements sales.Repository.
func (r *SaleRepo) List(ctx context.Context, filter sales.ListFilter) (domain.ListResult[*sales.Sale], error) {
	return listDocuments(ctx, r.BaseDocumentRepo, r.listQuery(filter), filter.ListFilter,
		func(h saleRow) id.ID { return h.ID },
		func(l saleItemRow) id.ID { return l.SaleID },
		fromSaleRows,
	)
}
