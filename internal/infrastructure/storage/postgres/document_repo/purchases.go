package document_repo

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"retailops/internal/core/id"
	"retailops/internal/domain"
	"retailops/internal/domain/purchases"
	"retailops/internal/infrastructure/storage/postgres"
)

type purchaseRow struct {
	ID            id.ID           `db:"id"`
	SupplierID    id.ID           `db:"supplier_id"`
	Currency      string          `db:"currency"`
	TotalAmount   decimal.Decimal `db:"total_amount"`
	TotalQuantity int             `db:"total_quantity"`
	CreatedAt     time.Time       `db:"created_at"`
	ReceivedAt    *time.Time      `db:"received_at"`
}

type purchaseItemRow struct {
	ID         id.ID           `db:"id"`
	PurchaseID id.ID           `db:"purchase_order_id"`
	ProductID  id.ID           `db:"product_id"`
	LineNo     int             `db:"line_no"`
	Quantity   int             `db:"quantity"`
	UnitCost   decimal.Decimal `db:"unit_cost"`
	LineTotal  decimal.Decimal `db:"line_total"`
}

// PurchaseRepo implements purchases.Repository.
type PurchaseRepo struct {
	*BaseDocumentRepo[purchaseRow, purchaseItemRow]
}

var _ purchases.Repository = (*PurchaseRepo)(nil)

// NewPurchaseRepo creates a new purchase order repository.
func NewPurchaseRepo(txManager *postgres.TxManager) *PurchaseRepo {
	return &PurchaseRepo{
		BaseDocumentRepo: newBaseDocumentRepo[purchaseRow, purchaseItemRow](txManager, docTables{
			header:     "purchase_orders",
			lines:      "purchase_order_items",
			parentCol:  "purchase_order_id",
			entityName: "PurchaseOrder",
		}),
	}
}

func toPurchaseRows(p *purchases.PurchaseOrder) (purchaseRow, []purchaseItemRow) {
	header := purchaseRow{
		ID:            p.ID,
		SupplierID:    p.SupplierID,
		Currency:      p.Currency,
		TotalAmount:   p.TotalAmount().Amount(),
		TotalQuantity: p.TotalQuantity(),
		CreatedAt:     p.CreatedAt,
		ReceivedAt:    p.ReceivedAt,
	}
	lines := make([]purchaseItemRow, 0, len(p.Items))
	for i, item := range p.Items {
		lines = append(lines, purchaseItemRow{
			ID:         item.ID,
			PurchaseID: p.ID,
			ProductID:  item.ProductID,
			LineNo:     i + 1,
			Quantity:   item.Quantity,
			UnitCost:   item.UnitCost.Amount(),
			LineTotal:  item.LineTotal.Amount(),
		})
	}
	return header, lines
}

func fromPurchaseRows(h purchaseRow, lines []purchaseItemRow) (*purchases.PurchaseOrder, error) {
	p := &purchases.PurchaseOrder{
		ID:         h.ID,
		SupplierID: h.SupplierID,
		Currency:   h.Currency,
		Items:      make([]purchases.PurchaseOrderItem, 0, len(lines)),
		CreatedAt:  h.CreatedAt,
		ReceivedAt: h.ReceivedAt,
	}
	for _, l := range lines {
		cost, err := money(l.UnitCost, h.Currency)
		if err != nil {
			return nil, err
		}
		total, err := money(l.LineTotal, h.Currency)
		if err != nil {
			return nil, err
		}
		p.Items = append(p.Items, purchases.PurchaseOrderItem{
			ID:         l.ID,
			PurchaseID: l.PurchaseID,
			ProductID:  l.ProductID,
			Quantity:   l.Quantity,
			UnitCost:   cost,
			LineTotal:  total,
		})
	}
	return p, nil
}

// AddPurchase implements purchases.Repository.
func (r *PurchaseRepo) AddPurchase(ctx context.Context, order *purchases.PurchaseOrder) error {
	header, lines := toPurchaseRows(order)
	return r.insert(ctx, header, lines)
}

// GetByID implements purchases.Repository.
func (r *PurchaseRepo) GetByID(ctx context.Context, purchaseID id.ID) (*purchases.PurchaseOrder, error) {
	h, lines, err := r.get(ctx, purchaseID, false)
	if err != nil {
		return nil, err
	}
	return fromPurchaseRows(*h, lines)
}

// List implements purchases.Repository.
func (r *PurchaseRepo) List(ctx context.Context, filter purchases.ListFilter) (domain.ListResult[*purchases.PurchaseOrder], error) {
	q := r.listBase()
	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}
	return listDocuments(ctx, r.BaseDocumentRepo, q, filter.ListFilter,
		func(h purchaseRow) id.ID { return h.ID },
		func(l purchaseItemRow) id.ID { return l.PurchaseID },
		fromPurchaseRows,
	)
}
