// Package purchases provides the PurchaseOrder aggregate and the purchase
// recording use case.
package purchases

import (
	"time"

	"github.com/shopspring/decimal"

	"retailops/internal/core/apperror"
	"retailops/internal/core/entity"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
)

// DefaultCurrency is used when a request does not name one.
const DefaultCurrency = "USD"

// PurchaseOrderItem is one received line.
type PurchaseOrderItem struct {
	ID         id.ID       `json:"id"`
	PurchaseID id.ID       `json:"purchaseId"`
	ProductID  id.ID       `json:"productId"`
	Quantity   int         `json:"quantity"`
	UnitCost   types.Money `json:"unitCost"`
	LineTotal  types.Money `json:"lineTotal"`
}

// PurchaseOrder is stock received from a supplier.
type PurchaseOrder struct {
	ID         id.ID               `json:"id"`
	SupplierID id.ID               `json:"supplierId"`
	Currency   string              `json:"currency"`
	Items      []PurchaseOrderItem `json:"items"`
	CreatedAt  time.Time           `json:"createdAt"`
	ReceivedAt *time.Time          `json:"receivedAt,omitempty"`
}

// NewPurchaseOrder starts an order for supplierID.
func NewPurchaseOrder(supplierID id.ID, currency string, now time.Time) (*PurchaseOrder, error) {
	if id.IsNil(supplierID) {
		return nil, apperror.NewValidation("supplier_id is required").WithDetail("field", "supplierId")
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	cur, err := types.NormalizeCurrency(currency)
	if err != nil {
		return nil, err
	}
	return &PurchaseOrder{
		ID:         id.New(),
		SupplierID: supplierID,
		Currency:   cur,
		Items:      []PurchaseOrderItem{},
		CreatedAt:  now.UTC(),
	}, nil
}

// AddLine appends a line costed in the order's currency.
func (p *PurchaseOrder) AddLine(productID id.ID, quantity int, unitCost decimal.Decimal) (PurchaseOrderItem, error) {
	if id.IsNil(productID) {
		return PurchaseOrderItem{}, apperror.NewValidation("product_id is required").WithDetail("field", "productId")
	}
	if quantity <= 0 {
		return PurchaseOrderItem{}, apperror.NewValidation("quantity must be positive").WithDetail("field", "quantity")
	}
	cost, err := types.NewMoney(unitCost, p.Currency)
	if err != nil {
		return PurchaseOrderItem{}, err
	}
	if !cost.IsPositive() {
		return PurchaseOrderItem{}, apperror.NewValidation("unit_cost must be positive").WithDetail("field", "unitCost")
	}
	total, err := cost.Multiply(quantity)
	if err != nil {
		return PurchaseOrderItem{}, err
	}

	item := PurchaseOrderItem{
		ID:         id.New(),
		PurchaseID: p.ID,
		ProductID:  productID,
		Quantity:   quantity,
		UnitCost:   cost,
		LineTotal:  total,
	}
	p.Items = append(p.Items, item)
	return item, nil
}

// MarkReceived stamps ReceivedAt.
func (p *PurchaseOrder) MarkReceived(at time.Time) {
	received := at.UTC()
	p.ReceivedAt = &received
}

// TotalAmount is the sum of line totals.
func (p *PurchaseOrder) TotalAmount() types.Money {
	total, _ := types.ZeroMoney(p.Currency)
	for _, item := range p.Items {
		total, _ = total.Add(item.LineTotal)
	}
	return total
}

// TotalQuantity is the sum of line quantities.
func (p *PurchaseOrder) TotalQuantity() int {
	n := 0
	for _, item := range p.Items {
		n += item.Quantity
	}
	return n
}

// GenerateMovements derives one incoming movement per line, stamped with the
// order's creation time and referencing the order.
func (p *PurchaseOrder) GenerateMovements() ([]entity.InventoryMovement, error) {
	out := make([]entity.InventoryMovement, 0, len(p.Items))
	for _, item := range p.Items {
		m, err := entity.NewInventoryMovement(
			item.ProductID,
			item.Quantity,
			entity.DirectionIn,
			entity.ReasonPurchase,
			p.ID.String(),
			p.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
