// Package returns provides the Return aggregate and the return recording
// use case.
package returns

import (
	"time"

	"github.com/shopspring/decimal"

	"retailops/internal/core/apperror"
	"retailops/internal/core/entity"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
)

// ReturnItem gives back part of one sale line.
type ReturnItem struct {
	ID         id.ID       `json:"id"`
	ReturnID   id.ID       `json:"returnId"`
	SaleItemID id.ID       `json:"saleItemId"`
	ProductID  id.ID       `json:"productId"`
	Quantity   int         `json:"quantity"`
	UnitPrice  types.Money `json:"unitPrice"`
	LineTotal  types.Money `json:"lineTotal"`
}

// Return is goods brought back against a closed sale.
type Return struct {
	ID        id.ID        `json:"id"`
	SaleID    id.ID        `json:"saleId"`
	Currency  string       `json:"currency"`
	Items     []ReturnItem `json:"items"`
	CreatedAt time.Time    `json:"createdAt"`
}

// NewReturn starts a return against saleID in the sale's currency.
func NewReturn(saleID id.ID, currency string, now time.Time) (*Return, error) {
	if id.IsNil(saleID) {
		return nil, apperror.NewValidation("sale_id is required").WithDetail("field", "saleId")
	}
	cur, err := types.NormalizeCurrency(currency)
	if err != nil {
		return nil, err
	}
	return &Return{
		ID:        id.New(),
		SaleID:    saleID,
		Currency:  cur,
		Items:     []ReturnItem{},
		CreatedAt: now.UTC(),
	}, nil
}

// AddLine appends a returned quantity of a sale line at the sale's unit price.
func (r *Return) AddLine(saleItemID, productID id.ID, quantity int, unitPrice decimal.Decimal) (ReturnItem, error) {
	if id.IsNil(saleItemID) {
		return ReturnItem{}, apperror.NewValidation("sale_item_id is required").WithDetail("field", "saleItemId")
	}
	if id.IsNil(productID) {
		return ReturnItem{}, apperror.NewValidation("product_id is required").WithDetail("field", "productId")
	}
	if quantity <= 0 {
		return ReturnItem{}, apperror.NewValidation("Return quantity must be positive").WithDetail("field", "quantity")
	}
	price, err := types.NewMoney(unitPrice, r.Currency)
	if err != nil {
		return ReturnItem{}, err
	}
	if !price.IsPositive() {
		return ReturnItem{}, apperror.NewValidation("unit_price must be positive").WithDetail("field", "unitPrice")
	}
	total, err := price.Multiply(quantity)
	if err != nil {
		return ReturnItem{}, err
	}

	item := ReturnItem{
		ID:         id.New(),
		ReturnID:   r.ID,
		SaleItemID: saleItemID,
		ProductID:  productID,
		Quantity:   quantity,
		UnitPrice:  price,
		LineTotal:  total,
	}
	r.Items = append(r.Items, item)
	return item, nil
}

// TotalAmount is the sum of line totals.
func (r *Return) TotalAmount() types.Money {
	total, _ := types.ZeroMoney(r.Currency)
	for _, item := range r.Items {
		total, _ = total.Add(item.LineTotal)
	}
	return total
}

// TotalQuantity is the sum of line quantities.
func (r *Return) TotalQuantity() int {
	n := 0
	for _, item := range r.Items {
		n += item.Quantity
	}
	return n
}

// GenerateMovements derives one incoming movement per line, stamped with the
// return's creation time and referencing the return.
func (r *Return) GenerateMovements() ([]entity.InventoryMovement, error) {
	out := make([]entity.InventoryMovement, 0, len(r.Items))
	for _, item := range r.Items {
		m, err := entity.NewInventoryMovement(
			item.ProductID,
			item.Quantity,
			entity.DirectionIn,
			entity.ReasonReturn,
			r.ID.String(),
			r.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
