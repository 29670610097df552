// Package sales provides the Sale aggregate and the sale recording use case.
package sales

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

// SaleItem is one line of a sale.
type SaleItem struct {
	ID        id.ID       `db:"id" json:"id"`
	SaleID    id.ID       `db:"sale_id" json:"saleId"`
	ProductID id.ID       `db:"product_id" json:"productId"`
	Quantity  int         `db:"quantity" json:"quantity"`
	UnitPrice types.Money `db:"-" json:"unitPrice"`
	LineTotal types.Money `db:"-" json:"lineTotal"`
}

// Sale is a closed set of items sold together. A sale is open while it is
// being built and is closed exactly once; closed sales are immutable.
type Sale struct {
	ID         id.ID      `json:"id"`
	Currency   string     `json:"currency"`
	CustomerID *id.ID     `json:"customerId,omitempty"`
	Items      []SaleItem `json:"items"`
	CreatedAt  time.Time  `json:"createdAt"`
	ClosedAt   *time.Time `json:"closedAt,omitempty"`
}

// NewSale starts an open sale. An empty currency means DefaultCurrency.
func NewSale(currency string, customerID *id.ID) (*Sale, error) {
	if currency == "" {
		currency = DefaultCurrency
	}
	cur, err := types.NormalizeCurrency(currency)
	if err != nil {
		return nil, err
	}
	return &Sale{
		ID:         id.New(),
		Currency:   cur,
		CustomerID: customerID,
		Items:      []SaleItem{},
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// IsClosed reports whether Close has been called.
func (s *Sale) IsClosed() bool {
	return s.ClosedAt != nil
}

// AddLine appends an item priced in the sale's currency.
func (s *Sale) AddLine(productID id.ID, quantity int, unitPrice decimal.Decimal) (SaleItem, error) {
	if s.IsClosed() {
		return SaleItem{}, apperror.NewValidation("Sale is already closed")
	}
	if id.IsNil(productID) {
		return SaleItem{}, apperror.NewValidation("product_id is required").WithDetail("field", "productId")
	}
	if quantity <= 0 {
		return SaleItem{}, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("product_id", productID.String())
	}
	price, err := types.NewMoney(unitPrice, s.Currency)
	if err != nil {
		return SaleItem{}, err
	}
	if !price.IsPositive() {
		return SaleItem{}, apperror.NewValidation("unit_price must be positive").
			WithDetail("field", "unitPrice").
			WithDetail("product_id", productID.String())
	}
	total, err := price.Multiply(quantity)
	if err != nil {
		return SaleItem{}, err
	}

	item := SaleItem{
		ID:        id.New(),
		SaleID:    s.ID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: price,
		LineTotal: total,
	}
	return item, s.AddItem(item)
}

// AddItem appends a prebuilt item. Its price must be in the sale's currency.
func (s *Sale) AddItem(item SaleItem) error {
	if s.IsClosed() {
		return apperror.NewValidation("Sale is already closed")
	}
	if item.UnitPrice.Currency() != s.Currency {
		return apperror.NewCurrencyMismatch(s.Currency, item.UnitPrice.Currency())
	}
	item.SaleID = s.ID
	s.Items = append(s.Items, item)
	return nil
}

// Close stamps ClosedAt. It fails on an empty or already closed sale.
func (s *Sale) Close(at time.Time) error {
	if len(s.Items) == 0 {
		return apperror.NewValidation("Sale must have at least one item")
	}
	if s.IsClosed() {
		return apperror.NewValidation("Sale is already closed")
	}
	closedAt := at.UTC()
	s.ClosedAt = &closedAt
	return nil
}

// TotalAmount is the sum of line totals.
func (s *Sale) TotalAmount() types.Money {
	total, _ := types.ZeroMoney(s.Currency)
	for _, item := range s.Items {
		// Items are currency-checked on the way in.
		total, _ = total.Add(item.LineTotal)
	}
	return total
}

// TotalQuantity is the sum of line quantities.
func (s *Sale) TotalQuantity() int {
	n := 0
	for _, item := range s.Items {
		n += item.Quantity
	}
	return n
}

// Item returns the line with the given ID.
func (s *Sale) Item(itemID id.ID) (SaleItem, bool) {
	for _, item := range s.Items {
		if item.ID == itemID {
			return item, true
		}
	}
	return SaleItem{}, false
}

// GenerateMovements derives one outgoing movement per line, stamped with the
// close time and referencing the sale. Lines for the same product are not merged.
func (s *Sale) GenerateMovements() ([]entity.InventoryMovement, error) {
	if !s.IsClosed() {
		return nil, apperror.NewValidation("Sale must be closed before movements are generated")
	}
	out := make([]entity.InventoryMovement, 0, len(s.Items))
	for _, item := range s.Items {
		m, err := entity.NewInventoryMovement(
			item.ProductID,
			item.Quantity,
			entity.DirectionOut,
			entity.ReasonSale,
			s.ID.String(),
			*s.ClosedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
