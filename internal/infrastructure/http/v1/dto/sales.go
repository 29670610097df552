package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"retailops/internal/core/types"
	"retailops/internal/domain/sales"
)

// --- Requests ---

// SaleLineRequest is one requested sale line.
type SaleLineRequest struct {
	ProductID string          `json:"productId" binding:"required"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// CreateSaleRequest records a sale.
type CreateSaleRequest struct {
	Currency   string            `json:"currency"`
	CustomerID *string           `json:"customerId"`
	Lines      []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToInput converts the request into a sales.RecordInput.
func (r CreateSaleRequest) ToInput() (sales.RecordInput, error) {
	customerID, err := ParseOptionalID("customerId", r.CustomerID)
	if err != nil {
		return sales.RecordInput{}, err
	}
	in := sales.RecordInput{
		Currency:   r.Currency,
		CustomerID: customerID,
		Lines:      make([]sales.LineInput, 0, len(r.Lines)),
	}
	for _, l := range r.Lines {
		pid, err := ParseID("productId", l.ProductID)
		if err != nil {
			return sales.RecordInput{}, err
		}
		in.Lines = append(in.Lines, sales.LineInput{ProductID: pid, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return in, nil
}

// SaleListQuery filters the sale list.
type SaleListQuery struct {
	ListQuery
	CustomerID string `form:"customerId"`
}

// ToFilter converts the query into a sales.ListFilter.
func (q SaleListQuery) ToFilter() (sales.ListFilter, error) {
	base, err := q.ListQuery.ToFilter()
	if err != nil {
		return sales.ListFilter{}, err
	}
	customerID, err := ParseOptionalID("customerId", &q.CustomerID)
	if err != nil {
		return sales.ListFilter{}, err
	}
	return sales.ListFilter{ListFilter: base, CustomerID: customerID}, nil
}

// --- Responses ---

// SaleItemResponse is one sale line.
type SaleItemResponse struct {
	ID        string      `json:"id"`
	ProductID string      `json:"productId"`
	Quantity  int         `json:"quantity"`
	UnitPrice types.Money `json:"unitPrice"`
	LineTotal types.Money `json:"lineTotal"`
}

// SaleResponse is a closed sale.
type SaleResponse struct {
	ID            string             `json:"id"`
	Currency      string             `json:"currency"`
	CustomerID    *string            `json:"customerId,omitempty"`
	Items         []SaleItemResponse `json:"items"`
	TotalQuantity int                `json:"totalQuantity"`
	TotalAmount   types.Money        `json:"totalAmount"`
	CreatedAt     time.Time          `json:"createdAt"`
	ClosedAt      *time.Time         `json:"closedAt,omitempty"`
}

// FromSale converts a sale to its response.
func FromSale(s *sales.Sale) SaleResponse {
	resp := SaleResponse{
		ID:            s.ID.String(),
		Currency:      s.Currency,
		Items:         make([]SaleItemResponse, 0, len(s.Items)),
		TotalQuantity: s.TotalQuantity(),
		TotalAmount:   s.TotalAmount(),
		CreatedAt:     s.CreatedAt,
		ClosedAt:      s.ClosedAt,
	}
	if s.CustomerID != nil {
		cid := s.CustomerID.String()
		resp.CustomerID = &cid
	}
	for _, it := range s.Items {
		resp.Items = append(resp.Items, SaleItemResponse{
			ID:        it.ID.String(),
			ProductID: it.ProductID.String(),
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		})
	}
	return resp
}

// RecordSaleResponse is the recorded sale and its ledger entries.
type RecordSaleResponse struct {
	Sale      SaleResponse       `json:"sale"`
	Movements []MovementResponse `json:"movements"`
}

// FromRecordSaleResult converts the use case result.
func FromRecordSaleResult(r *sales.RecordResult) RecordSaleResponse {
	return RecordSaleResponse{Sale: FromSale(r.Sale), Movements: FromMovements(r.Movements)}
}
