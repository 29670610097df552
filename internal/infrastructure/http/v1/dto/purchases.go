package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"retailops/internal/core/types"
	"retailops/internal/domain/purchases"
)

// PurchaseLineRequest is one received line.
type PurchaseLineRequest struct {
	ProductID string          `json:"productId" binding:"required"`
	Quantity  int             `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unitCost"`
}

// CreatePurchaseRequest records a purchase order.
type CreatePurchaseRequest struct {
	SupplierID string                `json:"supplierId" binding:"required"`
	Currency   string                `json:"currency"`
	Lines      []PurchaseLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToInput converts the request into a purchases.RecordInput.
func (r CreatePurchaseRequest) ToInput() (purchases.RecordInput, error) {
	supplierID, err := ParseID("supplierId", r.SupplierID)
	if err != nil {
		return purchases.RecordInput{}, err
	}
	in := purchases.RecordInput{
		SupplierID: supplierID,
		Currency:   r.Currency,
		Lines:      make([]purchases.LineInput, 0, len(r.Lines)),
	}
	for _, l := range r.Lines {
		pid, err := ParseID("productId", l.ProductID)
		if err != nil {
			return purchases.RecordInput{}, err
		}
		in.Lines = append(in.Lines, purchases.LineInput{ProductID: pid, Quantity: l.Quantity, UnitCost: l.UnitCost})
	}
	return in, nil
}

// PurchaseListQuery filters the purchase list.
type PurchaseListQuery struct {
	ListQuery
	SupplierID string `form:"supplierId"`
}

// ToFilter converts the query into a purchases.ListFilter.
func (q PurchaseListQuery) ToFilter() (purchases.ListFilter, error) {
	base, err := q.ListQuery.ToFilter()
	if err != nil {
		return purchases.ListFilter{}, err
	}
	supplierID, err := ParseOptionalID("supplierId", &q.SupplierID)
	if err != nil {
		return purchases.ListFilter{}, err
	}
	return purchases.ListFilter{ListFilter: base, SupplierID: supplierID}, nil
}

// PurchaseItemResponse is one received line.
type PurchaseItemResponse struct {
	ID        string      `json:"id"`
	ProductID string      `json:"productId"`
	Quantity  int         `json:"quantity"`
	UnitCost  types.Money `json:"unitCost"`
	LineTotal types.Money `json:"lineTotal"`
}

// PurchaseResponse is a received purchase order.
type PurchaseResponse struct {
	ID            string                 `json:"id"`
	SupplierID    string                 `json:"supplierId"`
	Currency      string                 `json:"currency"`
	Items         []PurchaseItemResponse `json:"items"`
	TotalQuantity int                    `json:"totalQuantity"`
	TotalAmount   types.Money            `json:"totalAmount"`
	CreatedAt     time.Time              `json:"createdAt"`
	ReceivedAt    *time.Time             `json:"receivedAt,omitempty"`
}

// FromPurchase converts a purchase order to its response.
func FromPurchase(p *purchases.PurchaseOrder) PurchaseResponse {
	resp := PurchaseResponse{
		ID:            p.ID.String(),
		SupplierID:    p.SupplierID.String(),
		Currency:      p.Currency,
		Items:         make([]PurchaseItemResponse, 0, len(p.Items)),
		TotalQuantity: p.TotalQuantity(),
		TotalAmount:   p.TotalAmount(),
		CreatedAt:     p.CreatedAt,
		ReceivedAt:    p.ReceivedAt,
	}
	for _, it := range p.Items {
		resp.Items = append(resp.Items, PurchaseItemResponse{
			ID:        it.ID.String(),
			ProductID: it.ProductID.String(),
			Quantity:  it.Quantity,
			UnitCost:  it.UnitCost,
			LineTotal: it.LineTotal,
		})
	}
	return resp
}

// RecordPurchaseResponse is the recorded order and its ledger entries.
type RecordPurchaseResponse struct {
	Purchase  PurchaseResponse   `json:"purchase"`
	Movements []MovementResponse `json:"movements"`
}

// FromRecordPurchaseResult converts the use case result.
func FromRecordPurchaseResult(r *purchases.RecordResult) RecordPurchaseResponse {
	return RecordPurchaseResponse{Purchase: FromPurchase(r.Purchase), Movements: FromMovements(r.Movements)}
}
