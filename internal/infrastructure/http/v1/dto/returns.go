package dto

import (
	"time"

	"retailops/internal/core/types"
	"retailops/internal/domain/returns"
)

// ReturnLineRequest gives back part of one sale line.
type ReturnLineRequest struct {
	SaleItemID string `json:"saleItemId" binding:"required"`
	Quantity   int    `json:"quantity"`
}

// CreateReturnRequest records a return against a sale.
type CreateReturnRequest struct {
	SaleID string              `json:"saleId" binding:"required"`
	Lines  []ReturnLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToInput converts the request into a returns.RecordInput.
func (r CreateReturnRequest) ToInput() (returns.RecordInput, error) {
	saleID, err := ParseID("saleId", r.SaleID)
	if err != nil {
		return returns.RecordInput{}, err
	}
	in := returns.RecordInput{SaleID: saleID, Lines: make([]returns.LineInput, 0, len(r.Lines))}
	for _, l := range r.Lines {
		itemID, err := ParseID("saleItemId", l.SaleItemID)
		if err != nil {
			return returns.RecordInput{}, err
		}
		in.Lines = append(in.Lines, returns.LineInput{SaleItemID: itemID, Quantity: l.Quantity})
	}
	return in, nil
}

// ReturnListQuery filters the return list.
type ReturnListQuery struct {
	ListQuery
	SaleID string `form:"saleId"`
}

// ToFilter converts the query into a returns.ListFilter.
func (q ReturnListQuery) ToFilter() (returns.ListFilter, error) {
	base, err := q.ListQuery.ToFilter()
	if err != nil {
		return returns.ListFilter{}, err
	}
	saleID, err := ParseOptionalID("saleId", &q.SaleID)
	if err != nil {
		return returns.ListFilter{}, err
	}
	return returns.ListFilter{ListFilter: base, SaleID: saleID}, nil
}

// ReturnItemResponse is one returned line.
type ReturnItemResponse struct {
	ID         string      `json:"id"`
	SaleItemID string      `json:"saleItemId"`
	ProductID  string      `json:"productId"`
	Quantity   int         `json:"quantity"`
	UnitPrice  types.Money `json:"unitPrice"`
	LineTotal  types.Money `json:"lineTotal"`
}

// ReturnResponse is a recorded return.
type ReturnResponse struct {
	ID            string               `json:"id"`
	SaleID        string               `json:"saleId"`
	Currency      string               `json:"currency"`
	Items         []ReturnItemResponse `json:"items"`
	TotalQuantity int                  `json:"totalQuantity"`
	TotalAmount   types.Money          `json:"totalAmount"`
	CreatedAt     time.Time            `json:"createdAt"`
}

// FromReturn converts a return to its response.
func FromReturn(r *returns.Return) ReturnResponse {
	resp := ReturnResponse{
		ID:            r.ID.String(),
		SaleID:        r.SaleID.String(),
		Currency:      r.Currency,
		Items:         make([]ReturnItemResponse, 0, len(r.Items)),
		TotalQuantity: r.TotalQuantity(),
		TotalAmount:   r.TotalAmount(),
		CreatedAt:     r.CreatedAt,
	}
	for _, it := range r.Items {
		resp.Items = append(resp.Items, ReturnItemResponse{
			ID:         it.ID.String(),
			SaleItemID: it.SaleItemID.String(),
			ProductID:  it.ProductID.String(),
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			LineTotal:  it.LineTotal,
		})
	}
	return resp
}

// RecordReturnResponse is the recorded return and its ledger entries.
type RecordReturnResponse struct {
	Return    ReturnResponse     `json:"return"`
	Movements []MovementResponse `json:"movements"`
}

// FromRecordReturnResult converts the use case result.
func FromRecordReturnResult(r *returns.RecordResult) RecordReturnResponse {
	return RecordReturnResponse{Return: FromReturn(r.Return), Movements: FromMovements(r.Movements)}
}
