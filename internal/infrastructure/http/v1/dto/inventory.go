package dto

import (
	"time"

	"retailops/internal/core/entity"
	"retailops/internal/domain/inventory"
)

// --- Requests ---

// StockQuery selects the instant a stock level is computed at.
type StockQuery struct {
	AsOf *time.Time `form:"asOf" time_format:"2006-01-02T15:04:05Z07:00"`
}

// MovementListQuery filters the ledger of one product.
type MovementListQuery struct {
	ListQuery
	Direction string `form:"direction" binding:"omitempty,oneof=in out"`
	Reason    string `form:"reason"`
}

// ToFilter converts the query into an inventory movement filter.
func (q MovementListQuery) ToFilter() (inventory.MovementFilter, error) {
	base, err := q.ListQuery.ToFilter()
	if err != nil {
		return inventory.MovementFilter{}, err
	}
	f := inventory.MovementFilter{ListFilter: base, Reason: q.Reason}
	if q.Direction != "" {
		d := entity.Direction(q.Direction)
		f.Direction = &d
	}
	return f, nil
}

// RecordMovementRequest is a manual stock adjustment.
type RecordMovementRequest struct {
	Quantity   int        `json:"quantity"`
	Direction  string     `json:"direction" binding:"required,oneof=in out"`
	Reason     string     `json:"reason" binding:"required"`
	Reference  string     `json:"reference"`
	OccurredAt *time.Time `json:"occurredAt"`
}

// ToInput converts the request for the product in the path.
func (r RecordMovementRequest) ToInput(productID string) (inventory.RecordMovementInput, error) {
	pid, err := ParseID("productId", productID)
	if err != nil {
		return inventory.RecordMovementInput{}, err
	}
	return inventory.RecordMovementInput{
		ProductID:  pid,
		Quantity:   r.Quantity,
		Direction:  entity.Direction(r.Direction),
		Reason:     r.Reason,
		Reference:  r.Reference,
		OccurredAt: r.OccurredAt,
	}, nil
}

// --- Responses ---

// StockLevelResponse is the quantity on hand of a product.
type StockLevelResponse struct {
	ProductID      string    `json:"productId"`
	QuantityOnHand int       `json:"quantityOnHand"`
	AsOf           time.Time `json:"asOf"`
}

// FromStockLevel converts a stock level to its response.
func FromStockLevel(l entity.StockLevel) StockLevelResponse {
	return StockLevelResponse{
		ProductID:      l.ProductID.String(),
		QuantityOnHand: l.QuantityOnHand,
		AsOf:           l.AsOf,
	}
}

// MovementResponse is one ledger entry.
type MovementResponse struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"productId"`
	Quantity   int       `json:"quantity"`
	Direction  string    `json:"direction"`
	Delta      int       `json:"delta"`
	Reason     string    `json:"reason"`
	Reference  *string   `json:"reference,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FromMovement converts a ledger entry to its response.
func FromMovement(m entity.InventoryMovement) MovementResponse {
	return MovementResponse{
		ID:         m.ID.String(),
		ProductID:  m.ProductID.String(),
		Quantity:   m.Quantity,
		Direction:  string(m.Direction),
		Delta:      m.Delta(),
		Reason:     m.Reason,
		Reference:  m.Reference,
		OccurredAt: m.OccurredAt,
		CreatedAt:  m.CreatedAt,
	}
}

// FromMovements converts a slice of ledger entries.
func FromMovements(ms []entity.InventoryMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, FromMovement(m))
	}
	return out
}

// RecordMovementResponse is the appended entry and the resulting stock.
type RecordMovementResponse struct {
	Movement MovementResponse   `json:"movement"`
	Stock    StockLevelResponse `json:"stock"`
}

// FromRecordMovementResult converts the adjustment result.
func FromRecordMovementResult(r *inventory.RecordMovementResult) RecordMovementResponse {
	return RecordMovementResponse{
		Movement: FromMovement(r.Movement),
		Stock:    FromStockLevel(r.Stock),
	}
}
