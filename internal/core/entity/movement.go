package entity

import (
	"strings"
	"time"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
)

// Direction of a stock movement.
type Direction string

const (
	// DirectionIn increases stock on hand.
	DirectionIn Direction = "in"
	// DirectionOut decreases stock on hand.
	DirectionOut Direction = "out"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionIn || d == DirectionOut
}

// Movement reasons written by the recording services.
const (
	ReasonSale     = "sale"
	ReasonPurchase = "purchase"
	ReasonReturn   = "return"
)

// MaxReasonLength bounds Reason and Reference.
const MaxReasonLength = 128

// InventoryMovement is one immutable ledger entry. Entries are appended, never
// updated or deleted; stock on hand is always derived from them.
type InventoryMovement struct {
	ID         id.ID     `db:"id" json:"id"`
	ProductID  id.ID     `db:"product_id" json:"productId"`
	Quantity   int       `db:"quantity" json:"quantity"`
	Direction  Direction `db:"direction" json:"direction"`
	Reason     string    `db:"reason" json:"reason"`
	Reference  *string   `db:"reference" json:"reference,omitempty"`
	OccurredAt time.Time `db:"occurred_at" json:"occurredAt"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// NewInventoryMovement validates its input and returns a movement with a fresh ID.
// Reason and reference are trimmed; a blank reference becomes nil.
func NewInventoryMovement(
	productID id.ID,
	quantity int,
	direction Direction,
	reason string,
	reference string,
	occurredAt time.Time,
) (InventoryMovement, error) {
	if id.IsNil(productID) {
		return InventoryMovement{}, apperror.NewValidation("Product is required for inventory movement").
			WithDetail("field", "productId")
	}
	if quantity <= 0 {
		return InventoryMovement{}, apperror.NewValidation("Movement quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("quantity", quantity)
	}
	if !direction.Valid() {
		return InventoryMovement{}, apperror.NewValidation("Movement direction must be 'in' or 'out'").
			WithDetail("field", "direction")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return InventoryMovement{}, apperror.NewValidation("Movement reason is required").
			WithDetail("field", "reason")
	}

	now := time.Now().UTC()
	if occurredAt.IsZero() {
		occurredAt = now
	}

	if len(reason) > MaxReasonLength {
		return InventoryMovement{}, apperror.NewValidation("Movement reason is too long").
			WithDetail("field", "reason")
	}

	var ref *string
	if r := strings.TrimSpace(reference); r != "" {
		if len(r) > MaxReasonLength {
			return InventoryMovement{}, apperror.NewValidation("Movement reference is too long").
				WithDetail("field", "reference")
		}
		ref = &r
	}

	return InventoryMovement{
		ID:         id.New(),
		ProductID:  productID,
		Quantity:   quantity,
		Direction:  direction,
		Reason:     reason,
		Reference:  ref,
		OccurredAt: occurredAt.UTC(),
		CreatedAt:  now,
	}, nil
}

// Delta is the signed effect on stock: +Quantity for in, -Quantity for out.
func (m InventoryMovement) Delta() int {
	if m.Direction == DirectionOut {
		return -m.Quantity
	}
	return m.Quantity
}

// StockLevel is the derived quantity on hand of a product at AsOf.
type StockLevel struct {
	ProductID      id.ID     `json:"productId"`
	QuantityOnHand int       `json:"quantityOnHand"`
	AsOf           time.Time `json:"asOf"`
}

// ProjectStock folds movements of productID into a StockLevel.
//
// With asOf set only movements that occurred at or before it count and the
// result is stamped with asOf. Without it every movement counts and the result
// is stamped with the latest OccurredAt seen, or now when there is none.
func ProjectStock(productID id.ID, movements []InventoryMovement, asOf *time.Time) StockLevel {
	level := StockLevel{ProductID: productID}
	var latest time.Time
	for _, m := range movements {
		if m.ProductID != productID {
			continue
		}
		if asOf != nil && m.OccurredAt.After(*asOf) {
			continue
		}
		level.QuantityOnHand += m.Delta()
		if m.OccurredAt.After(latest) {
			latest = m.OccurredAt
		}
	}

	switch {
	case asOf != nil:
		level.AsOf = *asOf
	case !latest.IsZero():
		level.AsOf = latest
	default:
		level.AsOf = time.Now().UTC()
	}
	return level
}
