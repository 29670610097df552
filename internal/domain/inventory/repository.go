// Package inventory provides the movement ledger and the stock projection
// computed from it.
package inventory

import (
	"context"
	"time"

	"retailops/internal/core/entity"
	"retailops/internal/core/id"
	"retailops/internal/domain"
)

// MovementRepository is the append-only ledger store.
// There is no update or delete: a wrong entry is corrected by a new one.
type MovementRepository interface {
	// Add appends movements within the caller's unit of work.
	Add(ctx context.Context, movements ...entity.InventoryMovement) error

	// StockLevel sums movement deltas for productID, restricted to
	// OccurredAt <= asOf when asOf is set. Unknown products yield zero.
	StockLevel(ctx context.Context, productID id.ID, asOf *time.Time) (entity.StockLevel, error)

	// StockLevels returns quantity on hand for several products at once.
	// Products without movements are present with zero.
	StockLevels(ctx context.Context, productIDs []id.ID) (map[id.ID]int, error)

	// ListForProduct returns movements newest first (occurred_at, then created_at).
	ListForProduct(ctx context.Context, productID id.ID, filter MovementFilter) (domain.ListResult[entity.InventoryMovement], error)
}

// MovementFilter narrows ListForProduct.
type MovementFilter struct {
	domain.ListFilter

	Direction *entity.Direction
	Reason    string
}
