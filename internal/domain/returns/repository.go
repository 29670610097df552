package returns

import (
	"context"

	"retailops/internal/core/id"
	"retailops/internal/domain"
)

// Repository persists returns.
type Repository interface {
	// AddReturn inserts a return with its items.
	AddReturn(ctx context.Context, ret *Return) error

	// ReturnedQuantities sums the quantity already returned per sale item.
	// Items never returned are absent from the map.
	ReturnedQuantities(ctx context.Context, saleItemIDs []id.ID) (map[id.ID]int, error)

	// GetByID returns the return with items or a NotFound AppError.
	GetByID(ctx context.Context, returnID id.ID) (*Return, error)

	// List returns returns newest first.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Return], error)
}

// ListFilter narrows List.
type ListFilter struct {
	domain.ListFilter

	SaleID *id.ID
}
