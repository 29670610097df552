package sales

import (
	"context"

	"retailops/internal/core/id"
	"retailops/internal/domain"
)

// Repository persists sales.
type Repository interface {
	// AddSale inserts a closed sale with its items.
	AddSale(ctx context.Context, sale *Sale) error

	// GetByID returns the sale with items or a NotFound AppError.
	GetByID(ctx context.Context, saleID id.ID) (*Sale, error)

	// GetForUpdate is GetByID that also locks the sale for the rest of the
	// surrounding transaction. Returns against one sale serialize on it.
	GetForUpdate(ctx context.Context, saleID id.ID) (*Sale, error)

	// List returns sales newest first.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error)
}

// ListFilter narrows List.
type ListFilter struct {
	domain.ListFilter

	CustomerID *id.ID
}
