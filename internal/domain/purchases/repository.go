package purchases

import (
	"context"

	"retailops/internal/core/id"
	"retailops/internal/domain"
)

// Repository persists purchase orders.
type Repository interface {
	// AddPurchase inserts an order with its items.
	AddPurchase(ctx context.Context, order *PurchaseOrder) error

	// GetByID returns the order with items or a NotFound AppError.
	GetByID(ctx context.Context, purchaseID id.ID) (*PurchaseOrder, error)

	// List returns orders newest first.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*PurchaseOrder], error)
}

// ListFilter narrows List.
type ListFilter struct {
	domain.ListFilter

	SupplierID *id.ID
}
