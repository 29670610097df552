package catalog

import (
	"context"

	"retailops/internal/core/id"
)

// ProductRepository is the product store used by the recording services.
type ProductRepository interface {
	// Create inserts a new product.
	Create(ctx context.Context, p *Product) error

	// GetByID returns the product or a NotFound AppError. With lock set the
	// row stays locked for the rest of the surrounding transaction.
	GetByID(ctx context.Context, productID id.ID, lock bool) (*Product, error)

	// Update writes p only if the stored version still equals expectedVersion.
	// It reports false, without error, when another writer got there first.
	Update(ctx context.Context, p *Product, expectedVersion int) (bool, error)
}

// CustomerRepository reads customers.
type CustomerRepository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, customerID id.ID) (*Customer, error)
}

// SupplierRepository reads suppliers.
type SupplierRepository interface {
	Create(ctx context.Context, s *Supplier) error
	GetByID(ctx context.Context, supplierID id.ID) (*Supplier, error)
}
