package memory

import (
	"context"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/domain/catalog"
)

// ProductRepo implements catalog.ProductRepository.
type ProductRepo struct{ store *Store }

var _ catalog.ProductRepository = (*ProductRepo)(nil)

// Create implements catalog.ProductRepository.
func (r *ProductRepo) Create(ctx context.Context, p *catalog.Product) error {
	return r.store.with(ctx, func(st *state) error {
		if _, ok := st.products[p.ID]; ok {
			return apperror.NewConflict("product already exists").WithDetail("id", p.ID.String())
		}
		for _, existing := range st.products {
			if existing.SKU == p.SKU {
				return apperror.NewConflict("product with this sku already exists").WithDetail("sku", p.SKU)
			}
		}
		st.products[p.ID] = *p
		return nil
	})
}

// GetByID implements catalog.ProductRepository. Units of work are already
// exclusive, so lock has no further effect.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID, _ bool) (*catalog.Product, error) {
	var out *catalog.Product
	err := r.store.with(ctx, func(st *state) error {
		p, ok := st.products[productID]
		if !ok {
			return apperror.NewNotFound("Product", productID.String())
		}
		out = &p
		return nil
	})
	return out, err
}

// Update implements catalog.ProductRepository.
func (r *ProductRepo) Update(ctx context.Context, p *catalog.Product, expectedVersion int) (bool, error) {
	var updated bool
	err := r.store.with(ctx, func(st *state) error {
		current, ok := st.products[p.ID]
		if !ok || current.Version != expectedVersion {
			return nil
		}
		st.products[p.ID] = *p
		updated = true
		return nil
	})
	return updated, err
}

// CustomerRepo implements catalog.CustomerRepository.
type CustomerRepo struct{ store *Store }

var _ catalog.CustomerRepository = (*CustomerRepo)(nil)

// Create implements catalog.CustomerRepository.
func (r *CustomerRepo) Create(ctx context.Context, c *catalog.Customer) error {
	return r.store.with(ctx, func(st *state) error {
		st.customers[c.ID] = *c
		return nil
	})
}

// GetByID implements catalog.CustomerRepository.
func (r *CustomerRepo) GetByID(ctx context.Context, customerID id.ID) (*catalog.Customer, error) {
	var out *catalog.Customer
	err := r.store.with(ctx, func(st *state) error {
		c, ok := st.customers[customerID]
		if !ok {
			return apperror.NewNotFound("Customer", customerID.String())
		}
		out = &c
		return nil
	})
	return out, err
}

// SupplierRepo implements catalog.SupplierRepository.
type SupplierRepo struct{ store *Store }

var _ catalog.SupplierRepository = (*SupplierRepo)(nil)

// Create implements catalog.SupplierRepository.
func (r *SupplierRepo) Create(ctx context.Context, s *catalog.Supplier) error {
	return r.store.with(ctx, func(st *state) error {
		st.suppliers[s.ID] = *s
		return nil
	})
}

// GetByID implements catalog.SupplierRepository.
func (r *SupplierRepo) GetByID(ctx context.Context, supplierID id.ID) (*catalog.Supplier, error) {
	var out *catalog.Supplier
	err := r.store.with(ctx, func(st *state) error {
		s, ok := st.suppliers[supplierID]
		if !ok {
			return apperror.NewNotFound("Supplier", supplierID.String())
		}
		out = &s
		return nil
	})
	return out, err
}
