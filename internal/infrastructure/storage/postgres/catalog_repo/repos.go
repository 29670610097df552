package catalog_repo

import (
	"context"

	"retailops/internal/core/id"
	"retailops/internal/domain/catalog"
	"retailops/internal/infrastructure/storage/postgres"
)

var (
	productColumns  = postgres.ExtractDBColumns[catalog.Product]()
	customerColumns = postgres.ExtractDBColumns[catalog.Customer]()
	supplierColumns = postgres.ExtractDBColumns[catalog.Supplier]()
)

// ProductRepo implements catalog.ProductRepository.
type ProductRepo struct {
	*BaseCatalogRepo[*catalog.Product]
}

var _ catalog.ProductRepository = (*ProductRepo)(nil)

func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txManager, "products", "Product", productColumns,
			func() *catalog.Product { return &catalog.Product{} }),
	}
}

// GetByID returns the product, taking a row lock when lock is set.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID, lock bool) (*catalog.Product, error) {
	return r.getByID(ctx, productID, lock)
}

// CustomerRepo implements catalog.CustomerRepository.
type CustomerRepo struct {
	*BaseCatalogRepo[*catalog.Customer]
}

var _ catalog.CustomerRepository = (*CustomerRepo)(nil)

func NewCustomerRepo(txManager *postgres.TxManager) *CustomerRepo {
	return &CustomerRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txManager, "customers", "Customer", customerColumns,
			func() *catalog.Customer { return &catalog.Customer{} }),
	}
}

func (r *CustomerRepo) GetByID(ctx context.Context, customerID id.ID) (*catalog.Customer, error) {
	return r.getByID(ctx, customerID, false)
}

// SupplierRepo implements catalog.SupplierRepository.
type SupplierRepo struct {
	*BaseCatalogRepo[*catalog.Supplier]
}

var _ catalog.SupplierRepository = (*SupplierRepo)(nil)

func NewSupplierRepo(txManager *postgres.TxManager) *SupplierRepo {
	return &SupplierRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txManager, "suppliers", "Supplier", supplierColumns,
			func() *catalog.Supplier { return &catalog.Supplier{} }),
	}
}

func (r *SupplierRepo) GetByID(ctx context.Context, supplierID id.ID) (*catalog.Supplier, error) {
	return r.getByID(ctx, supplierID, false)
}
