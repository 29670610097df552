package memory

import (
	"context"
	"slices"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/domain"
	"retailops/internal/domain/purchases"
	"retailops/internal/domain/returns"
	"retailops/internal/domain/sales"
)

func cloneSale(s *sales.Sale) *sales.Sale {
	c := *s
	c.Items = slices.Clone(s.Items)
	return &c
}

func clonePurchase(p *purchases.PurchaseOrder) *purchases.PurchaseOrder {
	c := *p
	c.Items = slices.Clone(p.Items)
	return &c
}

func cloneReturn(r *returns.Return) *returns.Return {
	c := *r
	c.Items = slices.Clone(r.Items)
	return &c
}

// SalesRepo implements sales.Repository.
type SalesRepo struct{ store *Store }

var _ sales.Repository = (*SalesRepo)(nil)

// AddSale implements sales.Repository.
func (r *SalesRepo) AddSale(ctx context.Context, sale *sales.Sale) error {
	return r.store.with(ctx, func(st *state) error {
		if _, ok := st.sales[sale.ID]; ok {
			return apperror.NewConflict("sale already exists").WithDetail("id", sale.ID.String())
		}
		st.sales[sale.ID] = cloneSale(sale)
		return nil
	})
}

// GetByID implements sales.Repository.
func (r *SalesRepo) GetByID(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	var out *sales.Sale
	err := r.store.with(ctx, func(st *state) error {
		s, ok := st.sales[saleID]
		if !ok {
			return apperror.NewNotFound("Sale", saleID.String())
		}
		out = cloneSale(s)
		return nil
	})
	return out, err
}

// GetForUpdate implements sales.Repository. Units of work are already exclusive.
func (r *SalesRepo) GetForUpdate(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	return r.GetByID(ctx, saleID)
}

// List implements sales.Repository.
func (r *SalesRepo) List(ctx context.Context, filter sales.ListFilter) (domain.ListResult[*sales.Sale], error) {
	var matched []*sales.Sale
	err := r.store.with(ctx, func(st *state) error {
		for _, s := range st.sales {
			if filter.CustomerID != nil && (s.CustomerID == nil || *s.CustomerID != *filter.CustomerID) {
				continue
			}
			if !inRange(s.CreatedAt, filter.ListFilter) {
				continue
			}
			matched = append(matched, cloneSale(s))
		}
		return nil
	})
	if err != nil {
		return domain.ListResult[*sales.Sale]{}, err
	}
	slices.SortFunc(matched, func(a, b *sales.Sale) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return id.Compare(b.ID, a.ID)
	})
	return domain.Page(matched, filter.ListFilter), nil
}

// PurchaseRepo implements purchases.Repository.
type PurchaseRepo struct{ store *Store }

var _ purchases.Repository = (*PurchaseRepo)(nil)

// AddPurchase implements purchases.Repository.
func (r *PurchaseRepo) AddPurchase(ctx context.Context, order *purchases.PurchaseOrder) error {
	return r.store.with(ctx, func(st *state) error {
		if _, ok := st.purchases[order.ID]; ok {
			return apperror.NewConflict("purchase order already exists").WithDetail("id", order.ID.String())
		}
		st.purchases[order.ID] = clonePurchase(order)
		return nil
	})
}

// GetByID implements purchases.Repository.
func (r *PurchaseRepo) GetByID(ctx context.Context, purchaseID id.ID) (*purchases.PurchaseOrder, error) {
	var out *purchases.PurchaseOrder
	err := r.store.with(ctx, func(st *state) error {
		p, ok := st.purchases[purchaseID]
		if !ok {
			return apperror.NewNotFound("Purchase order", purchaseID.String())
		}
		out = clonePurchase(p)
		return nil
	})
	return out, err
}

// List implements purchases.Repository.
func (r *PurchaseRepo) List(ctx context.Context, filter purchases.ListFilter) (domain.ListResult[*purchases.PurchaseOrder], error) {
	var matched []*purchases.PurchaseOrder
	err := r.store.with(ctx, func(st *state) error {
		for _, p := range st.purchases {
			if filter.SupplierID != nil && p.SupplierID != *filter.SupplierID {
				continue
			}
			if !inRange(p.CreatedAt, filter.ListFilter) {
				continue
			}
			matched = append(matched, clonePurchase(p))
		}
		return nil
	})
	if err != nil {
		return domain.ListResult[*purchases.PurchaseOrder]{}, err
	}
	slices.SortFunc(matched, func(a, b *purchases.PurchaseOrder) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return id.Compare(b.ID, a.ID)
	})
	return domain.Page(matched, filter.ListFilter), nil
}

// ReturnRepo implements returns.Repository.
type ReturnRepo struct{ store *Store }

var _ returns.Repository = (*ReturnRepo)(nil)

// AddReturn implements returns.Repository.
func (r *ReturnRepo) AddReturn(ctx context.Context, ret *returns.Return) error {
	return r.store.with(ctx, func(st *state) error {
		if _, ok := st.returns[ret.ID]; ok {
			return apperror.NewConflict("return already exists").WithDetail("id", ret.ID.String())
		}
		st.returns[ret.ID] = cloneReturn(ret)
		for _, item := range ret.Items {
			st.returned[item.SaleItemID] += item.Quantity
		}
		return nil
	})
}

// ReturnedQuantities implements returns.Repository.
func (r *ReturnRepo) ReturnedQuantities(ctx context.Context, saleItemIDs []id.ID) (map[id.ID]int, error) {
	out := make(map[id.ID]int, len(saleItemIDs))
	err := r.store.with(ctx, func(st *state) error {
		for _, itemID := range saleItemIDs {
			if q, ok := st.returned[itemID]; ok {
				out[itemID] = q
			}
		}
		return nil
	})
	return out, err
}

// GetByID implements returns.Repository.
func (r *ReturnRepo) GetByID(ctx context.Context, returnID id.ID) (*returns.Return, error) {
	var out *returns.Return
	err := r.store.with(ctx, func(st *state) error {
		ret, ok := st.returns[returnID]
		if !ok {
			return apperror.NewNotFound("Return", returnID.String())
		}
		out = cloneReturn(ret)
		return nil
	})
	return out, err
}

// List implements returns.Repository.
func (r *ReturnRepo) List(ctx context.Context, filter returns.ListFilter) (domain.ListResult[*returns.Return], error) {
	var matched []*returns.Return
	err := r.store.with(ctx, func(st *state) error {
		for _, ret := range st.returns {
			if filter.SaleID != nil && ret.SaleID != *filter.SaleID {
				continue
			}
			if !inRange(ret.CreatedAt, filter.ListFilter) {
				continue
			}
			matched = append(matched, cloneReturn(ret))
		}
		return nil
	})
	if err != nil {
		return domain.ListResult[*returns.Return]{}, err
	}
	slices.SortFunc(matched, func(a, b *returns.Return) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return id.Compare(b.ID, a.ID)
	})
	return domain.Page(matched, filter.ListFilter), nil
}
