// Package memory is an in-process implementation of every repository and of
// tx.Manager. Units of work run one at a time against a private copy of the
// state which replaces the shared state only on success.
package memory

import (
	"context"
	"maps"
	"sync"

	"retailops/internal/core/entity"
	"retailops/internal/core/id"
	"retailops/internal/core/tx"
	"retailops/internal/domain/catalog"
	"retailops/internal/domain/purchases"
	"retailops/internal/domain/returns"
	"retailops/internal/domain/sales"
)

type state struct {
	products  map[id.ID]catalog.Product
	customers map[id.ID]catalog.Customer
	suppliers map[id.ID]catalog.Supplier

	sales     map[id.ID]*sales.Sale
	purchases map[id.ID]*purchases.PurchaseOrder
	returns   map[id.ID]*returns.Return

	// returned quantity per sale item, kept alongside returns
	returned map[id.ID]int

	movements []entity.InventoryMovement
}

func newState() *state {
	return &state{
		products:  make(map[id.ID]catalog.Product),
		customers: make(map[id.ID]catalog.Customer),
		suppliers: make(map[id.ID]catalog.Supplier),
		sales:     make(map[id.ID]*sales.Sale),
		purchases: make(map[id.ID]*purchases.PurchaseOrder),
		returns:   make(map[id.ID]*returns.Return),
		returned:  make(map[id.ID]int),
	}
}

// clone copies every map and the ledger slice. Stored aggregates are never
// mutated in place, so sharing their pointers is safe.
func (s *state) clone() *state {
	return &state{
		products:  maps.Clone(s.products),
		customers: maps.Clone(s.customers),
		suppliers: maps.Clone(s.suppliers),
		sales:     maps.Clone(s.sales),
		purchases: maps.Clone(s.purchases),
		returns:   maps.Clone(s.returns),
		returned:  maps.Clone(s.returned),
		movements: append([]entity.InventoryMovement(nil), s.movements...),
	}
}

// Store holds the data and hands out repositories over it.
type Store struct {
	mu    sync.Mutex
	state *state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{state: newState()}
}

var _ tx.Manager = (*Store)(nil)

type workKey struct{}

// RunInTransaction implements tx.Manager. Nested calls join the outer unit.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(workKey{}).(*state); ok {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.state.clone()
	if err := fn(context.WithValue(ctx, workKey{}, work)); err != nil {
		return err
	}
	s.state = work
	return nil
}

// ReadOnly runs fn as a unit of work whose changes are always dropped.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(workKey{}).(*state); ok {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(context.WithValue(ctx, workKey{}, s.state.clone()))
}

// with runs fn against the unit of work in ctx, or against the shared state
// under the store lock when ctx carries none (auto-commit).
func (s *Store) with(ctx context.Context, fn func(st *state) error) error {
	if work, ok := ctx.Value(workKey{}).(*state); ok {
		return fn(work)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// Products returns the product repository.
func (s *Store) Products() *ProductRepo { return &ProductRepo{store: s} }

// Customers returns the customer repository.
func (s *Store) Customers() *CustomerRepo { return &CustomerRepo{store: s} }

// Suppliers returns the supplier repository.
func (s *Store) Suppliers() *SupplierRepo { return &SupplierRepo{store: s} }

// Movements returns the ledger repository.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{store: s} }

// Sales returns the sales repository.
func (s *Store) Sales() *SalesRepo { return &SalesRepo{store: s} }

// Purchases returns the purchases repository.
func (s *Store) Purchases() *PurchaseRepo { return &PurchaseRepo{store: s} }

// Returns returns the returns repository.
func (s *Store) Returns() *ReturnRepo { return &ReturnRepo{store: s} }
