package memory

import (
	"context"
	"slices"
	"time"

	"retailops/internal/core/entity"
	"retailops/internal/core/id"
	"retailops/internal/domain"
	"retailops/internal/domain/inventory"
)

// MovementRepo implements inventory.MovementRepository.
type MovementRepo struct{ store *Store }

var _ inventory.MovementRepository = (*MovementRepo)(nil)

// Add implements inventory.MovementRepository.
func (r *MovementRepo) Add(ctx context.Context, movements ...entity.InventoryMovement) error {
	if len(movements) == 0 {
		return nil
	}
	return r.store.with(ctx, func(st *state) error {
		st.movements = append(st.movements, movements...)
		return nil
	})
}

// StockLevel implements inventory.MovementRepository.
func (r *MovementRepo) StockLevel(ctx context.Context, productID id.ID, asOf *time.Time) (entity.StockLevel, error) {
	var level entity.StockLevel
	err := r.store.with(ctx, func(st *state) error {
		level = entity.ProjectStock(productID, st.movements, asOf)
		return nil
	})
	return level, err
}

// StockLevels implements inventory.MovementRepository.
func (r *MovementRepo) StockLevels(ctx context.Context, productIDs []id.ID) (map[id.ID]int, error) {
	out := make(map[id.ID]int, len(productIDs))
	for _, pid := range productIDs {
		out[pid] = 0
	}
	err := r.store.with(ctx, func(st *state) error {
		for _, m := range st.movements {
			if _, ok := out[m.ProductID]; ok {
				out[m.ProductID] += m.Delta()
			}
		}
		return nil
	})
	return out, err
}

// ListForProduct implements inventory.MovementRepository.
func (r *MovementRepo) ListForProduct(ctx context.Context, productID id.ID, filter inventory.MovementFilter) (domain.ListResult[entity.InventoryMovement], error) {
	var matched []entity.InventoryMovement
	err := r.store.with(ctx, func(st *state) error {
		for _, m := range st.movements {
			if m.ProductID != productID {
				continue
			}
			if filter.Direction != nil && m.Direction != *filter.Direction {
				continue
			}
			if filter.Reason != "" && m.Reason != filter.Reason {
				continue
			}
			if !inRange(m.OccurredAt, filter.ListFilter) {
				continue
			}
			matched = append(matched, m)
		}
		return nil
	})
	if err != nil {
		return domain.ListResult[entity.InventoryMovement]{}, err
	}

	slices.SortStableFunc(matched, func(a, b entity.InventoryMovement) int {
		if c := b.OccurredAt.Compare(a.OccurredAt); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return domain.Page(matched, filter.ListFilter), nil
}

func inRange(t time.Time, f domain.ListFilter) bool {
	if f.From != nil && t.Before(*f.From) {
		return false
	}
	if f.To != nil && t.After(*f.To) {
		return false
	}
	return true
}
