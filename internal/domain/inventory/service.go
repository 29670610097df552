package inventory

import (
	"context"
	"fmt"
	"time"

	"retailops/internal/core/apperror"
	"retailops/internal/core/entity"
	"retailops/internal/core/id"
	"retailops/internal/core/tx"
	"retailops/internal/domain"
	"retailops/internal/domain/catalog"
	"retailops/pkg/logger"
)

// Operation names reported to the observer.
const (
	OpRecordMovement = "record_movement"
)

// Service exposes stock queries and manual stock adjustments.
type Service struct {
	txManager tx.Manager
	products  catalog.ProductRepository
	movements MovementRepository
	observer  domain.Observer
}

// Config wires a Service.
type Config struct {
	TxManager tx.Manager
	Products  catalog.ProductRepository
	Movements MovementRepository
	Observer  domain.Observer // optional
}

// NewService creates an inventory service.
func NewService(cfg Config) *Service {
	obs := cfg.Observer
	if obs == nil {
		obs = domain.NopObserver{}
	}
	return &Service{
		txManager: cfg.TxManager,
		products:  cfg.Products,
		movements: cfg.Movements,
		observer:  obs,
	}
}

// StockLevel returns the quantity on hand of an existing product.
func (s *Service) StockLevel(ctx context.Context, productID id.ID, asOf *time.Time) (level entity.StockLevel, err error) {
	err = s.read(ctx, func(ctx context.Context) error {
		if _, err := s.products.GetByID(ctx, productID, false); err != nil {
			return err
		}
		level, err = s.movements.StockLevel(ctx, productID, asOf)
		if err != nil {
			return fmt.Errorf("stock level: %w", err)
		}
		return nil
	})
	return level, err
}

// read runs fn in a read-only transaction when the manager supports one, so
// the product check and the ledger query see one snapshot.
func (s *Service) read(ctx context.Context, fn func(ctx context.Context) error) error {
	if ro, ok := s.txManager.(tx.ReadOnlyManager); ok {
		return ro.ReadOnly(ctx, fn)
	}
	return fn(ctx)
}

// ListMovements returns the ledger of an existing product, newest first.
func (s *Service) ListMovements(ctx context.Context, productID id.ID, filter MovementFilter) (domain.ListResult[entity.InventoryMovement], error) {
	if filter.Direction != nil && !filter.Direction.Valid() {
		return domain.ListResult[entity.InventoryMovement]{}, apperror.NewValidation("invalid direction filter").
			WithDetail("field", "direction")
	}
	filter.ListFilter = filter.ListFilter.Normalize()

	var res domain.ListResult[entity.InventoryMovement]
	err := s.read(ctx, func(ctx context.Context) error {
		if _, err := s.products.GetByID(ctx, productID, false); err != nil {
			return err
		}
		var err error
		res, err = s.movements.ListForProduct(ctx, productID, filter)
		return err
	})
	return res, err
}

// RecordMovementInput is a manual stock adjustment.
type RecordMovementInput struct {
	ProductID  id.ID
	Quantity   int
	Direction  entity.Direction
	Reason     string
	Reference  string
	OccurredAt *time.Time
}

// RecordMovementResult is the appended entry and the stock level after it.
type RecordMovementResult struct {
	Movement entity.InventoryMovement `json:"movement"`
	Stock    entity.StockLevel        `json:"stock"`
}

// RecordMovement appends a manual adjustment. The product version is bumped
// like a sale does, so adjustments and sales on one product serialize.
// Outgoing adjustments are not checked against stock on hand.
func (s *Service) RecordMovement(ctx context.Context, in RecordMovementInput) (res *RecordMovementResult, err error) {
	start := time.Now()
	defer func() { s.observer.ObserveOperation(OpRecordMovement, err, time.Since(start)) }()

	var occurredAt time.Time
	if in.OccurredAt != nil {
		occurredAt = *in.OccurredAt
	}
	movement, err := entity.NewInventoryMovement(in.ProductID, in.Quantity, in.Direction, in.Reason, in.Reference, occurredAt)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		product, err := s.products.GetByID(ctx, in.ProductID, true)
		if err != nil {
			return err
		}
		expected := product.Version
		product.Touch()
		ok, err := s.products.Update(ctx, product, expected)
		if err != nil {
			return fmt.Errorf("update product version: %w", err)
		}
		if !ok {
			return apperror.NewConcurrentModification("Product", product.ID)
		}

		if err := s.movements.Add(ctx, movement); err != nil {
			return fmt.Errorf("add movement: %w", err)
		}

		level, err := s.movements.StockLevel(ctx, product.ID, nil)
		if err != nil {
			return fmt.Errorf("stock level: %w", err)
		}
		res = &RecordMovementResult{Movement: movement, Stock: level}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "inventory movement recorded",
		"movement_id", movement.ID,
		"product_id", movement.ProductID,
		"direction", movement.Direction,
		"quantity", movement.Quantity,
		"on_hand", res.Stock.QuantityOnHand,
	)
	return res, nil
}
