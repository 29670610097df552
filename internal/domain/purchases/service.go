package purchases

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"retailops/internal/core/apperror"
	"retailops/internal/core/entity"
	"retailops/internal/core/id"
	"retailops/internal/core/tx"
	"retailops/internal/core/types"
	"retailops/internal/domain"
	"retailops/internal/domain/catalog"
	"retailops/internal/domain/events"
	"retailops/internal/domain/inventory"
	"retailops/pkg/logger"
)

// OpRecordPurchase is the operation name reported to the observer.
const OpRecordPurchase = "record_purchase"

// LineInput is one received line.
type LineInput struct {
	ProductID id.ID
	Quantity  int
	UnitCost  decimal.Decimal
}

// RecordInput is a purchase request.
type RecordInput struct {
	SupplierID id.ID
	Lines      []LineInput
	Currency   string
}

// RecordResult is the persisted order and the ledger entries it produced.
type RecordResult struct {
	Purchase  *PurchaseOrder             `json:"purchase"`
	Movements []entity.InventoryMovement `json:"movements"`
}

// Service records and reads purchase orders.
type Service struct {
	txManager tx.Manager
	products  catalog.ProductRepository
	suppliers catalog.SupplierRepository
	purchases Repository
	movements inventory.MovementRepository
	publisher events.Publisher
	observer  domain.Observer
	now       func() time.Time
}

// Config wires a Service. Publisher and Observer are optional.
type Config struct {
	TxManager tx.Manager
	Products  catalog.ProductRepository
	Suppliers catalog.SupplierRepository
	Purchases Repository
	Movements inventory.MovementRepository
	Publisher events.Publisher
	Observer  domain.Observer
}

// NewService creates a purchases service.
func NewService(cfg Config) *Service {
	s := &Service{
		txManager: cfg.TxManager,
		products:  cfg.Products,
		suppliers: cfg.Suppliers,
		purchases: cfg.Purchases,
		movements: cfg.Movements,
		publisher: cfg.Publisher,
		observer:  cfg.Observer,
		now:       func() time.Time { return time.Now().UTC() },
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.observer == nil {
		s.observer = domain.NopObserver{}
	}
	return s
}

// Record stores a received purchase order and writes one incoming movement
// per line. Incoming stock cannot oversell, so products are read without the
// version fence sales use.
func (s *Service) Record(ctx context.Context, in RecordInput) (res *RecordResult, err error) {
	start := time.Now()
	defer func() { s.observer.ObserveOperation(OpRecordPurchase, err, time.Since(start)) }()

	if id.IsNil(in.SupplierID) {
		return nil, apperror.NewValidation("Supplier is required").WithDetail("field", "supplierId")
	}
	if len(in.Lines) == 0 {
		return nil, apperror.NewValidation("Purchase requires at least one line item").WithDetail("field", "lines")
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		supplier, err := s.suppliers.GetByID(ctx, in.SupplierID)
		if err != nil {
			return err
		}
		if !supplier.Active {
			return apperror.NewValidation("Supplier is inactive").WithDetail("supplier_id", supplier.ID.String())
		}

		order, err := NewPurchaseOrder(supplier.ID, in.Currency, s.now())
		if err != nil {
			return err
		}

		checked := make(map[id.ID]struct{}, len(in.Lines))
		for i, line := range in.Lines {
			if id.IsNil(line.ProductID) {
				return apperror.NewValidation("product_id is required").WithDetail("line", i)
			}
			if line.Quantity <= 0 {
				return apperror.NewValidation("Quantity must be positive").WithDetail("line", i)
			}
			if !types.RoundAmount(line.UnitCost).IsPositive() {
				return apperror.NewValidation("Unit cost must be positive").WithDetail("line", i)
			}
			if _, ok := checked[line.ProductID]; !ok {
				product, err := s.products.GetByID(ctx, line.ProductID, false)
				if err != nil {
					return err
				}
				if !product.Active {
					return apperror.NewValidation("Product is inactive").WithDetail("product_id", product.ID.String())
				}
				checked[line.ProductID] = struct{}{}
			}
			if _, err := order.AddLine(line.ProductID, line.Quantity, line.UnitCost); err != nil {
				return err
			}
		}
		order.MarkReceived(order.CreatedAt)

		movements, err := order.GenerateMovements()
		if err != nil {
			return err
		}

		if err := s.purchases.AddPurchase(ctx, order); err != nil {
			return fmt.Errorf("add purchase: %w", err)
		}
		if err := s.movements.Add(ctx, movements...); err != nil {
			return fmt.Errorf("add movements: %w", err)
		}

		total := order.TotalAmount()
		if err := s.publisher.Publish(ctx, events.Event{
			AggregateType: events.AggregatePurchase,
			AggregateID:   order.ID,
			EventType:     events.TypePurchaseRecorded,
			OccurredAt:    order.CreatedAt,
			Payload: events.PurchaseRecorded{
				PurchaseID:  order.ID,
				SupplierID:  order.SupplierID,
				TotalAmount: total.Amount().StringFixed(2),
				Currency:    order.Currency,
				ItemCount:   len(order.Items),
			},
		}); err != nil {
			return fmt.Errorf("publish purchase recorded: %w", err)
		}

		res = &RecordResult{Purchase: order, Movements: movements}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase recorded",
		"purchase_id", res.Purchase.ID,
		"supplier_id", res.Purchase.SupplierID,
		"items", len(res.Purchase.Items),
		"total", res.Purchase.TotalAmount().String(),
	)
	return res, nil
}

// GetByID returns a recorded purchase order.
func (s *Service) GetByID(ctx context.Context, purchaseID id.ID) (*PurchaseOrder, error) {
	return s.purchases.GetByID(ctx, purchaseID)
}

// List returns purchase orders newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*PurchaseOrder], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.purchases.List(ctx, filter)
}
