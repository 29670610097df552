package sales

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

// OpRecordSale is the operation name reported to the observer.
const OpRecordSale = "record_sale"

// LineInput is one requested sale line.
type LineInput struct {
	ProductID id.ID
	Quantity  int
	UnitPrice decimal.Decimal
}

// RecordInput is a sale request.
type RecordInput struct {
	Lines      []LineInput
	Currency   string
	CustomerID *id.ID
}

// RecordResult is the persisted sale and the ledger entries it produced.
type RecordResult struct {
	Sale      *Sale                      `json:"sale"`
	Movements []entity.InventoryMovement `json:"movements"`
}

// Service records and reads sales.
type Service struct {
	txManager tx.Manager
	products  catalog.ProductRepository
	customers catalog.CustomerRepository
	sales     Repository
	movements inventory.MovementRepository
	publisher events.Publisher
	observer  domain.Observer
	now       func() time.Time
}

// Config wires a Service. Publisher and Observer are optional.
type Config struct {
	TxManager tx.Manager
	Products  catalog.ProductRepository
	Customers catalog.CustomerRepository
	Sales     Repository
	Movements inventory.MovementRepository
	Publisher events.Publisher
	Observer  domain.Observer
}

// NewService creates a sales service.
func NewService(cfg Config) *Service {
	s := &Service{
		txManager: cfg.TxManager,
		products:  cfg.Products,
		customers: cfg.Customers,
		sales:     cfg.Sales,
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

func validateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return apperror.NewValidation("Sale requires at least one line item").WithDetail("field", "lines")
	}
	for i, line := range lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product_id is required").WithDetail("line", i)
		}
		if line.Quantity <= 0 {
			return apperror.NewValidation("Quantity must be positive").WithDetail("line", i)
		}
		if !types.RoundAmount(line.UnitPrice).IsPositive() {
			return apperror.NewValidation("Unit price must be positive").WithDetail("line", i)
		}
	}
	return nil
}

// Record closes a sale over the requested lines and writes one outgoing
// movement per line, all in one unit of work.
//
// Products are fenced in ascending ID order: each is loaded with a row lock
// and its version is bumped with a compare-and-swap, so two sales over the
// same product cannot both pass the fence for the same version. Stock is then
// checked against the ledger inside the same transaction. Losing the version
// race fails with a conflict; nothing is retried here.
func (s *Service) Record(ctx context.Context, in RecordInput) (res *RecordResult, err error) {
	start := time.Now()
	defer func() { s.observer.ObserveOperation(OpRecordSale, err, time.Since(start)) }()

	if err := validateLines(in.Lines); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sale, err := NewSale(in.Currency, nil)
		if err != nil {
			return err
		}

		if in.CustomerID != nil {
			customer, err := s.customers.GetByID(ctx, *in.CustomerID)
			if err != nil {
				return err
			}
			if !customer.Active {
				return apperror.NewValidation("Customer is inactive").WithDetail("customer_id", customer.ID.String())
			}
			customerID := customer.ID
			sale.CustomerID = &customerID
		}

		productIDs := make([]id.ID, 0, len(in.Lines))
		for _, line := range in.Lines {
			productIDs = append(productIDs, line.ProductID)
		}
		for _, pid := range id.SortedUnique(productIDs) {
			if err := s.fenceProduct(ctx, pid); err != nil {
				return err
			}
		}

		required := make(map[id.ID]int, len(in.Lines))
		order := make([]id.ID, 0, len(in.Lines))
		for _, line := range in.Lines {
			if _, err := sale.AddLine(line.ProductID, line.Quantity, line.UnitPrice); err != nil {
				return err
			}
			if _, seen := required[line.ProductID]; !seen {
				order = append(order, line.ProductID)
			}
			required[line.ProductID] += line.Quantity
		}

		onHand, err := s.movements.StockLevels(ctx, order)
		if err != nil {
			return fmt.Errorf("stock levels: %w", err)
		}
		for _, pid := range order {
			if onHand[pid] < required[pid] {
				return apperror.NewInsufficientStock(pid.String(), required[pid], onHand[pid])
			}
		}

		if err := sale.Close(s.now()); err != nil {
			return err
		}
		movements, err := sale.GenerateMovements()
		if err != nil {
			return err
		}

		if err := s.sales.AddSale(ctx, sale); err != nil {
			return fmt.Errorf("add sale: %w", err)
		}
		if err := s.movements.Add(ctx, movements...); err != nil {
			return fmt.Errorf("add movements: %w", err)
		}

		if err := s.publisher.Publish(ctx, saleRecorded(sale)); err != nil {
			return fmt.Errorf("publish sale recorded: %w", err)
		}

		res = &RecordResult{Sale: sale, Movements: movements}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale recorded",
		"sale_id", res.Sale.ID,
		"items", len(res.Sale.Items),
		"total", res.Sale.TotalAmount().String(),
	)
	return res, nil
}

// fenceProduct locks the product row and bumps its version.
func (s *Service) fenceProduct(ctx context.Context, productID id.ID) error {
	product, err := s.products.GetByID(ctx, productID, true)
	if err != nil {
		return err
	}
	if !product.Active {
		return apperror.NewValidation("Product is inactive").WithDetail("product_id", productID.String())
	}

	expected := product.Version
	product.Touch()
	ok, err := s.products.Update(ctx, product, expected)
	if err != nil {
		return fmt.Errorf("update product %s: %w", productID, err)
	}
	if !ok {
		return apperror.NewConcurrentModification("Product", productID)
	}
	return nil
}

func saleRecorded(sale *Sale) events.Event {
	products := make([]id.ID, 0, len(sale.Items))
	seen := make(map[id.ID]struct{}, len(sale.Items))
	for _, item := range sale.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		products = append(products, item.ProductID)
	}

	total := sale.TotalAmount()
	return events.Event{
		AggregateType: events.AggregateSale,
		AggregateID:   sale.ID,
		EventType:     events.TypeSaleRecorded,
		OccurredAt:    *sale.ClosedAt,
		Payload: events.SaleRecorded{
			SaleID:      sale.ID,
			TotalAmount: total.Amount().StringFixed(2),
			Currency:    sale.Currency,
			CustomerID:  sale.CustomerID,
			ItemCount:   len(sale.Items),
			Products:    products,
		},
	}
}

// GetByID returns a recorded sale.
func (s *Service) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	return s.sales.GetByID(ctx, saleID)
}

// List returns recorded sales newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.sales.List(ctx, filter)
}
