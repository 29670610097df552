package returns

import (
	"context"
	"fmt"
	"time"

	"retailops/internal/core/apperror"
	"retailops/internal/core/entity"
	"retailops/internal/core/id"
	"retailops/internal/core/tx"
	"retailops/internal/domain"
	"retailops/internal/domain/events"
	"retailops/internal/domain/inventory"
	"retailops/internal/domain/sales"
	"retailops/pkg/logger"
)

// OpRecordReturn is the operation name reported to the observer.
const OpRecordReturn = "record_return"

// LineInput returns quantity units of one sale line.
type LineInput struct {
	SaleItemID id.ID
	Quantity   int
}

// RecordInput is a return request.
type RecordInput struct {
	SaleID id.ID
	Lines  []LineInput
}

// RecordResult is the persisted return and the ledger entries it produced.
type RecordResult struct {
	Return    *Return                    `json:"return"`
	Movements []entity.InventoryMovement `json:"movements"`
}

// Service records and reads returns.
type Service struct {
	txManager tx.Manager
	sales     sales.Repository
	returns   Repository
	movements inventory.MovementRepository
	publisher events.Publisher
	observer  domain.Observer
	now       func() time.Time
}

// Config wires a Service. Publisher and Observer are optional.
type Config struct {
	TxManager tx.Manager
	Sales     sales.Repository
	Returns   Repository
	Movements inventory.MovementRepository
	Publisher events.Publisher
	Observer  domain.Observer
}

// NewService creates a returns service.
func NewService(cfg Config) *Service {
	s := &Service{
		txManager: cfg.TxManager,
		sales:     cfg.Sales,
		returns:   cfg.Returns,
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

type requestedLine struct {
	item     sales.SaleItem
	quantity int
}

// Record stores a return against a closed sale and writes one incoming
// movement per returned line.
//
// The sale is locked before previously returned quantities are read, so two
// returns against one sale cannot both see the same remaining quantity.
// Repeated lines for one sale item are merged, keeping first-seen order.
func (s *Service) Record(ctx context.Context, in RecordInput) (res *RecordResult, err error) {
	start := time.Now()
	defer func() { s.observer.ObserveOperation(OpRecordReturn, err, time.Since(start)) }()

	if id.IsNil(in.SaleID) {
		return nil, apperror.NewValidation("sale_id is required").WithDetail("field", "saleId")
	}
	if len(in.Lines) == 0 {
		return nil, apperror.NewValidation("Return requires at least one line item").WithDetail("field", "lines")
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.sales.GetForUpdate(ctx, in.SaleID)
		if err != nil {
			return err
		}
		if !sale.IsClosed() {
			return apperror.NewValidation("Return can only be recorded for closed sales")
		}
		if len(sale.Items) == 0 {
			return apperror.NewValidation("Sale has no items to return")
		}

		lines := make([]*requestedLine, 0, len(in.Lines))
		byItem := make(map[id.ID]*requestedLine, len(in.Lines))
		for i, line := range in.Lines {
			if id.IsNil(line.SaleItemID) {
				return apperror.NewValidation("sale_item_id is required").WithDetail("line", i)
			}
			if line.Quantity <= 0 {
				return apperror.NewValidation("Return quantity must be positive").WithDetail("line", i)
			}
			if req, ok := byItem[line.SaleItemID]; ok {
				req.quantity += line.Quantity
				continue
			}
			item, ok := sale.Item(line.SaleItemID)
			if !ok {
				return apperror.NewValidation(fmt.Sprintf("Sale item %s not found on sale", line.SaleItemID)).
					WithDetail("sale_item_id", line.SaleItemID.String())
			}
			req := &requestedLine{item: item, quantity: line.Quantity}
			byItem[line.SaleItemID] = req
			lines = append(lines, req)
		}

		itemIDs := make([]id.ID, 0, len(lines))
		for _, req := range lines {
			itemIDs = append(itemIDs, req.item.ID)
		}
		prior, err := s.returns.ReturnedQuantities(ctx, itemIDs)
		if err != nil {
			return fmt.Errorf("returned quantities: %w", err)
		}
		for _, req := range lines {
			remaining := req.item.Quantity - prior[req.item.ID]
			if req.quantity > remaining {
				return apperror.NewOverReturn(req.item.ID.String(), req.quantity, remaining)
			}
		}

		ret, err := NewReturn(sale.ID, sale.Currency, s.now())
		if err != nil {
			return err
		}
		for _, req := range lines {
			if _, err := ret.AddLine(req.item.ID, req.item.ProductID, req.quantity, req.item.UnitPrice.Amount()); err != nil {
				return err
			}
		}
		movements, err := ret.GenerateMovements()
		if err != nil {
			return err
		}

		if err := s.returns.AddReturn(ctx, ret); err != nil {
			return fmt.Errorf("add return: %w", err)
		}
		if err := s.movements.Add(ctx, movements...); err != nil {
			return fmt.Errorf("add movements: %w", err)
		}

		total := ret.TotalAmount()
		if err := s.publisher.Publish(ctx, events.Event{
			AggregateType: events.AggregateReturn,
			AggregateID:   ret.ID,
			EventType:     events.TypeReturnRecorded,
			OccurredAt:    ret.CreatedAt,
			Payload: events.ReturnRecorded{
				ReturnID:    ret.ID,
				SaleID:      ret.SaleID,
				TotalAmount: total.Amount().StringFixed(2),
				Currency:    ret.Currency,
				ItemCount:   len(ret.Items),
			},
		}); err != nil {
			return fmt.Errorf("publish return recorded: %w", err)
		}

		res = &RecordResult{Return: ret, Movements: movements}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "return recorded",
		"return_id", res.Return.ID,
		"sale_id", res.Return.SaleID,
		"items", len(res.Return.Items),
		"total", res.Return.TotalAmount().String(),
	)
	return res, nil
}

// GetByID returns a recorded return.
func (s *Service) GetByID(ctx context.Context, returnID id.ID) (*Return, error) {
	return s.returns.GetByID(ctx, returnID)
}

// List returns recorded returns newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Return], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.returns.List(ctx, filter)
}
