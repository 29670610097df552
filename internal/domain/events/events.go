// Package events defines the notifications emitted when a sale, purchase or
// return is recorded.
package events

import (
	"context"
	"sync"
	"time"

	"retailops/internal/core/id"
)

// Event types.
const (
	TypeSaleRecorded     = "sale.recorded"
	TypePurchaseRecorded = "purchase.recorded"
	TypeReturnRecorded   = "return.recorded"
)

// Aggregate types.
const (
	AggregateSale     = "sale"
	AggregatePurchase = "purchase_order"
	AggregateReturn   = "return"
)

// Event is a fact about a recorded aggregate.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	OccurredAt    time.Time
	Payload       any
}

// Publisher hands events to whatever delivers them. Services call Publish
// inside their unit of work, so a transactional publisher keeps the event
// and the recorded aggregate together.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// SaleRecorded is the payload of TypeSaleRecorded.
type SaleRecorded struct {
	SaleID      id.ID   `json:"saleId"`
	TotalAmount string  `json:"totalAmount"`
	Currency    string  `json:"currency"`
	CustomerID  *id.ID  `json:"customerId,omitempty"`
	ItemCount   int     `json:"itemCount"`
	Products    []id.ID `json:"products"`
}

// PurchaseRecorded is the payload of TypePurchaseRecorded.
type PurchaseRecorded struct {
	PurchaseID  id.ID  `json:"purchaseId"`
	SupplierID  id.ID  `json:"supplierId"`
	TotalAmount string `json:"totalAmount"`
	Currency    string `json:"currency"`
	ItemCount   int    `json:"itemCount"`
}

// ReturnRecorded is the payload of TypeReturnRecorded.
type ReturnRecorded struct {
	ReturnID    id.ID  `json:"returnId"`
	SaleID      id.ID  `json:"saleId"`
	TotalAmount string `json:"totalAmount"`
	Currency    string `json:"currency"`
	ItemCount   int    `json:"itemCount"`
}

// Handler reacts to a delivered event.
type Handler func(ctx context.Context, e Event) error

// Dispatcher is an in-process Publisher that calls subscribed handlers
// synchronously, in subscription order. The first handler error is returned.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string][]Handler)}
}

// Subscribe registers h for eventType. "*" receives every event.
func (d *Dispatcher) Subscribe(eventType string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], h)
}

// Publish implements Publisher.
func (d *Dispatcher) Publish(ctx context.Context, events ...Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, e := range events {
		for _, h := range d.handlers[e.EventType] {
			if err := h(ctx, e); err != nil {
				return err
			}
		}
		for _, h := range d.handlers["*"] {
			if err := h(ctx, e); err != nil {
				return err
			}
		}
	}
	return nil
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, ...Event) error { return nil }
