// Package catalog holds the reference data the recording services read:
// products, customers and suppliers. Maintaining this data is outside the
// service; only what recording needs is modelled here.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"retailops/internal/core/apperror"
	"retailops/internal/core/entity"
	"retailops/internal/core/id"
	"retailops/internal/core/types"
)

// Product is a sellable item. Version is bumped by every sale that touches
// the product and is the fence concurrent sales serialize on.
type Product struct {
	entity.BaseEntity
	entity.Timestamps

	SKU           string          `db:"sku" json:"sku"`
	Name          string          `db:"name" json:"name"`
	PriceRetail   decimal.Decimal `db:"price_retail" json:"priceRetail"`
	PurchasePrice decimal.Decimal `db:"purchase_price" json:"purchasePrice"`
	Currency      string          `db:"currency" json:"currency"`
	CategoryID    *id.ID          `db:"category_id" json:"categoryId,omitempty"`
	Active        bool            `db:"active" json:"active"`
}

// NewProduct creates an active product with version 0.
func NewProduct(sku, name string, retail, purchase decimal.Decimal, currency string) (*Product, error) {
	p := &Product{
		BaseEntity:    entity.NewBaseEntity(),
		Timestamps:    entity.NewTimestamps(),
		SKU:           strings.TrimSpace(sku),
		Name:          strings.TrimSpace(name),
		PriceRetail:   retail,
		PurchasePrice: purchase,
		Currency:      currency,
		Active:        true,
	}
	if err := p.Validate(context.Background()); err != nil {
		return nil, err
	}
	return p, nil
}

// Touch bumps the version and stamps UpdatedAt.
func (p *Product) Touch() {
	p.BaseEntity.Touch()
	p.UpdatedAt = time.Now().UTC()
}

// Validate implements entity.Validatable.
func (p *Product) Validate(_ context.Context) error {
	if p.SKU == "" {
		return apperror.NewValidation("sku is required").WithDetail("field", "sku")
	}
	if p.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if p.PriceRetail.IsNegative() || p.PurchasePrice.IsNegative() {
		return apperror.NewValidation("prices must not be negative").WithDetail("field", "priceRetail")
	}
	cur, err := types.NormalizeCurrency(p.Currency)
	if err != nil {
		return err
	}
	p.Currency = cur
	return nil
}

// Customer is an optional counterparty of a sale.
type Customer struct {
	entity.BaseEntity
	entity.Timestamps

	Name   string  `db:"name" json:"name"`
	Email  *string `db:"email" json:"email,omitempty"`
	Phone  *string `db:"phone" json:"phone,omitempty"`
	Active bool    `db:"active" json:"active"`
}

// NewCustomer creates an active customer.
func NewCustomer(name string) *Customer {
	return &Customer{
		BaseEntity: entity.NewBaseEntity(),
		Timestamps: entity.NewTimestamps(),
		Name:       strings.TrimSpace(name),
		Active:     true,
	}
}

// Supplier is the counterparty of a purchase.
type Supplier struct {
	entity.BaseEntity
	entity.Timestamps

	Name         string  `db:"name" json:"name"`
	ContactEmail *string `db:"contact_email" json:"contactEmail,omitempty"`
	Active       bool    `db:"active" json:"active"`
}

// NewSupplier creates an active supplier.
func NewSupplier(name string) *Supplier {
	return &Supplier{
		BaseEntity: entity.NewBaseEntity(),
		Timestamps: entity.NewTimestamps(),
		Name:       strings.TrimSpace(name),
		Active:     true,
	}
}
