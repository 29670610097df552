// Package main provides a CLI tool for seeding the database with a demo
// catalog and opening stock.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"retailops/internal/app"
	"retailops/internal/config"
	"retailops/internal/domain/catalog"
	"retailops/internal/domain/purchases"
	"retailops/pkg/logger"
)

type demoProduct struct {
	sku      string
	name     string
	retail   string
	purchase string
	opening  int
}

var demoProducts = []demoProduct{
	{"TEA-GRN-100", "Green tea 100g", "6.50", "3.20", 40},
	{"TEA-BLK-100", "Black tea 100g", "5.90", "2.80", 60},
	{"COF-BEAN-250", "Coffee beans 250g", "12.00", "7.10", 25},
	{"MUG-CER-01", "Ceramic mug", "9.99", "4.50", 15},
}

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize application", "error", err)
	}
	defer a.Close()

	if err := seed(ctx, a, log); err != nil {
		log.Fatalw("failed to seed demo data", "error", err)
	}
	log.Info("seeding complete")
}

func seed(ctx context.Context, a *app.App, log *logger.Logger) error {
	supplier := catalog.NewSupplier("Demo Wholesale Ltd")
	if err := a.Suppliers.Create(ctx, supplier); err != nil {
		return fmt.Errorf("create supplier: %w", err)
	}
	customer := catalog.NewCustomer("Walk-in customer")
	if err := a.Customers.Create(ctx, customer); err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	log.Infow("created counterparties", "supplier_id", supplier.ID, "customer_id", customer.ID)

	lines := make([]purchases.LineInput, 0, len(demoProducts))
	for _, d := range demoProducts {
		p, err := catalog.NewProduct(d.sku, d.name,
			decimal.RequireFromString(d.retail), decimal.RequireFromString(d.purchase), "USD")
		if err != nil {
			return fmt.Errorf("build product %s: %w", d.sku, err)
		}
		if err := a.Products.Create(ctx, p); err != nil {
			return fmt.Errorf("create product %s: %w", d.sku, err)
		}
		log.Infow("created product", "sku", p.SKU, "id", p.ID)
		lines = append(lines, purchases.LineInput{
			ProductID: p.ID,
			Quantity:  d.opening,
			UnitCost:  p.PurchasePrice,
		})
	}

	res, err := a.Purchases.Record(ctx, purchases.RecordInput{
		SupplierID: supplier.ID,
		Currency:   "USD",
		Lines:      lines,
	})
	if err != nil {
		return fmt.Errorf("record opening stock: %w", err)
	}
	log.Infow("recorded opening stock",
		"purchase_id", res.Purchase.ID,
		"movements", len(res.Movements),
		"total", res.Purchase.TotalAmount().String(),
	)
	return nil
}
