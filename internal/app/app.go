// Package app wires configuration, storage and domain services into a
// runnable container shared by the binaries under cmd/.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"retailops/internal/config"
	"retailops/internal/core/tx"
	"retailops/internal/domain"
	"retailops/internal/domain/catalog"
	"retailops/internal/domain/events"
	"retailops/internal/domain/inventory"
	"retailops/internal/domain/purchases"
	"retailops/internal/domain/returns"
	"retailops/internal/domain/sales"
	"retailops/internal/infrastructure/http/v1/handlers"
	"retailops/internal/infrastructure/idempotency"
	"retailops/internal/infrastructure/metrics"
	"retailops/internal/infrastructure/storage/memory"
	"retailops/internal/infrastructure/storage/postgres"
	"retailops/internal/infrastructure/storage/postgres/catalog_repo"
	"retailops/internal/infrastructure/storage/postgres/document_repo"
	"retailops/internal/infrastructure/storage/postgres/register_repo"
	"retailops/pkg/logger"
)

// App holds the wired services. Close releases every connection it opened.
type App struct {
	Config  *config.Config
	Log     *logger.Logger
	Metrics *metrics.Metrics

	// Pool is nil with memory storage.
	Pool      *postgres.Pool
	TxManager tx.Manager

	Products  catalog.ProductRepository
	Customers catalog.CustomerRepository
	Suppliers catalog.SupplierRepository

	Sales     *sales.Service
	Purchases *purchases.Service
	Returns   *returns.Service
	Inventory *inventory.Service

	// Idempotency is nil when disabled.
	Idempotency  idempotency.Store
	HealthChecks map[string]handlers.Pinger

	closers []func()
}

type repositories struct {
	txManager tx.Manager
	products  catalog.ProductRepository
	customers catalog.CustomerRepository
	suppliers catalog.SupplierRepository
	movements inventory.MovementRepository
	sales     sales.Repository
	purchases purchases.Repository
	returns   returns.Repository
	publisher events.Publisher
}

// New builds an App for cfg.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{
		Config:       cfg,
		Log:          log,
		Metrics:      metrics.New("retailops"),
		HealthChecks: map[string]handlers.Pinger{},
	}

	var repos repositories
	switch cfg.App.Storage {
	case config.StorageMemory:
		repos = a.memoryRepositories()
	case config.StoragePostgres:
		r, err := a.postgresRepositories(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
		repos = r
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.App.Storage)
	}

	if err := a.openIdempotency(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.TxManager = repos.txManager
	a.Products = repos.products
	a.Customers = repos.customers
	a.Suppliers = repos.suppliers

	var observer domain.Observer = a.Metrics
	a.Sales = sales.NewService(sales.Config{
		TxManager: repos.txManager,
		Products:  repos.products,
		Customers: repos.customers,
		Sales:     repos.sales,
		Movements: repos.movements,
		Publisher: repos.publisher,
		Observer:  observer,
	})
	a.Purchases = purchases.NewService(purchases.Config{
		TxManager: repos.txManager,
		Products:  repos.products,
		Suppliers: repos.suppliers,
		Purchases: repos.purchases,
		Movements: repos.movements,
		Publisher: repos.publisher,
		Observer:  observer,
	})
	a.Returns = returns.NewService(returns.Config{
		TxManager: repos.txManager,
		Sales:     repos.sales,
		Returns:   repos.returns,
		Movements: repos.movements,
		Publisher: repos.publisher,
		Observer:  observer,
	})
	a.Inventory = inventory.NewService(inventory.Config{
		TxManager: repos.txManager,
		Products:  repos.products,
		Movements: repos.movements,
		Observer:  observer,
	})
	return a, nil
}

func (a *App) memoryRepositories() repositories {
	store := memory.NewStore()

	dispatcher := events.NewDispatcher()
	dispatcher.Subscribe("*", func(ctx context.Context, e events.Event) error {
		logger.Debug(ctx, "domain event", "event_type", e.EventType, "aggregate_id", e.AggregateID)
		return nil
	})

	a.Log.Warn("using in-memory storage; data is lost on restart")
	return repositories{
		txManager: store,
		products:  store.Products(),
		customers: store.Customers(),
		suppliers: store.Suppliers(),
		movements: store.Movements(),
		sales:     store.Sales(),
		purchases: store.Purchases(),
		returns:   store.Returns(),
		publisher: dispatcher,
	}
}

func (a *App) postgresRepositories(ctx context.Context) (repositories, error) {
	pgCfg := a.Config.Postgres
	poolCfg := postgres.DefaultPoolConfig(pgCfg.DSN)
	poolCfg.MaxConns = int32(pgCfg.MaxConns)
	poolCfg.MinConns = int32(pgCfg.MinConns)
	poolCfg.MaxConnLifetime = pgCfg.MaxConnLifetime

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return repositories{}, fmt.Errorf("connect postgres: %w", err)
	}
	a.Pool = pool
	a.closers = append(a.closers, pool.Close)
	a.HealthChecks["database"] = pool

	if pgCfg.ApplySchema {
		if err := postgres.ApplySchema(ctx, pool); err != nil {
			return repositories{}, fmt.Errorf("apply schema: %w", err)
		}
		a.Log.Info("database schema applied")
	}

	txOpts := postgres.DefaultTxOptions()
	if pgCfg.StatementTimeout > 0 {
		txOpts.StatementTimeout = pgCfg.StatementTimeout
	}
	txManager := postgres.NewTxManager(pool).WithOptions(txOpts)
	return repositories{
		txManager: txManager,
		products:  catalog_repo.NewProductRepo(txManager),
		customers: catalog_repo.NewCustomerRepo(txManager),
		suppliers: catalog_repo.NewSupplierRepo(txManager),
		movements: register_repo.NewMovementRepo(txManager),
		sales:     document_repo.NewSaleRepo(txManager),
		purchases: document_repo.NewPurchaseRepo(txManager),
		returns:   document_repo.NewReturnRepo(txManager),
		publisher: postgres.NewOutboxPublisher(txManager),
	}, nil
}

func (a *App) openIdempotency(ctx context.Context) error {
	cfg := a.Config.Idempotency
	switch cfg.Backend {
	case config.IdempotencyNone, "":
		return nil
	case config.IdempotencyRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     a.Config.Redis.Addr,
			Password: a.Config.Redis.Password,
			DB:       a.Config.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return fmt.Errorf("connect redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.HealthChecks["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		a.Idempotency = idempotency.NewRedisStore(client, cfg.TTL)
	case config.IdempotencyPostgres:
		if a.Pool == nil {
			return fmt.Errorf("postgres idempotency requires postgres storage")
		}
		a.Idempotency = postgres.NewIdempotencyStore(postgres.NewTxManager(a.Pool), cfg.TTL)
	default:
		return fmt.Errorf("unknown idempotency backend %q", cfg.Backend)
	}
	a.Log.Infow("idempotency enabled", "backend", cfg.Backend, "ttl", cfg.TTL)
	return nil
}

// Close releases connections in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
