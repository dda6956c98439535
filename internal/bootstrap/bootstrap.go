// Package bootstrap arma los casos de uso a partir de la configuración. Lo comparten
// la API y la CLI de reconciliación.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jhoicas/bodegas-api/internal/application/inventory"
	"github.com/jhoicas/bodegas-api/internal/application/ports"
	"github.com/jhoicas/bodegas-api/internal/application/requisition"
	"github.com/jhoicas/bodegas-api/internal/application/usecase"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
	"github.com/jhoicas/bodegas-api/internal/infrastructure/memory"
	"github.com/jhoicas/bodegas-api/internal/infrastructure/metrics"
	"github.com/jhoicas/bodegas-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/bodegas-api/internal/infrastructure/redis"
	"github.com/jhoicas/bodegas-api/pkg/config"
	"github.com/jhoicas/bodegas-api/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Container casos de uso listos para las interfaces (HTTP, CLI).
type Container struct {
	WarehouseUC       *usecase.WarehouseUseCase
	ItemUC            *usecase.ItemUseCase
	MovementProcessor *inventory.MovementProcessor
	StockQuery        *inventory.StockQuery
	KardexQuery       *inventory.KardexQuery
	Workflow          *requisition.Workflow
	Policy            requisition.Policy
	// Registry nil si las métricas están deshabilitadas.
	Registry *prometheus.Registry

	closers []func()
	checks  []func(context.Context) error
}

// Ready verifica las dependencias externas (PostgreSQL, Redis). Con DB_DRIVER=memory siempre nil.
func (c *Container) Ready(ctx context.Context) error {
	for _, check := range c.checks {
		if err := check(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close libera conexiones en orden inverso de apertura.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

type repos struct {
	items         repository.ItemRepository
	presentations repository.PresentationRepository
	warehouses    repository.WarehouseRepository
	stock         repository.StockRepository
	movements     repository.MovementRepository
	requisitions  repository.RequisitionRepository
	inventoryTx   inventory.TxRunner
	requisitionTx requisition.TxRunner
}

// Build abre la persistencia según cfg.DB.Driver, Redis si está configurado, y arma los casos de uso.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	if log == nil {
		log = logger.Nop()
	}
	c := &Container{}

	var r repos
	switch cfg.DB.Driver {
	case config.DriverMemory:
		store := memory.NewStore()
		tx := memory.NewTxRunner(store)
		r = repos{
			items:         store.Items(),
			presentations: store.Presentations(),
			warehouses:    store.Warehouses(),
			stock:         store.Stock(),
			movements:     store.Movements(),
			requisitions:  store.Requisitions(),
			inventoryTx:   tx,
			requisitionTx: tx,
		}
		log.Warn().Msg("DB_DRIVER=memory: los datos no persisten entre reinicios")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		c.closers = append(c.closers, pool.Close)
		c.checks = append(c.checks, pool.Ping)
		if cfg.DB.AutoMigrate {
			applied, err := postgres.Migrate(ctx, pool)
			if err != nil {
				c.Close()
				return nil, fmt.Errorf("migraciones: %w", err)
			}
			log.Info().Strs("applied", applied).Msg("migraciones aplicadas")
		}
		tx := postgres.NewTxRunner(pool)
		r = repos{
			items:         postgres.NewItemRepository(pool),
			presentations: postgres.NewPresentationRepository(pool),
			warehouses:    postgres.NewWarehouseRepository(pool),
			stock:         postgres.NewStockRepository(pool),
			movements:     postgres.NewMovementRepository(pool),
			requisitions:  postgres.NewRequisitionRepository(pool),
			inventoryTx:   tx,
			requisitionTx: tx,
		}
	}

	var (
		cache  ports.StockCache = ports.NopStockCache{}
		locker ports.Locker
	)
	if cfg.Redis.Enabled() {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("conexión a Redis: %w", err)
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		c.checks = append(c.checks, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		cache = infraredis.NewStockCache(rdb, cfg.Stock.CacheTTL, log.Component("redis"))
		locker = infraredis.NewLocker(rdb, cfg.Stock.DispatchLockTTL, log.Component("redis"))
		log.Info().Msg("Redis habilitado: caché de existencias y bloqueo de despacho")
	}

	var m ports.Metrics = ports.NopMetrics{}
	if cfg.Metrics.Enabled {
		c.Registry = prometheus.NewRegistry()
		c.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(c.Registry)
	}

	resolver := inventory.NewUnitConversionResolver(r.presentations)
	c.MovementProcessor = inventory.NewMovementProcessor(r.inventoryTx, r.items, r.warehouses, r.movements, resolver, log.Component("inventario")).
		WithStockCache(cache).
		WithMetrics(m)
	c.StockQuery = inventory.NewStockQuery(r.stock, cache)
	c.KardexQuery = inventory.NewKardexQuery(r.movements)
	c.Workflow = requisition.NewWorkflow(requisition.WorkflowDeps{
		TxRunner:     r.requisitionTx,
		Requisitions: r.requisitions,
		Items:        r.items,
		Warehouses:   r.warehouses,
		Resolver:     resolver,
		Movements:    c.MovementProcessor,
		Locker:       locker,
		Metrics:      m,
		Logger:       log.Component("requisiciones"),
	})
	c.Policy = requisition.NewRolePolicy(r.warehouses)
	c.WarehouseUC = usecase.NewWarehouseUseCase(r.warehouses)
	c.ItemUC = usecase.NewItemUseCase(r.items, r.presentations)
	return c, nil
}
