package ports

import (
	"context"

	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Metrics contadores del motor de inventario. Lo implementa infrastructure/metrics.
type Metrics interface {
	MovementPosted(movementType string)
	MovementRejected(reason string)
	DispatchRecorded(state string)
	DispatchTransferFailed()
	TransferReconciled()
}

// StockCache caché de lectura de existencias. Debe invalidarse después de cada commit.
type StockCache interface {
	Get(ctx context.Context, key entity.StockKey) (decimal.Decimal, bool)
	Set(ctx context.Context, key entity.StockKey, qty decimal.Decimal)
	Invalidate(ctx context.Context, keys ...entity.StockKey)
}

// Locker candado distribuido. Acquire devuelve la función para liberarlo.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// NopMetrics no registra nada.
type NopMetrics struct{}

func (NopMetrics) MovementPosted(string)   {}
func (NopMetrics) MovementRejected(string) {}
func (NopMetrics) DispatchRecorded(string) {}
func (NopMetrics) DispatchTransferFailed() {}
func (NopMetrics) TransferReconciled()     {}

// NopStockCache nunca encuentra nada.
type NopStockCache struct{}

func (NopStockCache) Get(context.Context, entity.StockKey) (decimal.Decimal, bool) {
	return decimal.Zero, false
}
func (NopStockCache) Set(context.Context, entity.StockKey, decimal.Decimal) {}
func (NopStockCache) Invalidate(context.Context, ...entity.StockKey)        {}
