package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/bodegas-api/internal/application/ports"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/pkg/logger"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

var _ ports.StockCache = (*StockCache)(nil)

// invalidated marca una clave recién invalidada. Mientras exista, Set no escribe: una lectura
// hecha antes del commit no puede volver a poblar la caché con el valor viejo.
const invalidated = "-"

// maxInvalidationHold tope de vida de la marca de invalidación.
const maxInvalidationHold = 5 * time.Second

// StockCache caché de lectura de existencias. Los errores de Redis se registran y se tratan
// como fallo de caché: la fuente de verdad es siempre la base de datos.
type StockCache struct {
	rdb  goredis.UniversalClient
	ttl  time.Duration
	hold time.Duration
	log  *logger.Logger
}

// NewStockCache construye la caché con la vida de cada clave.
func NewStockCache(rdb goredis.UniversalClient, ttl time.Duration, log *logger.Logger) *StockCache {
	if log == nil {
		log = logger.Nop()
	}
	hold := maxInvalidationHold
	if ttl > 0 && ttl < hold {
		hold = ttl
	}
	return &StockCache{rdb: rdb, ttl: ttl, hold: hold, log: log}
}

func stockKey(k entity.StockKey) string {
	return fmt.Sprintf("stock:%s:%s", k.ItemID, k.WarehouseID)
}

// Get devuelve la existencia en caché, si existe.
func (c *StockCache) Get(ctx context.Context, key entity.StockKey) (decimal.Decimal, bool) {
	raw, err := c.rdb.Get(ctx, stockKey(key)).Result()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warn().Err(err).Str("key", stockKey(key)).Msg("lectura de caché fallida")
		}
		return decimal.Zero, false
	}
	if raw == invalidated {
		return decimal.Zero, false
	}
	qty, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return qty, true
}

// Set guarda la existencia con TTL solo si la clave no existe (SET NX).
func (c *StockCache) Set(ctx context.Context, key entity.StockKey, qty decimal.Decimal) {
	if c.ttl <= 0 {
		return
	}
	if err := c.rdb.SetNX(ctx, stockKey(key), qty.String(), c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", stockKey(key)).Msg("escritura de caché fallida")
	}
}

// Invalidate reemplaza las claves afectadas por un movimiento con la marca de invalidación.
func (c *StockCache) Invalidate(ctx context.Context, keys ...entity.StockKey) {
	if len(keys) == 0 {
		return
	}
	names := make([]string, 0, len(keys))
	_, err := c.rdb.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, k := range keys {
			name := stockKey(k)
			names = append(names, name)
			pipe.Set(ctx, name, invalidated, c.hold)
		}
		return nil
	})
	if err != nil {
		c.log.Warn().Err(err).Strs("keys", names).Msg("invalidación de caché fallida")
	}
}
