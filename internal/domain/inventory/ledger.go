package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// StockLedger única vía de escritura de existencias. Opera sobre un StockRepository
// atado a la transacción del llamador: si Apply falla, el llamador debe hacer rollback.
type StockLedger struct {
	repo repository.StockRepository
	now  func() time.Time
}

// NewStockLedger construye el ledger sobre el repositorio de la transacción.
func NewStockLedger(repo repository.StockRepository) *StockLedger {
	return &StockLedger{repo: repo, now: time.Now}
}

// Lock bloquea las filas en orden (ítem, bodega) para que movimientos de varias líneas
// no se bloqueen mutuamente.
func (l *StockLedger) Lock(ctx context.Context, keys ...entity.StockKey) error {
	sorted := UniqueKeys(keys)
	for _, k := range sorted {
		if _, err := l.repo.GetForUpdate(ctx, k.ItemID, k.WarehouseID); err != nil {
			return err
		}
	}
	return nil
}

// Apply suma signedDelta a la existencia y devuelve la nueva cantidad.
// Falla con InsufficientStockError si el resultado sería negativo.
func (l *StockLedger) Apply(ctx context.Context, itemID, warehouseID string, signedDelta decimal.Decimal) (decimal.Decimal, error) {
	stock, err := l.repo.GetForUpdate(ctx, itemID, warehouseID)
	if err != nil {
		return decimal.Zero, err
	}
	next := stock.Quantity.Add(signedDelta)
	if next.IsNegative() {
		return decimal.Zero, &domain.InsufficientStockError{Shortfalls: []domain.StockShortfall{{
			ItemID:      itemID,
			WarehouseID: warehouseID,
			Requested:   signedDelta.Neg(),
			Available:   stock.Quantity,
		}}}
	}
	stock.ItemID = itemID
	stock.WarehouseID = warehouseID
	stock.Quantity = next
	stock.UpdatedAt = l.now()
	if err := l.repo.Upsert(ctx, stock); err != nil {
		return decimal.Zero, err
	}
	return next, nil
}

// Query devuelve la existencia actual (0 si no hay registro) sin bloquear.
func (l *StockLedger) Query(ctx context.Context, itemID, warehouseID string) (decimal.Decimal, error) {
	stock, err := l.repo.Get(ctx, itemID, warehouseID)
	if err != nil {
		return decimal.Zero, err
	}
	return stock.Quantity, nil
}

// Shortfalls verifica que cada bodega tenga al menos lo requerido y devuelve todos los faltantes.
func (l *StockLedger) Shortfalls(ctx context.Context, required map[entity.StockKey]decimal.Decimal) ([]domain.StockShortfall, error) {
	keys := make([]entity.StockKey, 0, len(required))
	for k := range required {
		keys = append(keys, k)
	}
	var out []domain.StockShortfall
	for _, k := range UniqueKeys(keys) {
		available, err := l.Query(ctx, k.ItemID, k.WarehouseID)
		if err != nil {
			return nil, err
		}
		if available.LessThan(required[k]) {
			out = append(out, domain.StockShortfall{
				ItemID:      k.ItemID,
				WarehouseID: k.WarehouseID,
				Requested:   required[k],
				Available:   available,
			})
		}
	}
	return out, nil
}

// UniqueKeys elimina duplicados y ordena.
func UniqueKeys(keys []entity.StockKey) []entity.StockKey {
	seen := make(map[entity.StockKey]struct{}, len(keys))
	out := make([]entity.StockKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
