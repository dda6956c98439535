package inventory

import (
	"context"

	"github.com/jhoicas/bodegas-api/internal/application/dto"
	"github.com/jhoicas/bodegas-api/internal/application/ports"
	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// StockQuery lecturas de existencias; no bloquea escritores.
type StockQuery struct {
	stock repository.StockRepository
	cache ports.StockCache
}

// NewStockQuery construye la consulta. cache puede ser nil.
func NewStockQuery(stock repository.StockRepository, cache ports.StockCache) *StockQuery {
	if cache == nil {
		cache = ports.NopStockCache{}
	}
	return &StockQuery{stock: stock, cache: cache}
}

// CurrentStock existencia del ítem en la bodega (0 si nunca tuvo movimientos).
func (q *StockQuery) CurrentStock(ctx context.Context, itemID, warehouseID string) (decimal.Decimal, error) {
	if itemID == "" || warehouseID == "" {
		return decimal.Zero, domain.NewValidationError("item_id/warehouse_id", "son requeridos")
	}
	key := entity.StockKey{ItemID: itemID, WarehouseID: warehouseID}
	if qty, ok := q.cache.Get(ctx, key); ok {
		return qty, nil
	}
	s, err := q.stock.Get(ctx, itemID, warehouseID)
	if err != nil {
		return decimal.Zero, err
	}
	q.cache.Set(ctx, key, s.Quantity)
	return s.Quantity, nil
}

// List existencias por ítem y/o bodega. Se exige al menos un filtro.
func (q *StockQuery) List(ctx context.Context, itemID, warehouseID string) (*dto.StockListResponse, error) {
	if itemID == "" && warehouseID == "" {
		return nil, domain.NewValidationError("item_id/warehouse_id", "se requiere al menos uno")
	}
	if itemID != "" && warehouseID != "" {
		qty, err := q.CurrentStock(ctx, itemID, warehouseID)
		if err != nil {
			return nil, err
		}
		return &dto.StockListResponse{Items: []dto.StockResponse{{ItemID: itemID, WarehouseID: warehouseID, Quantity: qty}}}, nil
	}
	list, err := q.stock.List(ctx, repository.StockFilter{ItemID: itemID, WarehouseID: warehouseID})
	if err != nil {
		return nil, err
	}
	out := &dto.StockListResponse{Items: make([]dto.StockResponse, 0, len(list))}
	for _, s := range list {
		out.Items = append(out.Items, dto.StockResponse{ItemID: s.ItemID, WarehouseID: s.WarehouseID, Quantity: s.Quantity})
	}
	return out, nil
}
