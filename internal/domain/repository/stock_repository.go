package repository

import (
	"context"

	"github.com/jhoicas/bodegas-api/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar existencias por ítem+bodega.
// Usado dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	// Get devuelve el registro o uno en cero si no existe.
	Get(ctx context.Context, itemID, warehouseID string) (*entity.Stock, error)
	// GetForUpdate igual que Get pero bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, itemID, warehouseID string) (*entity.Stock, error)
	Upsert(ctx context.Context, stock *entity.Stock) error
	List(ctx context.Context, filter StockFilter) ([]*entity.Stock, error)
}

// StockFilter filtro de listado; campos vacíos no filtran.
type StockFilter struct {
	ItemID      string
	WarehouseID string
}
