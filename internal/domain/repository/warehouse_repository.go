package repository

import (
	"context"

	"github.com/jhoicas/bodegas-api/internal/domain/entity"
)

// WarehouseRepository bodegas. No hay borrado: una bodega se desactiva con Update.
// GetByID devuelve nil, nil si no existe.
type WarehouseRepository interface {
	Create(ctx context.Context, warehouse *entity.Warehouse) error
	GetByID(ctx context.Context, id string) (*entity.Warehouse, error)
	Update(ctx context.Context, warehouse *entity.Warehouse) error
	List(ctx context.Context, filter WarehouseFilter) ([]*entity.Warehouse, error)
}

// WarehouseFilter Active nil trae activas e inactivas.
type WarehouseFilter struct {
	Active            *bool
	ResponsibleUserID string
	Limit             int
	Offset            int
}

// Matches aplica el filtro a una bodega ya cargada.
func (f WarehouseFilter) Matches(w *entity.Warehouse) bool {
	if f.Active != nil && w.Active != *f.Active {
		return false
	}
	return f.ResponsibleUserID == "" || w.ResponsibleUserID == f.ResponsibleUserID
}
