package repository

import (
	"context"

	"github.com/jhoicas/bodegas-api/internal/domain/entity"
)

// RequisitionRepository define el puerto de persistencia para requisiciones y sus despachos.
type RequisitionRepository interface {
	Create(ctx context.Context, r *entity.Requisition) error
	GetByID(ctx context.Context, id string) (*entity.Requisition, error)
	// GetForUpdate bloquea la requisición hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Requisition, error)
	// Update persiste cabecera y cantidades despachadas. Rechaza con domain.ErrConflict
	// cualquier disminución de DispatchedQty.
	Update(ctx context.Context, r *entity.Requisition) error
	List(ctx context.Context, filter RequisitionFilter) ([]*entity.Requisition, error)
	// Count ignora Limit y Offset.
	Count(ctx context.Context, filter RequisitionFilter) (int, error)

	CreateDispatch(ctx context.Context, d *entity.RequisitionDispatch) error
	GetDispatch(ctx context.Context, id string) (*entity.RequisitionDispatch, error)
	SetDispatchMovement(ctx context.Context, dispatchID, movementID string) error
	// ListUnreconciledDispatches despachos cuya transferencia (referencia DESPACHO/<id>) no existe.
	ListUnreconciledDispatches(ctx context.Context) ([]*entity.RequisitionDispatch, error)
}

// RequisitionFilter filtro de listado; campos vacíos no filtran.
type RequisitionFilter struct {
	State                  entity.RequisitionState
	RequesterID            string
	SourceWarehouseID      string
	DestinationWarehouseID string
	Limit                  int
	Offset                 int
}
