package requisition

import (
	"context"

	"github.com/jhoicas/bodegas-api/internal/application/inventory"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción con repositorios atados a ella.
type TxRunner interface {
	RunRequisition(ctx context.Context, fn func(
		reqRepo repository.RequisitionRepository,
		stockRepo repository.StockRepository,
	) error) error
}

// MovementPoster contabiliza la transferencia de un despacho. Lo implementa
// *inventory.MovementProcessor.
type MovementPoster interface {
	Post(ctx context.Context, in inventory.MovementInput) (*entity.Movement, error)
	FindByReference(ctx context.Context, referenceType, referenceID string) (*entity.Movement, error)
}

// QuantityResolver convierte presentaciones a unidad base.
type QuantityResolver = inventory.BaseQuantityResolver
