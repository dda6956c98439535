package inventory

import (
	"context"

	"github.com/jhoicas/bodegas-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// TxRunner abre una transacción y le pasa a fn los repositorios de movimientos
// y existencias ligados a ella. Si fn devuelve error no queda nada escrito.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
	) error) error
}

// BaseQuantityResolver lleva una línea a unidad base. Con presentationID vacío
// devuelve baseQty tal cual.
type BaseQuantityResolver interface {
	Resolve(ctx context.Context, itemID, presentationID string, presentationQty, baseQty decimal.Decimal) (decimal.Decimal, error)
}

var _ BaseQuantityResolver = (*UnitConversionResolver)(nil)
