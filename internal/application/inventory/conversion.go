package inventory

import (
	"context"

	"github.com/jhoicas/bodegas-api/internal/domain"
	domaininv "github.com/jhoicas/bodegas-api/internal/domain/inventory"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// UnitConversionResolver traduce cantidades en presentación a unidad base consultando el catálogo.
type UnitConversionResolver struct {
	presentations repository.PresentationRepository
}

// NewUnitConversionResolver construye el resolver.
func NewUnitConversionResolver(presentations repository.PresentationRepository) *UnitConversionResolver {
	return &UnitConversionResolver{presentations: presentations}
}

// Resolve devuelve la cantidad base. Sin presentationID devuelve baseQty tal cual.
func (r *UnitConversionResolver) Resolve(ctx context.Context, itemID, presentationID string, presentationQty, baseQty decimal.Decimal) (decimal.Decimal, error) {
	if presentationID == "" {
		return baseQty, nil
	}
	if presentationQty.IsNegative() {
		return decimal.Zero, domain.NewValidationError("presentation_qty", "no puede ser negativa")
	}
	p, err := r.presentations.GetByID(ctx, presentationID)
	if err != nil {
		return decimal.Zero, err
	}
	return domaininv.ToBaseQuantity(itemID, p, presentationQty)
}
