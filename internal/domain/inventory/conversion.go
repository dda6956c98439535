package inventory

import (
	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// QuantityScale decimales con que se almacenan las cantidades (NUMERIC(18,4)).
const QuantityScale int32 = 4

// FitsScale indica si q se puede almacenar sin perder decimales.
func FitsScale(q decimal.Decimal) bool {
	return q.Equal(q.Round(QuantityScale))
}

// CheckLineScale rechaza cantidades de una línea con más decimales que QuantityScale.
func CheckLineScale(field string, qty, presentationQty decimal.Decimal) error {
	if !FitsScale(qty) {
		return domain.NewValidationError(field+".quantity", "máximo 4 decimales")
	}
	if !FitsScale(presentationQty) {
		return domain.NewValidationError(field+".presentation_qty", "máximo 4 decimales")
	}
	return nil
}

// ToBaseQuantity convierte una cantidad en presentación a unidad base:
// baseQty = presentationQty × multiplier, redondeado a QuantityScale. Función pura.
func ToBaseQuantity(itemID string, p *entity.PresentationUnit, presentationQty decimal.Decimal) (decimal.Decimal, error) {
	if p == nil || p.ItemID != itemID {
		return decimal.Zero, domain.ErrUnknownPresentation
	}
	if !p.Active {
		return decimal.Zero, domain.NewValidationError("presentation_id", "la presentación está inactiva")
	}
	if !p.Multiplier.IsPositive() {
		return decimal.Zero, domain.ErrInvalidConversionFactor
	}
	return presentationQty.Mul(p.Multiplier).Round(QuantityScale), nil
}
