package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/bodegas-api/internal/application/dto"
	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// KardexQuery proyección de solo lectura de las líneas contabilizadas de un ítem.
type KardexQuery struct {
	movements repository.MovementRepository
}

// NewKardexQuery construye la consulta.
func NewKardexQuery(movements repository.MovementRepository) *KardexQuery {
	return &KardexQuery{movements: movements}
}

// KardexFilter ítem obligatorio; bodega y rango opcionales. Limit 0 = sin límite.
type KardexFilter struct {
	ItemID      string
	WarehouseID string
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// KardexPage entradas de la página y total antes de paginar.
type KardexPage struct {
	Entries []entity.KardexEntry
	Total   int
}

// List devuelve una entrada por (línea, bodega afectada) en orden cronológico, desempatando por
// orden de inserción. El saldo se acumula por bodega a partir del saldo anterior a From.
func (q *KardexQuery) List(ctx context.Context, f KardexFilter) (*KardexPage, error) {
	if f.ItemID == "" {
		return nil, domain.NewValidationError("item_id", "es requerido")
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, domain.NewValidationError("to", "debe ser posterior a from")
	}
	if f.Limit < 0 || f.Offset < 0 {
		return nil, domain.NewValidationError("limit/offset", "no pueden ser negativos")
	}

	balances := map[string]decimal.Decimal{}
	if f.From != nil {
		opening, err := q.movements.OpeningBalances(ctx, f.ItemID, f.WarehouseID, *f.From)
		if err != nil {
			return nil, err
		}
		for wh, qty := range opening {
			balances[wh] = qty
		}
	}
	lines, err := q.movements.ListPostedLines(ctx, repository.PostedLineFilter{
		ItemID:      f.ItemID,
		WarehouseID: f.WarehouseID,
		From:        f.From,
		To:          f.To,
	})
	if err != nil {
		return nil, err
	}

	entries := make([]entity.KardexEntry, 0, len(lines))
	for _, pl := range lines {
		m, l := pl.Movement, pl.Line
		for _, eff := range m.Effects(l) {
			if f.WarehouseID != "" && eff.WarehouseID != f.WarehouseID {
				continue
			}
			balances[eff.WarehouseID] = balances[eff.WarehouseID].Add(eff.Delta)
			entry := entity.KardexEntry{
				MovementID:      m.ID,
				LineID:          l.ID,
				Seq:             l.Seq,
				Type:            m.Type,
				Timestamp:       m.CreatedAt,
				ActorID:         m.ActorID,
				Reason:          m.Reason,
				ReferenceType:   m.ReferenceType,
				ReferenceID:     m.ReferenceID,
				ItemID:          l.ItemID,
				WarehouseID:     eff.WarehouseID,
				Direction:       eff.Direction,
				Quantity:        l.Quantity,
				Delta:           eff.Delta,
				Balance:         balances[eff.WarehouseID],
				PresentationID:  l.PresentationID,
				PresentationQty: l.PresentationQty,
				UnitCost:        l.UnitCost,
			}
			if m.Type == entity.MovementTypeTransferencia {
				entry.CounterpartWarehouseID = m.DestinationWarehouseID
				if eff.Direction == entity.DirectionIn {
					entry.CounterpartWarehouseID = m.SourceWarehouseID
				}
			}
			entries = append(entries, entry)
		}
	}

	page := &KardexPage{Total: len(entries)}
	if f.Offset >= len(entries) {
		page.Entries = []entity.KardexEntry{}
		return page, nil
	}
	entries = entries[f.Offset:]
	if f.Limit > 0 && f.Limit < len(entries) {
		entries = entries[:f.Limit]
	}
	page.Entries = entries
	return page, nil
}

// ToKardexResponse convierte una página del kardex a su DTO.
func ToKardexResponse(f KardexFilter, page *KardexPage) *dto.KardexResponse {
	out := &dto.KardexResponse{
		ItemID:      f.ItemID,
		WarehouseID: f.WarehouseID,
		Entries:     make([]dto.KardexEntryResponse, 0, len(page.Entries)),
		Page:        dto.PageResponse{Limit: f.Limit, Offset: f.Offset, Total: page.Total},
	}
	for _, e := range page.Entries {
		out.Entries = append(out.Entries, dto.KardexEntryResponse{
			MovementID:             e.MovementID,
			LineID:                 e.LineID,
			Seq:                    e.Seq,
			Type:                   string(e.Type),
			Timestamp:              e.Timestamp,
			ActorID:                e.ActorID,
			Reason:                 e.Reason,
			ReferenceType:          e.ReferenceType,
			ReferenceID:            e.ReferenceID,
			WarehouseID:            e.WarehouseID,
			CounterpartWarehouseID: e.CounterpartWarehouseID,
			Direction:              e.Direction,
			Quantity:               e.Quantity,
			Balance:                e.Balance,
			PresentationID:         e.PresentationID,
			PresentationQty:        e.PresentationQty,
			UnitCost:               e.UnitCost,
		})
	}
	return out
}
