package inventory

import (
	"context"

	"github.com/jhoicas/bodegas-api/internal/application/dto"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
)

// PostFromRequest adapta el request HTTP a Post(ctx, MovementInput).
// Las referencias a documentos solo las asignan otros casos de uso (ej. despachos).
func (p *MovementProcessor) PostFromRequest(ctx context.Context, actorID string, in dto.PostMovementRequest) (*dto.MovementResponse, error) {
	input := MovementInput{
		Type:                   in.Type,
		SourceWarehouseID:      in.SourceWarehouseID,
		DestinationWarehouseID: in.DestinationWarehouseID,
		ActorID:                actorID,
		Reason:                 in.Reason,
		Notes:                  in.Notes,
		Lines:                  make([]MovementLineInput, 0, len(in.Lines)),
	}
	for _, l := range in.Lines {
		input.Lines = append(input.Lines, MovementLineInput{
			ItemID:          l.ItemID,
			Quantity:        l.Quantity,
			PresentationID:  l.PresentationID,
			PresentationQty: l.PresentationQty,
		})
	}
	mov, err := p.Post(ctx, input)
	if err != nil {
		return nil, err
	}
	return ToMovementResponse(mov), nil
}

// ToMovementResponse convierte un movimiento a su DTO.
func ToMovementResponse(m *entity.Movement) *dto.MovementResponse {
	if m == nil {
		return nil
	}
	out := &dto.MovementResponse{
		ID:                     m.ID,
		Type:                   string(m.Type),
		SourceWarehouseID:      m.SourceWarehouseID,
		DestinationWarehouseID: m.DestinationWarehouseID,
		ActorID:                m.ActorID,
		Reason:                 m.Reason,
		Notes:                  m.Notes,
		ReferenceType:          m.ReferenceType,
		ReferenceID:            m.ReferenceID,
		CreatedAt:              m.CreatedAt,
		Lines:                  make([]dto.MovementLineResponse, 0, len(m.Lines)),
	}
	for _, l := range m.Lines {
		out.Lines = append(out.Lines, dto.MovementLineResponse{
			ID:              l.ID,
			Seq:             l.Seq,
			ItemID:          l.ItemID,
			Quantity:        l.Quantity,
			Direction:       l.Direction,
			PresentationID:  l.PresentationID,
			PresentationQty: l.PresentationQty,
			UnitCost:        l.UnitCost,
		})
	}
	return out
}
