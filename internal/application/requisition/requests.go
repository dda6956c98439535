package requisition

import (
	"errors"

	"github.com/jhoicas/bodegas-api/internal/application/dto"
	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
)

// WarningDispatchRecordedMovementFailed código de la advertencia de despacho sin transferencia.
const WarningDispatchRecordedMovementFailed = "DISPATCH_RECORDED_MOVEMENT_FAILED"

// CreateInputFromRequest adapta el body HTTP.
func CreateInputFromRequest(requesterID string, req dto.CreateRequisitionRequest) CreateInput {
	return CreateInput{
		RequesterID:            requesterID,
		SourceWarehouseID:      req.SourceWarehouseID,
		DestinationWarehouseID: req.DestinationWarehouseID,
		Reason:                 req.Reason,
		Notes:                  req.Notes,
		Lines:                  linesFromRequest(req.Lines),
	}
}

// DispatchInputFromRequest adapta el body HTTP.
func DispatchInputFromRequest(requisitionID, dispatcherID string, req dto.DispatchRequisitionRequest) DispatchInput {
	return DispatchInput{
		RequisitionID: requisitionID,
		DispatcherID:  dispatcherID,
		Notes:         req.Notes,
		Lines:         linesFromRequest(req.Lines),
	}
}

func linesFromRequest(in []dto.RequisitionLineRequest) []LineInput {
	out := make([]LineInput, 0, len(in))
	for _, l := range in {
		out = append(out, LineInput{
			ItemID:          l.ItemID,
			Quantity:        l.Quantity,
			PresentationID:  l.PresentationID,
			PresentationQty: l.PresentationQty,
		})
	}
	return out
}

// ToRequisitionResponse convierte la entidad a DTO.
func ToRequisitionResponse(r *entity.Requisition) *dto.RequisitionResponse {
	out := &dto.RequisitionResponse{
		ID:                     r.ID,
		RequesterID:            r.RequesterID,
		SourceWarehouseID:      r.SourceWarehouseID,
		DestinationWarehouseID: r.DestinationWarehouseID,
		State:                  string(r.State),
		Reason:                 r.Reason,
		Notes:                  r.Notes,
		RequestedAt:            r.RequestedAt,
		ApprovedAt:             r.ApprovedAt,
		ApprovedBy:             r.ApprovedBy,
		DispatchedAt:           r.DispatchedAt,
		DispatchedBy:           r.DispatchedBy,
		DispatchNotes:          r.DispatchNotes,
		RejectedAt:             r.RejectedAt,
		RejectedBy:             r.RejectedBy,
		RejectionReason:        r.RejectionReason,
		CancelledAt:            r.CancelledAt,
		CancelledBy:            r.CancelledBy,
		CancellationReason:     r.CancellationReason,
		Lines:                  make([]dto.RequisitionLineResponse, 0, len(r.Lines)),
	}
	for _, l := range r.Lines {
		out.Lines = append(out.Lines, dto.RequisitionLineResponse{
			ID:              l.ID,
			ItemID:          l.ItemID,
			RequestedQty:    l.RequestedQty,
			DispatchedQty:   l.DispatchedQty,
			PendingQty:      l.Pending(),
			PresentationID:  l.PresentationID,
			PresentationQty: l.PresentationQty,
		})
	}
	return out
}

// ToDispatchResponse convierte el resultado del despacho a DTO.
func ToDispatchResponse(res *DispatchResult) *dto.DispatchResponse {
	out := &dto.DispatchResponse{
		RequisitionID: res.Requisition.ID,
		State:         string(res.Requisition.State),
		DispatchID:    res.DispatchID,
		MovementID:    res.MovementID,
	}
	if res.Warning != nil {
		code := "WARNING"
		if errors.Is(res.Warning, domain.ErrDispatchRecordedMovementFailed) {
			code = WarningDispatchRecordedMovementFailed
		}
		out.Warning = &dto.ErrorResponse{Code: code, Message: res.Warning.Error()}
	}
	return out
}

// ToPendingTransferResponse convierte un despacho sin transferencia a DTO.
func ToPendingTransferResponse(d *entity.RequisitionDispatch) dto.PendingTransferResponse {
	out := dto.PendingTransferResponse{
		DispatchID:    d.ID,
		RequisitionID: d.RequisitionID,
		DispatcherID:  d.DispatcherID,
		DispatchedAt:  d.DispatchedAt,
		Lines:         make([]dto.DispatchLineSummary, 0, len(d.Lines)),
	}
	for _, l := range d.Lines {
		out.Lines = append(out.Lines, dto.DispatchLineSummary{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	return out
}
