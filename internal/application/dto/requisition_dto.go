package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequisitionLineRequest línea solicitada o despachada: quantity en unidad base
// o presentation_id + presentation_qty.
type RequisitionLineRequest struct {
	ItemID          string          `json:"item_id" validate:"required"`
	Quantity        decimal.Decimal `json:"quantity"`
	PresentationID  string          `json:"presentation_id,omitempty"`
	PresentationQty decimal.Decimal `json:"presentation_qty"`
}

// CreateRequisitionRequest body para POST /api/requisitions.
type CreateRequisitionRequest struct {
	SourceWarehouseID      string                   `json:"source_warehouse_id" validate:"required"`
	DestinationWarehouseID string                   `json:"destination_warehouse_id" validate:"required"`
	Reason                 string                   `json:"reason" validate:"max=500"`
	Notes                  string                   `json:"notes" validate:"max=2000"`
	Lines                  []RequisitionLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ReasonRequest body de rechazo y cancelación.
type ReasonRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// DispatchRequisitionRequest body para POST /api/requisitions/:id/dispatch.
type DispatchRequisitionRequest struct {
	Notes string                   `json:"notes" validate:"max=2000"`
	Lines []RequisitionLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// RequisitionLineResponse línea con lo solicitado, despachado y pendiente.
type RequisitionLineResponse struct {
	ID              string          `json:"id"`
	ItemID          string          `json:"item_id"`
	RequestedQty    decimal.Decimal `json:"requested_qty"`
	DispatchedQty   decimal.Decimal `json:"dispatched_qty"`
	PendingQty      decimal.Decimal `json:"pending_qty"`
	PresentationID  string          `json:"presentation_id,omitempty"`
	PresentationQty decimal.Decimal `json:"presentation_qty"`
}

// RequisitionResponse salida de una requisición.
type RequisitionResponse struct {
	ID                     string                    `json:"id"`
	RequesterID            string                    `json:"requester_id"`
	SourceWarehouseID      string                    `json:"source_warehouse_id"`
	DestinationWarehouseID string                    `json:"destination_warehouse_id"`
	State                  string                    `json:"state"`
	Reason                 string                    `json:"reason,omitempty"`
	Notes                  string                    `json:"notes,omitempty"`
	RequestedAt            time.Time                 `json:"requested_at"`
	ApprovedAt             *time.Time                `json:"approved_at,omitempty"`
	ApprovedBy             string                    `json:"approved_by,omitempty"`
	DispatchedAt           *time.Time                `json:"dispatched_at,omitempty"`
	DispatchedBy           string                    `json:"dispatched_by,omitempty"`
	DispatchNotes          string                    `json:"dispatch_notes,omitempty"`
	RejectedAt             *time.Time                `json:"rejected_at,omitempty"`
	RejectedBy             string                    `json:"rejected_by,omitempty"`
	RejectionReason        string                    `json:"rejection_reason,omitempty"`
	CancelledAt            *time.Time                `json:"cancelled_at,omitempty"`
	CancelledBy            string                    `json:"cancelled_by,omitempty"`
	CancellationReason     string                    `json:"cancellation_reason,omitempty"`
	Lines                  []RequisitionLineResponse `json:"lines"`
}

// RequisitionListResponse lista paginada de requisiciones.
type RequisitionListResponse struct {
	Items []RequisitionResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}

// DispatchResponse resultado de un despacho. Warning presente cuando el despacho quedó
// registrado pero la transferencia no.
type DispatchResponse struct {
	RequisitionID string         `json:"requisition_id"`
	State         string         `json:"state"`
	DispatchID    string         `json:"dispatch_id"`
	MovementID    string         `json:"movement_id,omitempty"`
	Warning       *ErrorResponse `json:"warning,omitempty"`
}

// PendingTransferResponse despacho sin transferencia registrada.
type PendingTransferResponse struct {
	DispatchID    string                `json:"dispatch_id"`
	RequisitionID string                `json:"requisition_id"`
	DispatcherID  string                `json:"dispatcher_id"`
	DispatchedAt  time.Time             `json:"dispatched_at"`
	Lines         []DispatchLineSummary `json:"lines"`
}

// DispatchLineSummary línea de un despacho.
type DispatchLineSummary struct {
	ItemID   string          `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
}
