package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RequisitionState estado de una requisición.
type RequisitionState string

// Estados de la requisición.
const (
	RequisitionPendiente              RequisitionState = "Pendiente"
	RequisitionAprobado               RequisitionState = "Aprobado"
	RequisitionEnDespacho             RequisitionState = "En_Despacho"
	RequisitionParcialmenteDespachado RequisitionState = "Parcialmente_Despachado"
	RequisitionCompletado             RequisitionState = "Completado"
	RequisitionRechazado              RequisitionState = "Rechazado"
	RequisitionCancelado              RequisitionState = "Cancelado"
)

// RequisitionStates todos los estados.
var RequisitionStates = []RequisitionState{
	RequisitionPendiente, RequisitionAprobado, RequisitionEnDespacho, RequisitionParcialmenteDespachado,
	RequisitionCompletado, RequisitionRechazado, RequisitionCancelado,
}

// ParseRequisitionState reconoce el estado sin distinguir mayúsculas; acepta espacio en lugar de guion bajo.
func ParseRequisitionState(s string) (RequisitionState, bool) {
	in := fold.String(strings.ReplaceAll(strings.TrimSpace(s), " ", "_"))
	for _, st := range RequisitionStates {
		if fold.String(string(st)) == in {
			return st, true
		}
	}
	return "", false
}

// Dispatchable indica si el estado admite despachos.
func (s RequisitionState) Dispatchable() bool {
	return s == RequisitionAprobado || s == RequisitionEnDespacho || s == RequisitionParcialmenteDespachado
}

// Cancellable indica si el estado admite cancelación.
func (s RequisitionState) Cancellable() bool {
	return s == RequisitionPendiente || s == RequisitionAprobado
}

// Requisition solicitud de traslado entre bodegas sujeta a aprobación y despacho.
type Requisition struct {
	ID                     string
	RequesterID            string
	SourceWarehouseID      string
	DestinationWarehouseID string
	State                  RequisitionState
	Reason                 string
	Notes                  string
	RequestedAt            time.Time
	ApprovedAt             *time.Time
	ApprovedBy             string
	DispatchedAt           *time.Time // último despacho
	DispatchedBy           string
	DispatchNotes          string
	RejectedAt             *time.Time
	RejectedBy             string
	RejectionReason        string
	CancelledAt            *time.Time
	CancelledBy            string
	CancellationReason     string
	UpdatedAt              time.Time
	Lines                  []RequisitionLine
}

// RequisitionLine cantidad solicitada y despachada de un ítem, en unidad base.
type RequisitionLine struct {
	ID              string
	RequisitionID   string
	ItemID          string
	RequestedQty    decimal.Decimal
	DispatchedQty   decimal.Decimal // 0 <= DispatchedQty <= RequestedQty, no decrece
	PresentationID  string
	PresentationQty decimal.Decimal
}

// Pending cantidad pendiente por despachar.
func (l RequisitionLine) Pending() decimal.Decimal {
	return l.RequestedQty.Sub(l.DispatchedQty)
}

// TotalPending suma de pendientes de todas las líneas.
func (r *Requisition) TotalPending() decimal.Decimal {
	total := decimal.Zero
	for _, l := range r.Lines {
		total = total.Add(l.Pending())
	}
	return total
}

// TotalDispatched suma de lo despachado en todas las líneas.
func (r *Requisition) TotalDispatched() decimal.Decimal {
	total := decimal.Zero
	for _, l := range r.Lines {
		total = total.Add(l.DispatchedQty)
	}
	return total
}

// LineByItem devuelve el índice de la línea del ítem o -1.
func (r *Requisition) LineByItem(itemID string) int {
	for i, l := range r.Lines {
		if l.ItemID == itemID {
			return i
		}
	}
	return -1
}

// RequisitionDispatch registro de un despacho. MovementID queda vacío hasta que la
// transferencia se registra; sirve para conciliar despachos sin movimiento.
type RequisitionDispatch struct {
	ID            string
	RequisitionID string
	DispatcherID  string
	DispatchedAt  time.Time
	Notes         string
	MovementID    string
	Lines         []DispatchLine
}

// DispatchLine cantidad despachada de una línea de requisición.
type DispatchLine struct {
	ID                string
	DispatchID        string
	RequisitionLineID string
	ItemID            string
	Quantity          decimal.Decimal
	PresentationID    string
	PresentationQty   decimal.Decimal
}
