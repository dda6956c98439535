package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementLineRequest línea de un movimiento. Se envía quantity (unidad base) o
// presentation_id + presentation_qty. En Ajuste quantity es la cantidad final deseada.
type MovementLineRequest struct {
	ItemID          string          `json:"item_id" validate:"required"`
	Quantity        decimal.Decimal `json:"quantity"`
	PresentationID  string          `json:"presentation_id,omitempty"`
	PresentationQty decimal.Decimal `json:"presentation_qty"`
}

// PostMovementRequest body para POST /api/inventory/movements.
type PostMovementRequest struct {
	Type                   string                `json:"type" validate:"required"`
	SourceWarehouseID      string                `json:"source_warehouse_id,omitempty"`
	DestinationWarehouseID string                `json:"destination_warehouse_id,omitempty"`
	Reason                 string                `json:"reason" validate:"max=500"`
	Notes                  string                `json:"notes" validate:"max=2000"`
	Lines                  []MovementLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// MovementLineResponse línea contabilizada.
type MovementLineResponse struct {
	ID              string          `json:"id"`
	Seq             int64           `json:"seq"`
	ItemID          string          `json:"item_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	Direction       string          `json:"direction,omitempty"`
	PresentationID  string          `json:"presentation_id,omitempty"`
	PresentationQty decimal.Decimal `json:"presentation_qty"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
}

// MovementResponse movimiento contabilizado.
type MovementResponse struct {
	ID                     string                 `json:"id"`
	Type                   string                 `json:"type"`
	SourceWarehouseID      string                 `json:"source_warehouse_id,omitempty"`
	DestinationWarehouseID string                 `json:"destination_warehouse_id,omitempty"`
	ActorID                string                 `json:"actor_id"`
	Reason                 string                 `json:"reason,omitempty"`
	Notes                  string                 `json:"notes,omitempty"`
	ReferenceType          string                 `json:"reference_type,omitempty"`
	ReferenceID            string                 `json:"reference_id,omitempty"`
	CreatedAt              time.Time              `json:"created_at"`
	Lines                  []MovementLineResponse `json:"lines"`
}

// StockResponse existencia de un ítem en una bodega.
type StockResponse struct {
	ItemID      string          `json:"item_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// StockListResponse existencias de un ítem o de una bodega.
type StockListResponse struct {
	Items []StockResponse `json:"items"`
}

// KardexEntryResponse entrada del kardex con saldo acumulado.
type KardexEntryResponse struct {
	MovementID             string          `json:"movement_id"`
	LineID                 string          `json:"line_id"`
	Seq                    int64           `json:"seq"`
	Type                   string          `json:"type"`
	Timestamp              time.Time       `json:"timestamp"`
	ActorID                string          `json:"actor_id"`
	Reason                 string          `json:"reason,omitempty"`
	ReferenceType          string          `json:"reference_type,omitempty"`
	ReferenceID            string          `json:"reference_id,omitempty"`
	WarehouseID            string          `json:"warehouse_id"`
	CounterpartWarehouseID string          `json:"counterpart_warehouse_id,omitempty"`
	Direction              string          `json:"direction"`
	Quantity               decimal.Decimal `json:"quantity"`
	Balance                decimal.Decimal `json:"balance"`
	PresentationID         string          `json:"presentation_id,omitempty"`
	PresentationQty        decimal.Decimal `json:"presentation_qty"`
	UnitCost               decimal.Decimal `json:"unit_cost"`
}

// KardexResponse página del kardex de un ítem.
type KardexResponse struct {
	ItemID      string                `json:"item_id"`
	WarehouseID string                `json:"warehouse_id,omitempty"`
	Entries     []KardexEntryResponse `json:"entries"`
	Page        PageResponse          `json:"page"`
}
