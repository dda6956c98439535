package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PostedLine línea contabilizada junto con la cabecera de su movimiento (sin Lines).
type PostedLine struct {
	Movement Movement
	Line     MovementLine
}

// KardexEntry efecto de una línea sobre una bodega, con saldo acumulado.
type KardexEntry struct {
	MovementID             string
	LineID                 string
	Seq                    int64
	Type                   MovementType
	Timestamp              time.Time
	ActorID                string
	Reason                 string
	ReferenceType          string
	ReferenceID            string
	ItemID                 string
	WarehouseID            string
	CounterpartWarehouseID string // solo Transferencia
	Direction              string
	Quantity               decimal.Decimal
	Delta                  decimal.Decimal
	Balance                decimal.Decimal
	PresentationID         string
	PresentationQty        decimal.Decimal
	UnitCost               decimal.Decimal
}
