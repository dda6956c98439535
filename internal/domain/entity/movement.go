package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// MovementType tipo de movimiento de inventario.
type MovementType string

// Tipos de movimiento.
const (
	MovementTypeEntrada       MovementType = "Entrada"
	MovementTypeSalida        MovementType = "Salida"
	MovementTypeTransferencia MovementType = "Transferencia"
	MovementTypeAjuste        MovementType = "Ajuste"
)

// MovementTypes todos los tipos válidos.
var MovementTypes = []MovementType{
	MovementTypeEntrada, MovementTypeSalida, MovementTypeTransferencia, MovementTypeAjuste,
}

// Dirección de una línea respecto a una bodega.
const (
	DirectionIn  = "IN"
	DirectionOut = "OUT"
)

// ReferenceTypeDispatch referencia de las transferencias generadas por despachos de requisición.
const ReferenceTypeDispatch = "DESPACHO"

var fold = cases.Fold()

// ParseMovementType reconoce el tipo sin distinguir mayúsculas. ok=false si no existe.
func ParseMovementType(s string) (MovementType, bool) {
	in := fold.String(strings.TrimSpace(s))
	for _, t := range MovementTypes {
		if fold.String(string(t)) == in {
			return t, true
		}
	}
	return "", false
}

// Movement cabecera de un movimiento contabilizado. Inmutable una vez registrado.
type Movement struct {
	ID                     string
	Type                   MovementType
	SourceWarehouseID      string // Salida, Transferencia
	DestinationWarehouseID string // Entrada, Transferencia, Ajuste
	ActorID                string
	Reason                 string
	Notes                  string
	ReferenceType          string // ej. DESPACHO
	ReferenceID            string
	CreatedAt              time.Time
	Lines                  []MovementLine
}

// MovementLine línea del kardex. Quantity siempre positiva, en unidad base.
type MovementLine struct {
	ID              string
	MovementID      string
	Seq             int64 // orden global de inserción
	ItemID          string
	Quantity        decimal.Decimal
	Direction       string // solo relevante en Ajuste
	PresentationID  string
	PresentationQty decimal.Decimal
	UnitCost        decimal.Decimal
}

// StockEffect delta que una línea produce sobre una bodega.
type StockEffect struct {
	WarehouseID string
	Direction   string
	Delta       decimal.Decimal
}

// Effects traduce una línea en sus deltas de existencias. En Transferencia la salida va primero.
func (m *Movement) Effects(l MovementLine) []StockEffect {
	in := StockEffect{WarehouseID: m.DestinationWarehouseID, Direction: DirectionIn, Delta: l.Quantity}
	out := StockEffect{WarehouseID: m.SourceWarehouseID, Direction: DirectionOut, Delta: l.Quantity.Neg()}
	switch m.Type {
	case MovementTypeEntrada:
		return []StockEffect{in}
	case MovementTypeSalida:
		return []StockEffect{out}
	case MovementTypeTransferencia:
		return []StockEffect{out, in}
	case MovementTypeAjuste:
		if l.Direction == DirectionOut {
			return []StockEffect{{WarehouseID: m.DestinationWarehouseID, Direction: DirectionOut, Delta: l.Quantity.Neg()}}
		}
		return []StockEffect{in}
	}
	return nil
}

// TouchesWarehouse indica si el movimiento afecta la bodega.
func (m *Movement) TouchesWarehouse(warehouseID string) bool {
	return m.SourceWarehouseID == warehouseID || m.DestinationWarehouseID == warehouseID
}
