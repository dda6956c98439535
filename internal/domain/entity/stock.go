package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockKey identifica un registro de existencias.
type StockKey struct {
	ItemID      string
	WarehouseID string
}

// Less orden determinista (ítem, bodega); se usa para tomar bloqueos siempre en el mismo orden.
func (k StockKey) Less(o StockKey) bool {
	if k.ItemID != o.ItemID {
		return k.ItemID < o.ItemID
	}
	return k.WarehouseID < o.WarehouseID
}

// Stock existencia actual de un ítem en una bodega. Se crea al primer movimiento y nunca se borra.
type Stock struct {
	ItemID      string
	WarehouseID string
	Quantity    decimal.Decimal // siempre >= 0
	UpdatedAt   time.Time
}

// Key devuelve la llave (ítem, bodega).
func (s *Stock) Key() StockKey {
	return StockKey{ItemID: s.ItemID, WarehouseID: s.WarehouseID}
}
