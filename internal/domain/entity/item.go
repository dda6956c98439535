package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item artículo del catálogo. Las cantidades del ledger se expresan en BaseUnit.
type Item struct {
	ID        string
	Code      string // código único
	Name      string
	BaseUnit  string // unidad base: und, kg, lt...
	UnitCost  decimal.Decimal
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PresentationUnit empaque de un ítem (caja, paca) con su factor a la unidad base.
type PresentationUnit struct {
	ID         string
	ItemID     string
	Name       string
	Multiplier decimal.Decimal // unidades base por presentación, > 0
	Active     bool
	CreatedAt  time.Time
}
