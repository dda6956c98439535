package repository

import (
	"context"
	"time"

	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// MovementRepository ledger append-only de movimientos. No existen Update ni Delete.
type MovementRepository interface {
	// Create inserta cabecera y líneas y asigna Seq a cada línea.
	// Una referencia (ReferenceType, ReferenceID) repetida devuelve domain.ErrDuplicate.
	Create(ctx context.Context, m *entity.Movement) error
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	GetByReference(ctx context.Context, referenceType, referenceID string) (*entity.Movement, error)
	// ListPostedLines devuelve las líneas del ítem en orden (CreatedAt, Seq).
	ListPostedLines(ctx context.Context, filter PostedLineFilter) ([]entity.PostedLine, error)
	// OpeningBalances saldo por bodega de las líneas anteriores a before.
	OpeningBalances(ctx context.Context, itemID, warehouseID string, before time.Time) (map[string]decimal.Decimal, error)
}

// PostedLineFilter filtro del kardex. WarehouseID vacío = todas las bodegas.
type PostedLineFilter struct {
	ItemID      string
	WarehouseID string
	From        *time.Time // inclusivo
	To          *time.Time // exclusivo
}
