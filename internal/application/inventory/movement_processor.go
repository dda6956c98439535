package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/bodegas-api/internal/application/ports"
	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	domaininv "github.com/jhoicas/bodegas-api/internal/domain/inventory"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
	"github.com/jhoicas/bodegas-api/pkg/logger"
	"github.com/shopspring/decimal"
)

const invalidateTimeout = 2 * time.Second

// MovementProcessor valida y contabiliza movimientos de inventario (Entrada, Salida,
// Transferencia, Ajuste). Todas las líneas se aplican en una sola transacción con bloqueo
// de fila (SELECT FOR UPDATE) sobre cada existencia afectada: o se aplican todas o ninguna.
type MovementProcessor struct {
	txRunner   TxRunner
	items      repository.ItemRepository
	warehouses repository.WarehouseRepository
	movements  repository.MovementRepository
	resolver   BaseQuantityResolver
	cache      ports.StockCache
	metrics    ports.Metrics
	log        *logger.Logger
	now        func() time.Time
}

// NewMovementProcessor construye el caso de uso.
func NewMovementProcessor(
	txRunner TxRunner,
	items repository.ItemRepository,
	warehouses repository.WarehouseRepository,
	movements repository.MovementRepository,
	resolver BaseQuantityResolver,
	log *logger.Logger,
) *MovementProcessor {
	if log == nil {
		log = logger.Nop()
	}
	return &MovementProcessor{
		txRunner:   txRunner,
		items:      items,
		warehouses: warehouses,
		movements:  movements,
		resolver:   resolver,
		cache:      ports.NopStockCache{},
		metrics:    ports.NopMetrics{},
		log:        log,
		now:        time.Now,
	}
}

// WithStockCache invalida c después de cada movimiento confirmado.
func (p *MovementProcessor) WithStockCache(c ports.StockCache) *MovementProcessor {
	if c != nil {
		p.cache = c
	}
	return p
}

// WithMetrics registra contadores en m.
func (p *MovementProcessor) WithMetrics(m ports.Metrics) *MovementProcessor {
	if m != nil {
		p.metrics = m
	}
	return p
}

// MovementLineInput línea de entrada: Quantity en unidad base o PresentationID + PresentationQty.
// En Ajuste la cantidad es la existencia final deseada.
type MovementLineInput struct {
	ItemID          string
	Quantity        decimal.Decimal
	PresentationID  string
	PresentationQty decimal.Decimal
}

// MovementInput entrada para contabilizar un movimiento.
type MovementInput struct {
	Type                   string
	SourceWarehouseID      string
	DestinationWarehouseID string
	ActorID                string
	Reason                 string
	Notes                  string
	ReferenceType          string
	ReferenceID            string
	Lines                  []MovementLineInput
}

type resolvedLine struct {
	itemID          string
	qty             decimal.Decimal
	presentationID  string
	presentationQty decimal.Decimal
	unitCost        decimal.Decimal
}

// Post valida el movimiento, aplica sus deltas al ledger y lo registra.
// Un movimiento con referencia ya registrada falla con domain.ErrDuplicate.
func (p *MovementProcessor) Post(ctx context.Context, in MovementInput) (*entity.Movement, error) {
	mov, err := p.post(ctx, in)
	if err != nil {
		p.metrics.MovementRejected(rejectReason(err))
		p.log.Debug().Err(err).Str("type", in.Type).Msg("movimiento rechazado")
		return nil, err
	}
	p.metrics.MovementPosted(string(mov.Type))
	p.log.Info().
		Str("movement_id", mov.ID).
		Str("type", string(mov.Type)).
		Str("actor_id", mov.ActorID).
		Int("lines", len(mov.Lines)).
		Msg("movimiento registrado")
	return mov, nil
}

func (p *MovementProcessor) post(ctx context.Context, in MovementInput) (*entity.Movement, error) {
	movType, ok := entity.ParseMovementType(in.Type)
	if !ok {
		return nil, domain.NewValidationError("type", fmt.Sprintf("tipo de movimiento desconocido %q", in.Type))
	}
	mov := &entity.Movement{
		ID:                     uuid.New().String(),
		Type:                   movType,
		SourceWarehouseID:      strings.TrimSpace(in.SourceWarehouseID),
		DestinationWarehouseID: strings.TrimSpace(in.DestinationWarehouseID),
		ActorID:                strings.TrimSpace(in.ActorID),
		Reason:                 strings.TrimSpace(in.Reason),
		Notes:                  in.Notes,
		ReferenceType:          in.ReferenceType,
		ReferenceID:            in.ReferenceID,
	}
	if mov.ActorID == "" {
		return nil, domain.NewValidationError("actor_id", "es requerido")
	}
	if err := validateWarehouses(mov); err != nil {
		return nil, err
	}
	if len(in.Lines) == 0 {
		return nil, domain.NewValidationError("lines", "se requiere al menos una línea")
	}
	for _, id := range []string{mov.SourceWarehouseID, mov.DestinationWarehouseID} {
		if id == "" {
			continue
		}
		if err := p.checkWarehouse(ctx, id); err != nil {
			return nil, err
		}
	}
	lines, err := p.resolveLines(ctx, movType, in.Lines)
	if err != nil {
		return nil, err
	}
	keys := affectedKeys(mov, lines)

	err = p.txRunner.Run(ctx, func(movRepo repository.MovementRepository, stockRepo repository.StockRepository) error {
		if mov.ReferenceID != "" {
			existing, err := movRepo.GetByReference(ctx, mov.ReferenceType, mov.ReferenceID)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("referencia %s/%s: %w", mov.ReferenceType, mov.ReferenceID, domain.ErrDuplicate)
			}
		}
		ledger := domaininv.NewStockLedger(stockRepo)
		if err := ledger.Lock(ctx, keys...); err != nil {
			return err
		}
		mov.CreatedAt = p.now()
		built, err := buildLines(ctx, ledger, mov, lines)
		if err != nil {
			return err
		}
		mov.Lines = built
		for _, l := range mov.Lines {
			for _, eff := range mov.Effects(l) {
				if _, err := ledger.Apply(ctx, l.ItemID, eff.WarehouseID, eff.Delta); err != nil {
					return err
				}
			}
		}
		return movRepo.Create(ctx, mov)
	})
	if err != nil {
		return nil, err
	}
	p.invalidate(ctx, keys)
	return mov, nil
}

// invalidate corre aunque el request ya se haya cancelado: el commit ya ocurrió.
func (p *MovementProcessor) invalidate(ctx context.Context, keys []entity.StockKey) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), invalidateTimeout)
	defer cancel()
	p.cache.Invalidate(ctx, keys...)
}

// GetByID obtiene un movimiento con sus líneas; nil si no existe.
func (p *MovementProcessor) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	return p.movements.GetByID(ctx, id)
}

// FindByReference obtiene el movimiento generado por un documento; nil si no existe.
func (p *MovementProcessor) FindByReference(ctx context.Context, referenceType, referenceID string) (*entity.Movement, error) {
	return p.movements.GetByReference(ctx, referenceType, referenceID)
}

func validateWarehouses(m *entity.Movement) error {
	src, dst := m.SourceWarehouseID, m.DestinationWarehouseID
	switch m.Type {
	case entity.MovementTypeEntrada:
		if dst == "" {
			return domain.NewValidationError("destination_warehouse_id", "es requerido en Entrada")
		}
		if src != "" {
			return domain.NewValidationError("source_warehouse_id", "no aplica en Entrada")
		}
	case entity.MovementTypeSalida:
		if src == "" {
			return domain.NewValidationError("source_warehouse_id", "es requerido en Salida")
		}
		if dst != "" {
			return domain.NewValidationError("destination_warehouse_id", "no aplica en Salida")
		}
	case entity.MovementTypeTransferencia:
		if src == "" || dst == "" {
			return domain.NewValidationError("warehouses", "Transferencia requiere bodega origen y destino")
		}
		if src == dst {
			return domain.NewValidationError("destination_warehouse_id", "origen y destino deben ser distintos")
		}
	case entity.MovementTypeAjuste:
		if dst == "" {
			return domain.NewValidationError("destination_warehouse_id", "es requerido en Ajuste")
		}
		if src != "" {
			return domain.NewValidationError("source_warehouse_id", "no aplica en Ajuste")
		}
		if m.Reason == "" {
			return domain.NewValidationError("reason", "el motivo es obligatorio en Ajuste")
		}
	}
	return nil
}

func (p *MovementProcessor) checkWarehouse(ctx context.Context, id string) error {
	wh, err := p.warehouses.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if wh == nil {
		return fmt.Errorf("bodega %s: %w", id, domain.ErrNotFound)
	}
	if !wh.Active {
		return domain.NewValidationError("warehouse", fmt.Sprintf("la bodega %s está inactiva", id))
	}
	return nil
}

func (p *MovementProcessor) resolveLines(ctx context.Context, movType entity.MovementType, inputs []MovementLineInput) ([]resolvedLine, error) {
	items := make(map[string]*entity.Item)
	seen := make(map[string]bool)
	out := make([]resolvedLine, 0, len(inputs))
	for i, l := range inputs {
		field := fmt.Sprintf("lines[%d]", i)
		itemID := strings.TrimSpace(l.ItemID)
		if itemID == "" {
			return nil, domain.NewValidationError(field+".item_id", "es requerido")
		}
		item, ok := items[itemID]
		if !ok {
			var err error
			item, err = p.items.GetByID(ctx, itemID)
			if err != nil {
				return nil, err
			}
			if item == nil {
				return nil, fmt.Errorf("ítem %s: %w", itemID, domain.ErrNotFound)
			}
			if !item.Active {
				return nil, domain.NewValidationError(field+".item_id", "el ítem está inactivo")
			}
			items[itemID] = item
		}
		if err := domaininv.CheckLineScale(field, l.Quantity, l.PresentationQty); err != nil {
			return nil, err
		}
		qty, err := p.resolver.Resolve(ctx, itemID, l.PresentationID, l.PresentationQty, l.Quantity)
		if err != nil {
			return nil, err
		}
		if movType == entity.MovementTypeAjuste {
			if seen[itemID] {
				return nil, domain.NewValidationError(field+".item_id", "ítem repetido en el ajuste")
			}
			seen[itemID] = true
			if qty.IsNegative() {
				return nil, domain.NewValidationError(field+".quantity", "la cantidad objetivo no puede ser negativa")
			}
		} else if !qty.IsPositive() {
			return nil, domain.NewValidationError(field+".quantity", "debe ser mayor que cero")
		}
		out = append(out, resolvedLine{
			itemID:          itemID,
			qty:             qty,
			presentationID:  l.PresentationID,
			presentationQty: l.PresentationQty,
			unitCost:        item.UnitCost,
		})
	}
	return out, nil
}

// buildLines arma las líneas definitivas dentro de la transacción: pre-valida existencias
// en Salida/Transferencia y calcula los deltas del Ajuste contra la existencia bloqueada.
func buildLines(ctx context.Context, ledger *domaininv.StockLedger, mov *entity.Movement, lines []resolvedLine) ([]entity.MovementLine, error) {
	switch mov.Type {
	case entity.MovementTypeSalida, entity.MovementTypeTransferencia:
		required := make(map[entity.StockKey]decimal.Decimal)
		for _, l := range lines {
			k := entity.StockKey{ItemID: l.itemID, WarehouseID: mov.SourceWarehouseID}
			required[k] = required[k].Add(l.qty)
		}
		shortfalls, err := ledger.Shortfalls(ctx, required)
		if err != nil {
			return nil, err
		}
		if len(shortfalls) > 0 {
			return nil, &domain.InsufficientStockError{Shortfalls: shortfalls}
		}
	}

	out := make([]entity.MovementLine, 0, len(lines))
	for _, l := range lines {
		line := entity.MovementLine{
			ID:              uuid.New().String(),
			MovementID:      mov.ID,
			ItemID:          l.itemID,
			Quantity:        l.qty,
			PresentationID:  l.presentationID,
			PresentationQty: l.presentationQty,
			UnitCost:        l.unitCost,
		}
		switch mov.Type {
		case entity.MovementTypeEntrada:
			line.Direction = entity.DirectionIn
		case entity.MovementTypeSalida:
			line.Direction = entity.DirectionOut
		case entity.MovementTypeAjuste:
			current, err := ledger.Query(ctx, l.itemID, mov.DestinationWarehouseID)
			if err != nil {
				return nil, err
			}
			delta := l.qty.Sub(current)
			if delta.IsZero() {
				continue
			}
			line.Quantity = delta.Abs()
			line.Direction = entity.DirectionIn
			if delta.IsNegative() {
				line.Direction = entity.DirectionOut
			}
		}
		out = append(out, line)
	}
	if len(out) == 0 {
		return nil, domain.NewValidationError("lines", "el ajuste no modifica ninguna existencia")
	}
	return out, nil
}

func affectedKeys(m *entity.Movement, lines []resolvedLine) []entity.StockKey {
	keys := make([]entity.StockKey, 0, len(lines)*2)
	for _, l := range lines {
		if m.SourceWarehouseID != "" {
			keys = append(keys, entity.StockKey{ItemID: l.itemID, WarehouseID: m.SourceWarehouseID})
		}
		if m.DestinationWarehouseID != "" {
			keys = append(keys, entity.StockKey{ItemID: l.itemID, WarehouseID: m.DestinationWarehouseID})
		}
	}
	return domaininv.UniqueKeys(keys)
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrInvalidInput):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrUnknownPresentation), errors.Is(err, domain.ErrInvalidConversionFactor):
		return "conversion"
	case errors.Is(err, domain.ErrDuplicate):
		return "duplicate"
	default:
		return "internal"
	}
}
