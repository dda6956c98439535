package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/bodegas-api/internal/application/dto"
	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

// ItemUseCase casos de uso del catálogo de ítems y sus presentaciones. Las existencias se
// manejan solo vía movimientos.
type ItemUseCase struct {
	repo          repository.ItemRepository
	presentations repository.PresentationRepository
}

// NewItemUseCase construye el caso de uso.
func NewItemUseCase(repo repository.ItemRepository, presentations repository.PresentationRepository) *ItemUseCase {
	return &ItemUseCase{repo: repo, presentations: presentations}
}

// Create crea un nuevo ítem activo. El código es único.
func (uc *ItemUseCase) Create(ctx context.Context, in dto.CreateItemRequest) (*dto.ItemResponse, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return nil, domain.NewValidationError("code", "es requerido")
	}
	if in.UnitCost.IsNegative() {
		return nil, domain.NewValidationError("unit_cost", "no puede ser negativo")
	}
	existing, err := uc.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := time.Now()
	item := &entity.Item{
		ID:        uuid.New().String(),
		Code:      code,
		Name:      strings.TrimSpace(in.Name),
		BaseUnit:  strings.TrimSpace(in.BaseUnit),
		UnitCost:  in.UnitCost,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return toItemResponse(item), nil
}

// GetByID obtiene un ítem por ID.
func (uc *ItemUseCase) GetByID(ctx context.Context, id string) (*dto.ItemResponse, error) {
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	return toItemResponse(item), nil
}

// Update actualiza un ítem. El código no se modifica.
func (uc *ItemUseCase) Update(ctx context.Context, id string, in dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	item, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	if in.Name != nil {
		item.Name = strings.TrimSpace(*in.Name)
	}
	if in.BaseUnit != nil {
		item.BaseUnit = strings.TrimSpace(*in.BaseUnit)
	}
	if in.UnitCost != nil {
		if in.UnitCost.IsNegative() {
			return nil, domain.NewValidationError("unit_cost", "no puede ser negativo")
		}
		item.UnitCost = *in.UnitCost
	}
	if in.Active != nil {
		item.Active = *in.Active
	}
	item.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return toItemResponse(item), nil
}

// List lista ítems con paginación.
func (uc *ItemUseCase) List(ctx context.Context, limit, offset int) (*dto.ItemListResponse, error) {
	list, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ItemResponse, 0, len(list))
	for _, it := range list {
		items = append(items, *toItemResponse(it))
	}
	return &dto.ItemListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// CreatePresentation agrega una presentación al ítem. El multiplicador debe ser positivo.
func (uc *ItemUseCase) CreatePresentation(ctx context.Context, itemID string, in dto.CreatePresentationRequest) (*dto.PresentationResponse, error) {
	item, err := uc.repo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	if !in.Multiplier.IsPositive() {
		return nil, domain.ErrInvalidConversionFactor
	}
	// presentation_units.multiplier es NUMERIC(18,6)
	if !in.Multiplier.Equal(in.Multiplier.Round(6)) {
		return nil, domain.NewValidationError("multiplier", "máximo 6 decimales")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "es requerido")
	}
	p := &entity.PresentationUnit{
		ID:         uuid.New().String(),
		ItemID:     item.ID,
		Name:       name,
		Multiplier: in.Multiplier,
		Active:     true,
		CreatedAt:  time.Now(),
	}
	if err := uc.presentations.Create(ctx, p); err != nil {
		return nil, err
	}
	return toPresentationResponse(p), nil
}

// ListPresentations presentaciones del ítem; nil si el ítem no existe.
func (uc *ItemUseCase) ListPresentations(ctx context.Context, itemID string) ([]dto.PresentationResponse, error) {
	item, err := uc.repo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	list, err := uc.presentations.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PresentationResponse, 0, len(list))
	for _, p := range list {
		out = append(out, *toPresentationResponse(p))
	}
	return out, nil
}

func toItemResponse(it *entity.Item) *dto.ItemResponse {
	if it == nil {
		return nil
	}
	return &dto.ItemResponse{
		ID:        it.ID,
		Code:      it.Code,
		Name:      it.Name,
		BaseUnit:  it.BaseUnit,
		UnitCost:  it.UnitCost,
		Active:    it.Active,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}

func toPresentationResponse(p *entity.PresentationUnit) *dto.PresentationResponse {
	return &dto.PresentationResponse{
		ID:         p.ID,
		ItemID:     p.ItemID,
		Name:       p.Name,
		Multiplier: p.Multiplier,
		Active:     p.Active,
	}
}
