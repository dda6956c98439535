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

// WarehouseUseCase catálogo de bodegas. Una bodega inactiva sigue existiendo (el kardex
// la referencia) pero el motor de inventario rechaza movimientos sobre ella.
type WarehouseUseCase struct {
	repo repository.WarehouseRepository
	now  func() time.Time
}

func NewWarehouseUseCase(repo repository.WarehouseRepository) *WarehouseUseCase {
	return &WarehouseUseCase{repo: repo, now: time.Now}
}

func (uc *WarehouseUseCase) Create(ctx context.Context, in dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "es requerido")
	}
	now := uc.now()
	w := &entity.Warehouse{
		ID:                uuid.NewString(),
		Name:              name,
		Address:           strings.TrimSpace(in.Address),
		ResponsibleUserID: strings.TrimSpace(in.ResponsibleUserID),
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := uc.repo.Create(ctx, w); err != nil {
		return nil, err
	}
	return warehouseResponse(w), nil
}

// GetByID nil, nil si no existe.
func (uc *WarehouseUseCase) GetByID(ctx context.Context, id string) (*dto.WarehouseResponse, error) {
	w, err := uc.repo.GetByID(ctx, id)
	if err != nil || w == nil {
		return nil, err
	}
	return warehouseResponse(w), nil
}

// Update aplica solo los campos presentes. nil, nil si la bodega no existe.
func (uc *WarehouseUseCase) Update(ctx context.Context, id string, in dto.UpdateWarehouseRequest) (*dto.WarehouseResponse, error) {
	w, err := uc.repo.GetByID(ctx, id)
	if err != nil || w == nil {
		return nil, err
	}
	if err := applyWarehouseUpdate(w, in); err != nil {
		return nil, err
	}
	w.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, w); err != nil {
		return nil, err
	}
	return warehouseResponse(w), nil
}

func applyWarehouseUpdate(w *entity.Warehouse, in dto.UpdateWarehouseRequest) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return domain.NewValidationError("name", "no puede ser vacío")
		}
		w.Name = name
	}
	if in.Address != nil {
		w.Address = strings.TrimSpace(*in.Address)
	}
	if in.ResponsibleUserID != nil {
		w.ResponsibleUserID = strings.TrimSpace(*in.ResponsibleUserID)
	}
	if in.Active != nil {
		w.Active = *in.Active
	}
	return nil
}

func (uc *WarehouseUseCase) List(ctx context.Context, in dto.WarehouseListRequest) (*dto.WarehouseListResponse, error) {
	list, err := uc.repo.List(ctx, repository.WarehouseFilter{
		Active:            in.Active,
		ResponsibleUserID: in.ResponsibleUserID,
		Limit:             in.Page.Limit,
		Offset:            in.Page.Offset,
	})
	if err != nil {
		return nil, err
	}
	out := &dto.WarehouseListResponse{
		Items: make([]dto.WarehouseResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: in.Page.Limit, Offset: in.Page.Offset},
	}
	for _, w := range list {
		out.Items = append(out.Items, *warehouseResponse(w))
	}
	return out, nil
}

func warehouseResponse(w *entity.Warehouse) *dto.WarehouseResponse {
	return &dto.WarehouseResponse{
		ID:                w.ID,
		Name:              w.Name,
		Address:           w.Address,
		ResponsibleUserID: w.ResponsibleUserID,
		Active:            w.Active,
		CreatedAt:         w.CreatedAt,
		UpdatedAt:         w.UpdatedAt,
	}
}
