package repository

import (
	"context"

	"github.com/jhoicas/bodegas-api/internal/domain/entity"
)

// ItemRepository define el puerto de persistencia para Item.
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	GetByCode(ctx context.Context, code string) (*entity.Item, error)
	Update(ctx context.Context, item *entity.Item) error
	List(ctx context.Context, limit, offset int) ([]*entity.Item, error)
}

// PresentationRepository define el puerto de persistencia para presentaciones de un ítem.
type PresentationRepository interface {
	Create(ctx context.Context, p *entity.PresentationUnit) error
	GetByID(ctx context.Context, id string) (*entity.PresentationUnit, error)
	ListByItem(ctx context.Context, itemID string) ([]*entity.PresentationUnit, error)
}
