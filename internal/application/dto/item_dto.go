package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateItemRequest entrada para crear un ítem.
type CreateItemRequest struct {
	Code     string          `json:"code" validate:"required,min=1,max=100"`
	Name     string          `json:"name" validate:"required,min=1,max=200"`
	BaseUnit string          `json:"base_unit" validate:"required,max=20"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// UpdateItemRequest entrada para actualizar un ítem. El código es inmutable.
type UpdateItemRequest struct {
	Name     *string          `json:"name" validate:"omitempty,min=1,max=200"`
	BaseUnit *string          `json:"base_unit" validate:"omitempty,min=1,max=20"`
	UnitCost *decimal.Decimal `json:"unit_cost"`
	Active   *bool            `json:"active"`
}

// ItemResponse salida de un ítem.
type ItemResponse struct {
	ID        string          `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	BaseUnit  string          `json:"base_unit"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ItemListResponse lista paginada de ítems.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// CreatePresentationRequest entrada para crear una presentación de un ítem.
type CreatePresentationRequest struct {
	Name       string          `json:"name" validate:"required,min=1,max=100"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

// PresentationResponse salida de una presentación.
type PresentationResponse struct {
	ID         string          `json:"id"`
	ItemID     string          `json:"item_id"`
	Name       string          `json:"name"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Active     bool            `json:"active"`
}
