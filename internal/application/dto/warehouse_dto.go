package dto

import "time"

type CreateWarehouseRequest struct {
	Name              string `json:"name" validate:"required,min=1,max=200"`
	Address           string `json:"address" validate:"max=300"`
	ResponsibleUserID string `json:"responsible_user_id,omitempty" validate:"max=100"`
}

// UpdateWarehouseRequest campos nil no se tocan. active=false desactiva la bodega.
type UpdateWarehouseRequest struct {
	Name              *string `json:"name" validate:"omitempty,min=1,max=200"`
	Address           *string `json:"address" validate:"omitempty,max=300"`
	ResponsibleUserID *string `json:"responsible_user_id" validate:"omitempty,max=100"`
	Active            *bool   `json:"active"`
}

// WarehouseListRequest filtros de GET /api/warehouses.
type WarehouseListRequest struct {
	Active            *bool
	ResponsibleUserID string
	Page              PageRequest
}

type WarehouseResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Address           string    `json:"address"`
	ResponsibleUserID string    `json:"responsible_user_id,omitempty"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type WarehouseListResponse struct {
	Items []WarehouseResponse `json:"items"`
	Page  PageResponse        `json:"page"`
}
