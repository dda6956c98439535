package dto

import "github.com/shopspring/decimal"

// Límites de paginación.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	// MaxKardexLimit el kardex admite páginas más largas que los catálogos.
	MaxKardexLimit = 500
)

// PageRequest limit/offset ya normalizados.
type PageRequest struct {
	Limit  int
	Offset int
}

// NewPageRequest aplica def si limit <= 0, recorta a max y lleva offset negativo a 0.
func NewPageRequest(limit, offset, def, max int) PageRequest {
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return PageRequest{Limit: limit, Offset: offset}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP. Shortfalls solo en INSUFFICIENT_STOCK.
type ErrorResponse struct {
	Code       string              `json:"code"`
	Message    string              `json:"message"`
	Field      string              `json:"field,omitempty"`
	Shortfalls []ShortfallResponse `json:"shortfalls,omitempty"`
}

// ShortfallResponse faltante de un ítem en una bodega.
type ShortfallResponse struct {
	ItemID      string          `json:"item_id"`
	WarehouseID string          `json:"warehouse_id"`
	Requested   decimal.Decimal `json:"requested"`
	Available   decimal.Decimal `json:"available"`
}
