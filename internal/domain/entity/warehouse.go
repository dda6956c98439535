package entity

import "time"

// Warehouse representa una bodega donde se almacena inventario.
type Warehouse struct {
	ID                string
	Name              string
	Address           string
	ResponsibleUserID string // opcional: bodeguero a cargo
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
