package requisition

import (
	"context"
	"fmt"

	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

// Roles reconocidos en el token.
const (
	RoleAdmin     = "admin"
	RoleApprover  = "aprobador"
	RoleWarehouse = "bodeguero"
	RoleRequester = "solicitante"
)

// KnownRole indica si role es uno de los cuatro roles de la API.
func KnownRole(role string) bool {
	switch role {
	case RoleAdmin, RoleApprover, RoleWarehouse, RoleRequester:
		return true
	}
	return false
}

// Action acción sobre una requisición sujeta a permisos.
type Action string

// Acciones.
const (
	ActionApprove  Action = "aprobar"
	ActionReject   Action = "rechazar"
	ActionDispatch Action = "despachar"
	ActionCancel   Action = "cancelar"
)

// Actor usuario autenticado que ejecuta la acción.
type Actor struct {
	ID   string
	Role string
}

// Capabilities lo que un actor puede hacer sobre una requisición concreta.
// No considera el estado: eso lo valida el Workflow.
type Capabilities struct {
	Approve  bool `json:"approve"`
	Reject   bool `json:"reject"`
	Dispatch bool `json:"dispatch"`
	Cancel   bool `json:"cancel"`
}

// Allows indica si la acción está permitida.
func (c Capabilities) Allows(a Action) bool {
	switch a {
	case ActionApprove:
		return c.Approve
	case ActionReject:
		return c.Reject
	case ActionDispatch:
		return c.Dispatch
	case ActionCancel:
		return c.Cancel
	}
	return false
}

// Policy decide las capacidades de un actor sobre una requisición.
type Policy interface {
	Capabilities(ctx context.Context, actor Actor, r *entity.Requisition) (Capabilities, error)
}

// RolePolicy política por rol: admin todo; aprobador aprueba, rechaza y cancela;
// bodeguero despacha si es responsable de la bodega origen (o si no tiene responsable);
// el solicitante puede cancelar la suya.
type RolePolicy struct {
	warehouses repository.WarehouseRepository
}

// NewRolePolicy construye la política.
func NewRolePolicy(warehouses repository.WarehouseRepository) *RolePolicy {
	return &RolePolicy{warehouses: warehouses}
}

// Capabilities implementa Policy.
func (p *RolePolicy) Capabilities(ctx context.Context, actor Actor, r *entity.Requisition) (Capabilities, error) {
	var c Capabilities
	if actor.ID == "" || r == nil {
		return c, nil
	}
	switch actor.Role {
	case RoleAdmin:
		return Capabilities{Approve: true, Reject: true, Dispatch: true, Cancel: true}, nil
	case RoleApprover:
		c.Approve, c.Reject, c.Cancel = true, true, true
	case RoleWarehouse:
		wh, err := p.warehouses.GetByID(ctx, r.SourceWarehouseID)
		if err != nil {
			return c, err
		}
		if wh == nil {
			return c, fmt.Errorf("bodega %s: %w", r.SourceWarehouseID, domain.ErrNotFound)
		}
		c.Dispatch = wh.ResponsibleUserID == "" || wh.ResponsibleUserID == actor.ID
	}
	if r.RequesterID == actor.ID {
		c.Cancel = true
	}
	return c, nil
}

// CanView un solicitante solo ve sus propias requisiciones; los demás roles ven todas.
func CanView(actor Actor, r *entity.Requisition) bool {
	if actor.ID == "" || r == nil {
		return false
	}
	return actor.Role != RoleRequester || r.RequesterID == actor.ID
}

// Authorize devuelve domain.ErrForbidden si el actor no puede ejecutar la acción.
func Authorize(ctx context.Context, p Policy, actor Actor, r *entity.Requisition, a Action) error {
	c, err := p.Capabilities(ctx, actor, r)
	if err != nil {
		return err
	}
	if !c.Allows(a) {
		return fmt.Errorf("%s requisición: %w", a, domain.ErrForbidden)
	}
	return nil
}
