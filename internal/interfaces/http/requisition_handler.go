package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/bodegas-api/internal/application/dto"
	"github.com/jhoicas/bodegas-api/internal/application/requisition"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

// RequisitionHandler maneja las peticiones HTTP del flujo de requisiciones (protegido).
type RequisitionHandler struct {
	workflow  *requisition.Workflow
	policy    requisition.Policy
	validator *validator.Validate
}

// NewRequisitionHandler construye el handler.
func NewRequisitionHandler(workflow *requisition.Workflow, policy requisition.Policy) *RequisitionHandler {
	return &RequisitionHandler{workflow: workflow, policy: policy, validator: validator.New()}
}

// Create godoc
// @Summary      Crear requisición
// @Tags         requisitions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateRequisitionRequest  true  "Bodegas origen/destino y líneas"
// @Success      201   {object}  dto.RequisitionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/requisitions [post]
func (h *RequisitionHandler) Create(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.CreateRequisitionRequest
	if ok, err := bindBody(c, h.validator, &in); !ok {
		return err
	}
	r, err := h.workflow.Create(c.UserContext(), requisition.CreateInputFromRequest(userID, in))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(requisition.ToRequisitionResponse(r))
}

// List godoc
// @Summary      Listar requisiciones
// @Description  Un solicitante solo ve las propias.
// @Tags         requisitions
// @Security     Bearer
// @Produce      json
// @Param        state                     query  string  false  "Estado"
// @Param        requester_id              query  string  false  "Solicitante"
// @Param        source_warehouse_id       query  string  false  "Bodega origen"
// @Param        destination_warehouse_id  query  string  false  "Bodega destino"
// @Param        limit                     query  int     false  "Límite"  default(20)
// @Param        offset                    query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.RequisitionListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/requisitions [get]
func (h *RequisitionHandler) List(c *fiber.Ctx) error {
	page := pageFromQuery(c)
	filter := repository.RequisitionFilter{
		RequesterID:            c.Query("requester_id"),
		SourceWarehouseID:      c.Query("source_warehouse_id"),
		DestinationWarehouseID: c.Query("destination_warehouse_id"),
		Limit:                  page.Limit,
		Offset:                 page.Offset,
	}
	if raw := c.Query("state"); raw != "" {
		st, ok := entity.ParseRequisitionState(raw)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "estado desconocido: " + raw})
		}
		filter.State = st
	}
	if GetRole(c) == requisition.RoleRequester {
		filter.RequesterID = GetUserID(c)
	}
	list, err := h.workflow.List(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	total, err := h.workflow.Count(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.RequisitionResponse, 0, len(list))
	for _, r := range list {
		items = append(items, *requisition.ToRequisitionResponse(r))
	}
	return c.JSON(dto.RequisitionListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	})
}

// GetByID godoc
// @Summary      Obtener requisición por ID
// @Description  Un solicitante solo ve las propias; las ajenas responden 404.
// @Tags         requisitions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la requisición"
// @Success      200  {object}  dto.RequisitionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/requisitions/{id} [get]
func (h *RequisitionHandler) GetByID(c *fiber.Ctx) error {
	r, err := h.workflow.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	// para un solicitante las ajenas no existen, igual que en List
	if r == nil || !requisition.CanView(GetActor(c), r) {
		return notFound(c, "requisición no encontrada")
	}
	return c.JSON(requisition.ToRequisitionResponse(r))
}

// Approve godoc
// @Summary      Aprobar requisición
// @Tags         requisitions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la requisición"
// @Success      200  {object}  dto.RequisitionResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/requisitions/{id}/approve [post]
func (h *RequisitionHandler) Approve(c *fiber.Ctx) error {
	actor, ok, err := h.authorize(c, requisition.ActionApprove)
	if !ok {
		return err
	}
	r, err := h.workflow.Approve(c.UserContext(), c.Params("id"), actor.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(requisition.ToRequisitionResponse(r))
}

// Reject godoc
// @Summary      Rechazar requisición
// @Tags         requisitions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "ID de la requisición"
// @Param        body  body  dto.ReasonRequest  true  "Motivo"
// @Success      200   {object}  dto.RequisitionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/requisitions/{id}/reject [post]
func (h *RequisitionHandler) Reject(c *fiber.Ctx) error {
	var in dto.ReasonRequest
	if ok, err := bindBody(c, h.validator, &in); !ok {
		return err
	}
	actor, ok, err := h.authorize(c, requisition.ActionReject)
	if !ok {
		return err
	}
	r, err := h.workflow.Reject(c.UserContext(), c.Params("id"), actor.ID, in.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(requisition.ToRequisitionResponse(r))
}

// Cancel godoc
// @Summary      Cancelar requisición
// @Tags         requisitions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "ID de la requisición"
// @Param        body  body  dto.ReasonRequest  true  "Motivo"
// @Success      200   {object}  dto.RequisitionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/requisitions/{id}/cancel [post]
func (h *RequisitionHandler) Cancel(c *fiber.Ctx) error {
	var in dto.ReasonRequest
	if ok, err := bindBody(c, h.validator, &in); !ok {
		return err
	}
	actor, ok, err := h.authorize(c, requisition.ActionCancel)
	if !ok {
		return err
	}
	r, err := h.workflow.Cancel(c.UserContext(), c.Params("id"), actor.ID, in.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(requisition.ToRequisitionResponse(r))
}

// Dispatch godoc
// @Summary      Despachar requisición (total o parcial)
// @Description  Si el despacho queda registrado pero la transferencia falla responde 200 con warning DISPATCH_RECORDED_MOVEMENT_FAILED.
// @Tags         requisitions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                          true  "ID de la requisición"
// @Param        body  body  dto.DispatchRequisitionRequest  true  "Líneas a despachar"
// @Success      200   {object}  dto.DispatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/requisitions/{id}/dispatch [post]
func (h *RequisitionHandler) Dispatch(c *fiber.Ctx) error {
	var in dto.DispatchRequisitionRequest
	if ok, err := bindBody(c, h.validator, &in); !ok {
		return err
	}
	actor, ok, err := h.authorize(c, requisition.ActionDispatch)
	if !ok {
		return err
	}
	res, err := h.workflow.Dispatch(c.UserContext(), requisition.DispatchInputFromRequest(c.Params("id"), actor.ID, in))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(requisition.ToDispatchResponse(res))
}

// Reconciliation godoc
// @Summary      Despachos sin transferencia registrada
// @Tags         requisitions
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.PendingTransferResponse
// @Router       /api/requisitions/reconciliation [get]
func (h *RequisitionHandler) Reconciliation(c *fiber.Ctx) error {
	list, err := h.workflow.PendingTransfers(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.PendingTransferResponse, 0, len(list))
	for _, d := range list {
		out = append(out, requisition.ToPendingTransferResponse(d))
	}
	return c.JSON(out)
}

// authorize carga la requisición y verifica la política. Si ok es false la respuesta ya fue escrita.
func (h *RequisitionHandler) authorize(c *fiber.Ctx, action requisition.Action) (requisition.Actor, bool, error) {
	actor := GetActor(c)
	if actor.ID == "" {
		return actor, false, unauthorized(c)
	}
	r, err := h.workflow.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return actor, false, writeError(c, err)
	}
	if r == nil {
		return actor, false, notFound(c, "requisición no encontrada")
	}
	if err := requisition.Authorize(c.UserContext(), h.policy, actor, r, action); err != nil {
		return actor, false, writeError(c, err)
	}
	return actor, true, nil
}
