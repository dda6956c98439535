package http

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/bodegas-api/internal/application/dto"
	"github.com/jhoicas/bodegas-api/internal/application/inventory"
	"github.com/jhoicas/bodegas-api/internal/domain"
)

// InventoryHandler maneja las peticiones HTTP de movimientos, existencias y kardex (protegido).
type InventoryHandler struct {
	processor *inventory.MovementProcessor
	stock     *inventory.StockQuery
	kardex    *inventory.KardexQuery
	validator *validator.Validate
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(processor *inventory.MovementProcessor, stock *inventory.StockQuery, kardex *inventory.KardexQuery) *InventoryHandler {
	return &InventoryHandler{processor: processor, stock: stock, kardex: kardex, validator: validator.New()}
}

// PostMovement godoc
// @Summary      Contabilizar movimiento de inventario
// @Description  Entrada, Salida, Transferencia o Ajuste. Todas las líneas se aplican o ninguna.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PostMovementRequest  true  "type, bodegas y líneas"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) PostMovement(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.PostMovementRequest
	if ok, err := bindBody(c, h.validator, &in); !ok {
		return err
	}
	out, err := h.processor.PostFromRequest(c.UserContext(), userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetMovement godoc
// @Summary      Obtener movimiento por ID
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [get]
func (h *InventoryHandler) GetMovement(c *fiber.Ctx) error {
	m, err := h.processor.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if m == nil {
		return notFound(c, "movimiento no encontrado")
	}
	return c.JSON(inventory.ToMovementResponse(m))
}

// GetStock godoc
// @Summary      Existencias actuales
// @Description  Filtra por item_id y/o warehouse_id. Con ambos devuelve un único registro (cero si no hay movimientos).
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        item_id       query  string  false  "Ítem"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Success      200  {object}  dto.StockListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	out, err := h.stock.List(c.UserContext(), c.Query("item_id"), c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetKardex godoc
// @Summary      Kardex de un ítem
// @Description  Historial cronológico con saldo acumulado por bodega. from inclusivo, to exclusivo (RFC3339).
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        item_id       query  string  true   "Ítem"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        from          query  string  false  "Desde (RFC3339)"
// @Param        to            query  string  false  "Hasta (RFC3339)"
// @Param        limit         query  int     false  "Límite"  default(100)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.KardexResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/kardex [get]
func (h *InventoryHandler) GetKardex(c *fiber.Ctx) error {
	page := dto.NewPageRequest(c.QueryInt("limit"), c.QueryInt("offset"), dto.MaxPageLimit, dto.MaxKardexLimit)
	f := inventory.KardexFilter{
		ItemID:      c.Query("item_id"),
		WarehouseID: c.Query("warehouse_id"),
		Limit:       page.Limit,
		Offset:      page.Offset,
	}
	var err error
	if f.From, err = parseTimeQuery(c, "from"); err != nil {
		return writeError(c, err)
	}
	if f.To, err = parseTimeQuery(c, "to"); err != nil {
		return writeError(c, err)
	}
	kp, err := h.kardex.List(c.UserContext(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToKardexResponse(f, kp))
}

func parseTimeQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.NewValidationError(key, "formato RFC3339 requerido")
	}
	return &t, nil
}

func pageFromQuery(c *fiber.Ctx) dto.PageRequest {
	return dto.NewPageRequest(c.QueryInt("limit"), c.QueryInt("offset"), dto.DefaultPageLimit, dto.MaxPageLimit)
}
