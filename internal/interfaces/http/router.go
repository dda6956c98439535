package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jhoicas/bodegas-api/internal/application/inventory"
	"github.com/jhoicas/bodegas-api/internal/application/requisition"
	"github.com/jhoicas/bodegas-api/internal/application/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	WarehouseUC       *usecase.WarehouseUseCase
	ItemUC            *usecase.ItemUseCase
	MovementProcessor *inventory.MovementProcessor
	StockQuery        *inventory.StockQuery
	KardexQuery       *inventory.KardexQuery
	Workflow          *requisition.Workflow
	Policy            requisition.Policy
	JWTSecret         string
	// MetricsGatherer si no es nil expone GET /metrics (sin auth).
	MetricsGatherer prometheus.Gatherer
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.MetricsGatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	adminOnly := RequireRole(requisition.RoleAdmin)

	// Warehouses: lectura para todos, escritura solo admin
	warehouses := protected.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Post("/", adminOnly, warehouseHandler.Create)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Put("/:id", adminOnly, warehouseHandler.Update)

	// Items y presentaciones
	items := protected.Group("/items")
	itemHandler := NewItemHandler(deps.ItemUC)
	items.Post("/", adminOnly, itemHandler.Create)
	items.Get("/", itemHandler.List)
	items.Get("/:id", itemHandler.GetByID)
	items.Put("/:id", adminOnly, itemHandler.Update)
	items.Post("/:id/presentations", adminOnly, itemHandler.CreatePresentation)
	items.Get("/:id/presentations", itemHandler.ListPresentations)

	// Inventario: movimientos los registran admin y bodegueros
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.MovementProcessor, deps.StockQuery, deps.KardexQuery)
	invGroup.Post("/movements", RequireRole(requisition.RoleAdmin, requisition.RoleWarehouse), inventoryHandler.PostMovement)
	invGroup.Get("/movements/:id", inventoryHandler.GetMovement)
	invGroup.Get("/stock", inventoryHandler.GetStock)
	invGroup.Get("/kardex", inventoryHandler.GetKardex)

	// Requisiciones: los permisos por acción los decide la política
	reqs := protected.Group("/requisitions")
	reqHandler := NewRequisitionHandler(deps.Workflow, deps.Policy)
	reqs.Post("/", reqHandler.Create)
	reqs.Get("/", reqHandler.List)
	reqs.Get("/reconciliation", RequireRole(requisition.RoleAdmin, requisition.RoleWarehouse), reqHandler.Reconciliation)
	reqs.Get("/:id", reqHandler.GetByID)
	reqs.Post("/:id/approve", reqHandler.Approve)
	reqs.Post("/:id/reject", reqHandler.Reject)
	reqs.Post("/:id/cancel", reqHandler.Cancel)
	reqs.Post("/:id/dispatch", reqHandler.Dispatch)
}
