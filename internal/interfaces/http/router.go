package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Workflow       *inventory.WorkflowUseCase
	Ledger         *inventory.StockLedger
	Guard          *inventory.AvailabilityGuard
	Idempotency    IdempotencyStore
	IdempotencyTTL time.Duration
	JWTSecret      string
	Logger         *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	anyRole := RequireRole(entity.RoleAdmin, entity.RoleBodeguero, entity.RoleVendedor)
	// el rol fino (ajustes solo admin) lo decide el flujo según el tipo de documento
	committers := RequireRole(entity.RoleAdmin, entity.RoleBodeguero)

	// Documents
	documents := protected.Group("/documents", anyRole)
	documentHandler := NewDocumentHandler(deps.Workflow, deps.Ledger)
	documents.Post("/", documentHandler.Create)
	documents.Get("/", documentHandler.List)
	documents.Get("/:id", documentHandler.GetByID)
	documents.Put("/:id/lines", documentHandler.UpdateLines)
	documents.Put("/:id/quantities", documentHandler.UpdateQuantities)
	documents.Post("/:id/waiting", documentHandler.SetWaiting)
	documents.Post("/:id/ready", documentHandler.SetReady)
	documents.Post("/:id/cancel", documentHandler.Cancel)
	documents.Get("/:id/movements", documentHandler.Movements)
	commit := []fiber.Handler{committers}
	if deps.Idempotency != nil {
		commit = append(commit, Idempotency(deps.Idempotency, deps.IdempotencyTTL, deps.Logger))
	}
	documents.Post("/:id/commit", append(commit, documentHandler.Commit)...)

	// Stock (solo lectura)
	stock := protected.Group("/stock", anyRole)
	stockHandler := NewStockHandler(deps.Ledger, deps.Guard)
	stock.Get("/:product_id", stockHandler.Current)
	stock.Get("/:product_id/history", stockHandler.History)
	stock.Get("/:product_id/availability", stockHandler.Availability)
}
