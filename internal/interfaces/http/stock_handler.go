package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

const defaultHistoryLimit = 100

// StockHandler consultas del libro de stock (protegido, solo lectura).
type StockHandler struct {
	ledger *inventory.StockLedger
	guard  *inventory.AvailabilityGuard
}

// NewStockHandler construye el handler.
func NewStockHandler(ledger *inventory.StockLedger, guard *inventory.AvailabilityGuard) *StockHandler {
	return &StockHandler{ledger: ledger, guard: guard}
}

// Current godoc
// @Summary      Stock actual
// @Description  Proyección del libro: global o en una ubicación. Nunca negativo.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  path   string  true   "ID del producto"
// @Param        location    query  string  false  "ubicación (vacío = global)"
// @Success      200  {object}  dto.StockResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/stock/{product_id} [get]
func (h *StockHandler) Current(c *fiber.Ctx) error {
	productID := c.Params("product_id")
	location := c.Query("location")
	var (
		qty decimal.Decimal
		err error
	)
	if location == "" {
		qty, err = h.ledger.CurrentStock(c.Context(), productID)
	} else {
		qty, err = h.ledger.CurrentStockAtLocation(c.Context(), productID, location)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockResponse{ProductID: productID, LocationID: location, Quantity: qty})
}

// History godoc
// @Summary      Historial de movimientos
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  path   string  true   "ID del producto"
// @Param        kind        query  string  false  "inbound | outbound | internal | adjustment"
// @Param        from        query  string  false  "RFC3339"
// @Param        to          query  string  false  "RFC3339"
// @Param        limit       query  int     false  "máximo 1000 (por defecto 100)"
// @Success      200  {object}  dto.HistoryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/{product_id}/history [get]
func (h *StockHandler) History(c *fiber.Ctx) error {
	var q dto.HistoryQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	var bad *dto.ErrorResponse
	if q.From, bad = parseTimeQuery(c, "from"); bad != nil {
		return c.Status(fiber.StatusBadRequest).JSON(bad)
	}
	if q.To, bad = parseTimeQuery(c, "to"); bad != nil {
		return c.Status(fiber.StatusBadRequest).JSON(bad)
	}
	if bad = checkStruct(&q); bad != nil {
		return c.Status(fiber.StatusBadRequest).JSON(bad)
	}
	if q.Limit == 0 {
		q.Limit = defaultHistoryLimit
	}

	productID := c.Params("product_id")
	filter := repository.MovementFilter{From: q.From, To: q.To, Kind: entity.MovementKind(q.Kind)}
	movs := make([]*entity.Movement, 0, q.Limit)
	for m, err := range h.ledger.History(c.Context(), productID, filter) {
		if err != nil {
			return writeError(c, err)
		}
		movs = append(movs, m)
		if len(movs) == q.Limit {
			break
		}
	}
	return c.JSON(dto.HistoryResponse{ProductID: productID, Movements: dto.FromMovements(movs)})
}

// Availability godoc
// @Summary      Verificar disponibilidad
// @Description  Indica si el stock cubre la cantidad pedida y cuánto falta. No reserva nada.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  path   string  true   "ID del producto"
// @Param        required    query  string  true   "cantidad requerida"
// @Param        location    query  string  false  "ubicación (vacío = global)"
// @Success      200  {object}  dto.AvailabilityResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/{product_id}/availability [get]
func (h *StockHandler) Availability(c *fiber.Ctx) error {
	required, err := decimal.NewFromString(c.Query("required"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "required debe ser un número"})
	}
	productID := c.Params("product_id")
	location := c.Query("location")
	av, err := h.guard.Check(c.Context(), productID, required, location)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.AvailabilityResponse{
		ProductID:  productID,
		LocationID: location,
		Required:   required,
		Available:  av.Available,
		Shortage:   av.Shortage,
		Covered:    av.Covered,
	})
}

func parseTimeQuery(c *fiber.Ctx, key string) (*time.Time, *dto.ErrorResponse) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, &dto.ErrorResponse{Code: "VALIDATION", Message: key + " debe tener formato RFC3339"}
	}
	t = t.UTC()
	return &t, nil
}
