package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// DocumentHandler endpoints del flujo de documentos (protegido).
type DocumentHandler struct {
	workflow *inventory.WorkflowUseCase
	ledger   *inventory.StockLedger
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(workflow *inventory.WorkflowUseCase, ledger *inventory.StockLedger) *DocumentHandler {
	return &DocumentHandler{workflow: workflow, ledger: ledger}
}

// Create godoc
// @Summary      Crear documento de inventario
// @Description  Crea una recepción, despacho, traslado o ajuste en draft con referencia única por tipo.
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateDocumentRequest  true  "kind, ubicaciones según el tipo, líneas"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/documents [post]
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateDocumentRequest
	if bad := bindBody(c, &in); bad != nil {
		return c.Status(fiber.StatusBadRequest).JSON(bad)
	}
	doc, err := h.workflow.CreateDocument(c.Context(), actorFrom(c), in.ToDraft())
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromDocument(doc))
}

// List godoc
// @Summary      Listar documentos
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        kind    query  string  false  "receipt | delivery | transfer | adjustment"
// @Param        status  query  string  false  "draft | waiting | ready | done | cancelled"
// @Param        limit   query  int     false  "máximo 100 (por defecto 20)"
// @Param        offset  query  int     false  "desplazamiento"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/documents [get]
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	var q dto.ListDocumentsQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	if bad := checkStruct(&q); bad != nil {
		return c.Status(fiber.StatusBadRequest).JSON(bad)
	}
	q.DefaultPage()
	list, err := h.workflow.ListDocuments(c.Context(), repository.DocumentFilter{
		Kind:   entity.DocumentKind(q.Kind),
		Status: entity.DocumentStatus(q.Status),
	}, q.Limit, q.Offset)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.DocumentResponse, 0, len(list))
	for _, doc := range list {
		items = append(items, dto.FromDocument(doc))
	}
	return c.JSON(fiber.Map{
		"items": items,
		"page":  dto.PageResponse{Limit: q.Limit, Offset: q.Offset},
	})
}

// GetByID godoc
// @Summary      Obtener documento
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [get]
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	doc, err := h.workflow.GetDocument(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromDocument(doc))
}

// UpdateLines godoc
// @Summary      Reemplazar líneas
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del documento"
// @Param        body  body  dto.UpdateLinesRequest  true  "líneas completas"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      409  {object}  dto.ErrorResponse  "DOCUMENT_LOCKED si está done o cancelled"
// @Router       /api/documents/{id}/lines [put]
func (h *DocumentHandler) UpdateLines(c *fiber.Ctx) error {
	var in dto.UpdateLinesRequest
	if bad := bindBody(c, &in); bad != nil {
		return c.Status(fiber.StatusBadRequest).JSON(bad)
	}
	doc, err := h.workflow.UpdateLineItems(c.Context(), c.Params("id"), dto.ToLineItems(in.Lines))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromDocument(doc))
}

// UpdateQuantities godoc
// @Summary      Registrar cantidades efectivas
// @Description  Cantidad recibida, despachada, trasladada o contada por línea. En ajustes también la teórica.
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "ID del documento"
// @Param        body  body  dto.UpdateQuantitiesRequest  true  "cantidades por línea"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/quantities [put]
func (h *DocumentHandler) UpdateQuantities(c *fiber.Ctx) error {
	var in dto.UpdateQuantitiesRequest
	if bad := bindBody(c, &in); bad != nil {
		return c.Status(fiber.StatusBadRequest).JSON(bad)
	}
	doc, err := h.workflow.UpdateQuantities(c.Context(), c.Params("id"), in.ToQuantityUpdates())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromDocument(doc))
}

// SetWaiting godoc
// @Summary      Pasar a waiting
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/waiting [post]
func (h *DocumentHandler) SetWaiting(c *fiber.Ctx) error {
	doc, err := h.workflow.SetWaiting(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromDocument(doc))
}

// SetReady godoc
// @Summary      Pasar a ready
// @Description  Requiere cantidad efectiva en todas las líneas (GUARD_FAILED si falta alguna).
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/ready [post]
func (h *DocumentHandler) SetReady(c *fiber.Ctx) error {
	doc, err := h.workflow.SetReady(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromDocument(doc))
}

// Commit godoc
// @Summary      Validar documento
// @Description  Emite los movimientos del libro exactamente una vez y deja el documento en done.
// @Description  Acepta Idempotency-Key para filtrar reintentos.
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id               path    string  true   "ID del documento"
// @Param        Idempotency-Key  header  string  false  "clave de reintento"
// @Success      200  {object}  dto.CommitResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK, ALREADY_PROCESSED, INVALID_TRANSITION"
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/commit [post]
func (h *DocumentHandler) Commit(c *fiber.Ctx) error {
	res, err := h.workflow.Commit(c.Context(), c.Params("id"), actorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.CommitResponse{
		Document:   dto.FromDocument(res.Document),
		Movements:  dto.FromMovements(res.Movements),
		Shortfalls: res.Shortfalls,
	})
}

// Cancel godoc
// @Summary      Cancelar documento
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/cancel [post]
func (h *DocumentHandler) Cancel(c *fiber.Ctx) error {
	doc, err := h.workflow.Cancel(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromDocument(doc))
}

// Movements godoc
// @Summary      Movimientos emitidos por un documento
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {array}   dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/movements [get]
func (h *DocumentHandler) Movements(c *fiber.Ctx) error {
	doc, err := h.workflow.GetDocument(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	movs, err := h.ledger.MovementsOf(c.Context(), doc.Kind, doc.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromMovements(movs))
}
