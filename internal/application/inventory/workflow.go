package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/jhoicas/inventario-ledger/inventory")

// ShortagePolicy qué hacer cuando un despacho no tiene stock suficiente.
type ShortagePolicy string

const (
	// ShortagePolicyBlock bloquea el commit completo (por defecto).
	ShortagePolicyBlock ShortagePolicy = "block"
	// ShortagePolicyPartial despacha lo disponible. Solo aplica a despachos; traslados y ajustes siempre bloquean.
	ShortagePolicyPartial ShortagePolicy = "partial"
)

// defaultNotifyTimeout plazo de cada notificación en segundo plano.
const defaultNotifyTimeout = 10 * time.Second

// WorkflowConfig parámetros del flujo de documentos.
type WorkflowConfig struct {
	StorageTimeout time.Duration
	ShortagePolicy ShortagePolicy
	// NotifyTimeout plazo de la notificación, que corre fuera de la respuesta del commit.
	NotifyTimeout time.Duration
}

// CommitResult resultado de validar un documento.
type CommitResult struct {
	Document  *entity.Document
	Movements []*entity.Movement
	// Shortfalls faltantes aceptados bajo la política partial (vacío con block).
	Shortfalls []domain.Shortage
}

// WorkflowUseCase máquina de estados compartida por recepciones, despachos, traslados y ajustes.
// Commit es la única operación que crea movimientos y lo hace exactamente una vez.
type WorkflowUseCase struct {
	txRunner  TxRunner
	documents repository.DocumentRepository
	ledger    *StockLedger
	guard     *AvailabilityGuard
	notifier  Notifier
	log       *logger.Logger
	cfg       WorkflowConfig
	now       func() time.Time
	pending   sync.WaitGroup
}

// NewWorkflowUseCase construye el caso de uso. notifier y log pueden ser nil.
func NewWorkflowUseCase(
	txRunner TxRunner,
	documents repository.DocumentRepository,
	ledger *StockLedger,
	guard *AvailabilityGuard,
	notifier Notifier,
	log *logger.Logger,
	cfg WorkflowConfig,
) *WorkflowUseCase {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if cfg.ShortagePolicy == "" {
		cfg.ShortagePolicy = ShortagePolicyBlock
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = defaultNotifyTimeout
	}
	return &WorkflowUseCase{
		txRunner:  txRunner,
		documents: documents,
		ledger:    ledger,
		guard:     guard,
		notifier:  notifier,
		log:       log.Component("workflow"),
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateDocument valida el borrador, asigna la referencia con el contador atómico del tipo
// y persiste el documento en draft, todo en la misma transacción. Si la referencia no puede
// asignarse no se crea nada.
func (uc *WorkflowUseCase) CreateDocument(ctx context.Context, actor entity.Actor, draft domaininv.DocumentDraft) (*entity.Document, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	draft.CreatedBy = actor.UserID
	doc, err := domaininv.NewDocument(draft, uc.now())
	if err != nil {
		return nil, err
	}

	ctx, cancel := withStorageTimeout(ctx, uc.cfg.StorageTimeout)
	defer cancel()
	err = uc.txRunner.Run(ctx, func(repos Repos) error {
		seq, err := repos.Sequences.Next(ctx, doc.Kind)
		if err != nil {
			return fmt.Errorf("asignar referencia: %w", err)
		}
		ref, err := domaininv.FormatReference(doc.Kind, seq)
		if err != nil {
			return err
		}
		doc.Reference = ref
		return repos.Documents.Create(ctx, doc)
	})
	if err != nil {
		return nil, storageErr(err)
	}
	uc.log.Info().Str("document_id", doc.ID).Str("reference", doc.Reference).Str("kind", string(doc.Kind)).Msg("documento creado")
	return doc, nil
}

// GetDocument obtiene un documento por ID.
func (uc *WorkflowUseCase) GetDocument(ctx context.Context, id string) (*entity.Document, error) {
	ctx, cancel := withStorageTimeout(ctx, uc.cfg.StorageTimeout)
	defer cancel()
	doc, err := uc.documents.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr(err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: documento %s", domain.ErrNotFound, id)
	}
	return doc, nil
}

// ListDocuments lista documentos con filtros simples.
func (uc *WorkflowUseCase) ListDocuments(ctx context.Context, f repository.DocumentFilter, limit, offset int) ([]*entity.Document, error) {
	ctx, cancel := withStorageTimeout(ctx, uc.cfg.StorageTimeout)
	defer cancel()
	list, err := uc.documents.List(ctx, f, limit, offset)
	return list, storageErr(err)
}

// UpdateLineItems reemplaza las líneas. Falla con ErrDocumentLocked si el documento está done o cancelled.
func (uc *WorkflowUseCase) UpdateLineItems(ctx context.Context, id string, lines []entity.LineItem) (*entity.Document, error) {
	return uc.mutate(ctx, id, func(doc *entity.Document, now time.Time) error {
		return domaininv.ReplaceLines(doc, lines, now)
	})
}

// UpdateQuantities registra cantidades efectivas por línea.
func (uc *WorkflowUseCase) UpdateQuantities(ctx context.Context, id string, updates []domaininv.QuantityUpdate) (*entity.Document, error) {
	return uc.mutate(ctx, id, func(doc *entity.Document, now time.Time) error {
		return domaininv.UpdateQuantities(doc, updates, now)
	})
}

// SetWaiting draft → waiting.
func (uc *WorkflowUseCase) SetWaiting(ctx context.Context, id string) (*entity.Document, error) {
	return uc.mutate(ctx, id, func(doc *entity.Document, now time.Time) error {
		return domaininv.Transition(doc, entity.StatusWaiting, now)
	})
}

// SetReady draft|waiting → ready. Falla con ErrMissingQuantities (ErrGuardFailed) si alguna línea no tiene cantidad.
func (uc *WorkflowUseCase) SetReady(ctx context.Context, id string) (*entity.Document, error) {
	return uc.mutate(ctx, id, func(doc *entity.Document, now time.Time) error {
		return domaininv.Transition(doc, entity.StatusReady, now)
	})
}

// Cancel draft|waiting|ready → cancelled. Un documento done no se cancela (ErrInvalidTransition).
func (uc *WorkflowUseCase) Cancel(ctx context.Context, id string) (*entity.Document, error) {
	doc, err := uc.mutate(ctx, id, func(doc *entity.Document, now time.Time) error {
		return domaininv.Transition(doc, entity.StatusCancelled, now)
	})
	if err == nil {
		uc.log.Info().Str("document_id", doc.ID).Str("reference", doc.Reference).Msg("documento cancelado")
	}
	return doc, err
}

// mutate lee el documento con bloqueo de fila, aplica fn y persiste condicionado al estado leído.
func (uc *WorkflowUseCase) mutate(ctx context.Context, id string, fn func(doc *entity.Document, now time.Time) error) (*entity.Document, error) {
	ctx, cancel := withStorageTimeout(ctx, uc.cfg.StorageTimeout)
	defer cancel()
	var out *entity.Document
	err := uc.txRunner.Run(ctx, func(repos Repos) error {
		doc, err := repos.Documents.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if doc == nil {
			return fmt.Errorf("%w: documento %s", domain.ErrNotFound, id)
		}
		prev := doc.Status
		if err := fn(doc, uc.now()); err != nil {
			return err
		}
		if err := repos.Documents.Update(ctx, doc, prev); err != nil {
			return err
		}
		out = doc
		return nil
	})
	if err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

// Commit valida el documento: verifica estado y rol, bloquea los productos afectados, consulta la
// guarda de disponibilidad, agrega los movimientos al libro y marca el documento done, todo en una
// única transacción. Un segundo commit concurrente sobre el mismo documento observa done y falla
// con ErrAlreadyProcessed sin duplicar movimientos.
func (uc *WorkflowUseCase) Commit(ctx context.Context, id string, actor entity.Actor) (*CommitResult, error) {
	ctx, span := tracer.Start(ctx, "inventory.document.commit")
	defer span.End()
	span.SetAttributes(attribute.String("document.id", id), attribute.String("actor.role", actor.Role))

	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}

	txCtx, cancel := withStorageTimeout(ctx, uc.cfg.StorageTimeout)
	defer cancel()

	var result *CommitResult
	err := uc.txRunner.Run(txCtx, func(repos Repos) error {
		doc, err := repos.Documents.GetForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if doc == nil {
			return fmt.Errorf("%w: documento %s", domain.ErrNotFound, id)
		}
		if err := domaininv.CommitPrecondition(doc); err != nil {
			return err
		}
		if !actor.CanCommit(doc.Kind) {
			return fmt.Errorf("%w: el rol %q no puede validar documentos %s", domain.ErrForbidden, actor.Role, doc.Kind)
		}

		shortfalls, err := uc.checkAvailability(txCtx, repos, doc)
		if err != nil {
			return err
		}

		now := uc.now()
		movements := domaininv.EmitMovements(doc, actor.UserID, now)
		if err := uc.ledger.Append(txCtx, repos.Movements, movements...); err != nil {
			return err
		}

		doc.Status = entity.StatusDone
		doc.CompletedTime = &now
		doc.UpdatedAt = now
		if doc.Kind == entity.DocumentKindAdjustment {
			doc.Approver = actor.UserID
		}
		if err := repos.Documents.Update(txCtx, doc, entity.StatusReady); err != nil {
			return err
		}
		result = &CommitResult{Document: doc, Movements: movements, Shortfalls: shortfalls}
		return nil
	})
	if err != nil {
		err = storageErr(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		uc.logCommitFailure(id, actor, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("document.reference", result.Document.Reference),
		attribute.Int("movements.count", len(result.Movements)),
	)
	uc.log.Info().
		Str("document_id", result.Document.ID).
		Str("reference", result.Document.Reference).
		Str("kind", string(result.Document.Kind)).
		Int("movements", len(result.Movements)).
		Msg("documento validado")

	uc.notify(ctx, result, actor)
	return result, nil
}

// checkAvailability bloquea los productos requeridos (en orden) y verifica el stock dentro de la
// transacción. Con la política partial, los despachos se reducen a lo disponible.
func (uc *WorkflowUseCase) checkAvailability(ctx context.Context, repos Repos, doc *entity.Document) ([]domain.Shortage, error) {
	if !domaininv.IsOutboundAffecting(doc.Kind) {
		return nil, nil
	}
	reqs := domaininv.RequiredStock(doc)
	if len(reqs) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ProductID)
	}
	if err := repos.Locker.LockProducts(ctx, ids); err != nil {
		return nil, err
	}

	var shortages []domain.Shortage
	for _, r := range reqs {
		av, err := uc.guard.CheckWith(ctx, repos.Movements, r.ProductID, r.Quantity, r.LocationID)
		if err != nil {
			return nil, err
		}
		if av.Covered {
			continue
		}
		shortages = append(shortages, domain.Shortage{
			ProductID:  r.ProductID,
			LocationID: r.LocationID,
			Required:   r.Quantity,
			Available:  av.Available,
			Shortage:   av.Shortage,
		})
	}
	if len(shortages) == 0 {
		return nil, nil
	}
	if uc.cfg.ShortagePolicy == ShortagePolicyPartial && doc.Kind == entity.DocumentKindDelivery {
		if reduceToAvailable(doc, shortages) {
			return shortages, nil
		}
	}
	return nil, &domain.ShortageError{Lines: shortages}
}

// reduceToAvailable recorta las cantidades despachadas de los productos con faltante.
// Devuelve false si no queda nada por despachar.
func reduceToAvailable(doc *entity.Document, shortages []domain.Shortage) bool {
	remaining := make(map[string]decimal.Decimal, len(shortages))
	for _, s := range shortages {
		remaining[s.ProductID] = s.Available
	}
	for i := range doc.Lines {
		l := &doc.Lines[i]
		left, short := remaining[l.ProductID]
		if !short || l.ActualQuantity == nil {
			continue
		}
		qty := decimal.Min(*l.ActualQuantity, left)
		l.ActualQuantity = &qty
		remaining[l.ProductID] = left.Sub(qty)
	}
	for i := range doc.Lines {
		if l := doc.Lines[i]; l.ActualQuantity != nil && l.ActualQuantity.IsPositive() {
			return true
		}
	}
	return false
}

// notify despacha el evento en segundo plano; el commit ya está confirmado y no espera al broker.
func (uc *WorkflowUseCase) notify(ctx context.Context, result *CommitResult, actor entity.Actor) {
	doc := result.Document
	event := DocumentDoneEvent{
		DocumentID:  doc.ID,
		Reference:   doc.Reference,
		Kind:        doc.Kind,
		Movements:   len(result.Movements),
		CommittedBy: actor.UserID,
		CompletedAt: *doc.CompletedTime,
	}
	ctx = context.WithoutCancel(ctx)
	uc.pending.Add(1)
	go func() {
		defer uc.pending.Done()
		ctx, cancel := context.WithTimeout(ctx, uc.cfg.NotifyTimeout)
		defer cancel()
		if err := uc.notifier.DocumentDone(ctx, event); err != nil {
			uc.log.Warn().Err(err).Str("document_id", event.DocumentID).Msg("no se pudo notificar la validación del documento")
		}
	}()
}

// Drain espera las notificaciones en curso o hasta que venza ctx. Se usa al apagar el servicio.
func (uc *WorkflowUseCase) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		uc.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (uc *WorkflowUseCase) logCommitFailure(id string, actor entity.Actor, err error) {
	ev := uc.log.Warn()
	if errors.Is(err, domain.ErrUnavailable) || !isDomainError(err) {
		ev = uc.log.Error()
	}
	ev.Err(err).Str("document_id", id).Str("user_id", actor.UserID).Msg("commit rechazado")
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound, domain.ErrInvalidInput, domain.ErrForbidden, domain.ErrUnauthorized,
		domain.ErrInvalidTransition, domain.ErrDocumentLocked, domain.ErrAlreadyProcessed,
		domain.ErrGuardFailed, domain.ErrInvalidMovement,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
