package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Flujo completo
// ──────────────────────────────────────────────────────────────────────────────

func TestWorkflow_RecepcionCompleta_SumaStock(t *testing.T) {
	f := newFixture(t, appinv.ShortagePolicyBlock)
	ctx := context.Background()

	doc, err := f.workflow.CreateDocument(ctx, bodeguero, domaininv.DocumentDraft{
		Kind:                entity.DocumentKindReceipt,
		Supplier:            "Proveedor S.A.",
		DestinationLocation: locStock,
		Lines:               []entity.LineItem{{ProductID: productP, PlannedQuantity: dec(20)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "REC-0001", doc.Reference)
	assert.Equal(t, entity.StatusDraft, doc.Status)

	doc, err = f.workflow.UpdateQuantities(ctx, doc.ID, []domaininv.QuantityUpdate{
		{LineID: doc.Lines[0].ID, ActualQuantity: dec(20)},
	})
	require.NoError(t, err)
	doc, err = f.workflow.SetReady(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusReady, doc.Status)

	res, err := f.workflow.Commit(ctx, doc.ID, bodeguero)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDone, res.Document.Status)
	require.NotNil(t, res.Document.CompletedTime)

	stock, err := f.ledger.CurrentStock(ctx, productP)
	require.NoError(t, err)
	assert.True(t, stock.Equal(dec(20)), "stock esperado 20, obtenido %s", stock)

	movs, err := f.ledger.MovementsOf(ctx, entity.DocumentKindReceipt, doc.ID)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementKindInbound, movs[0].Kind)
	assert.Equal(t, entity.OriginDocument{Type: entity.DocumentKindReceipt, ID: doc.ID}, movs[0].Origin)
	assert.Equal(t, locStock, movs[0].DestinationLocation)

	events := f.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, "REC-0001", events[0].Reference)
	assert.Equal(t, 1, events[0].Movements)
}

func TestWorkflow_DespachoDespuesDeRecepcion_RestaStock(t *testing.T) {
	f := newFixture(t, appinv.ShortagePolicyBlock)
	ctx := context.Background()
	f.receive(t, productP, locStock, 20)

	doc := f.readyDocument(t, deliveryDraft(locStock, entity.LineItem{ProductID: productP, PlannedQuantity: dec(5)}), 5)
	assert.Equal(t, "DEL-0001", doc.Reference)

	res, err := f.workflow.Commit(ctx, doc.ID, bodeguero)
	require.NoError(t, err)
	require.Len(t, res.Movements, 1)
	assert.Equal(t, entity.MovementKindOutbound, res.Movements[0].Kind)
	assert.Equal(t, locStock, res.Movements[0].SourceLocation)

	stock, err := f.ledger.CurrentStock(ctx, productP)
	require.NoError(t, err)
	assert.True(t, stock.Equal(dec(15)), "stock esperado 15, obtenido %s", stock)
}

func TestWorkflow_Traslado_MueveEntreUbicacionesSinCambiarGlobal(t *testing.T) {
	f := newFixture(t, appinv.ShortagePolicyBlock)
	ctx := context.Background()
	f.receive(t, productP, locStock, 10)

	doc := f.readyDocument(t, domaininv.DocumentDraft{
		Kind:                entity.DocumentKindTransfer,
		SourceLocation:      locStock,
		DestinationLocation: locBackup,
		Lines:               []entity.LineItem{{ProductID: productP, PlannedQuantity: dec(4)}},
	}, 4)
	_, err := f.workflow.Commit(ctx, doc.ID, bodeguero)
	require.NoError(t, err)

	global, err := f.ledger.CurrentStock(ctx, productP)
	require.NoError(t, err)
	atStock, err := f.ledger.CurrentStockAtLocation(ctx, productP, locStock)
	require.NoError(t, err)
	atBackup, err := f.ledger.CurrentStockAtLocation(ctx, productP, locBackup)
	require.NoError(t, err)

	assert.True(t, global.Equal(dec(10)))
	assert.True(t, atStock.Equal(dec(6)))
	assert.True(t, atBackup.Equal(dec(4)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Guarda de disponibilidad
// ──────────────────────────────────────────────────────────────────────────────

func TestWorkflow_DespachoSinStock_FallaConFaltante(t *testing.T) {
	f := newFixture(t, appinv.ShortagePolicyBlock)
	ctx := context.Background()
	f.receive(t, productP, locStock, 10)

	doc := f.readyDocument(t, deliveryDraft(locStock, entity.LineItem{ProductID: productP, PlannedQuantity: dec(15)}), 15)
	_, err := f.workflow.Commit(ctx, doc.ID, bodeguero)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrGuardFailed))
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	var shortErr *domain.ShortageError
	require.True(t, errors.As(err, &shortErr))
	require.Len(t, shortErr.Lines, 1)
	assert.True(t, shortErr.Lines[0].Shortage.Equal(dec(5)), "faltante esperado 5, obtenido %s", shortErr.Lines[0].Shortage)
	assert.True(t, shortErr.Lines[0].Available.Equal(dec(10)))

	// el documento sigue en ready y no hay movimientos
	got, err := f.workflow.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusReady, got.Status)
	movs, err := f.ledger.MovementsOf(ctx, entity.DocumentKindDelivery, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, movs)
	assert.Len(t, f.events(t), 1, "solo la recepción notifica")
}

func TestWorkflow_DespachoIgualAlStock_Valida(t *testing.T) {
	f := newFixture(t, appinv.ShortagePolicyBlock)
	f.receive(t, productP, locStock, 10)

	doc := f.readyDocument(t, deliveryDraft(locStock, entity.LineItem{ProductID: productP, PlannedQuantity: dec(10)}), 10)
	_, err := f.workflow.Commit(context.Background(), doc.ID, bodeguero)
	require.NoError(t, err)

	stock, err := f.ledger.CurrentStock(context.Background(), productP)
	require.NoError(t, err)
	assert.True(t, stock.IsZero())
}

func TestWorkflow_LineasDelMismoProducto_SeAgreganEnLaGuarda(t *testing.T) {
	f := newFixture(t, appinv.ShortagePolicyBlock)
	f.receive(t, productP, locStock, 10)

	doc := f.readyDocument(t, deliveryDraft(locStock,
		entity.LineItem{ProductID: productP, PlannedQuantity: dec(6)},
		entity.LineItem{ProductID: productP, PlannedQuantity: dec(6)},
	), 6, 6)
	_, err := f.workflow.Commit(context.Background(), doc.ID, bodeguero)

	var shortErr *domain.ShortageError
	require.True(t, errors.As(err, &shortErr))
	assert.True(t, shortErr.Lines[0].Required.Equal(dec(12)))
	assert.True(t, shortErr.Lines[0].Shortage.Equal(dec(2)))
}

func TestWorkflow_PoliticaParcial_DespachaLoDisponible(t *testing.T) {
	f := newFixture(t, appinv.ShortagePolicyPartial)
	ctx := context.Background()
	f.receive(t, productP, locStock, 3)

	doc := f.readyDocument(t, deliveryDraft(locStock, entity.LineItem{ProductID: productP, PlannedQuantity: dec(5)}), 5)
	res, err := f.workflow.Commit(ctx, doc.ID, bodeguero)
	require.NoError(t, err)
	require.Len(t, res.Shortfalls, 1)
	assert.True(t, res.Shortfalls[0].Shortage.Equal(dec(2)))
	require.Len(t, res.Movements, 1)
	assert.True(t, res.Movements[0].Quantity.Equal(dec(3)))
	assert.True(t, res.Document.Lines[0].ActualQuantity.Equal(dec(3)))

	stock, err := f.ledger.CurrentStock(ctx, productP)
	require.NoError(t, err)
	assert.True(t, stock.IsZero())
}

func TestWorkflow_PoliticaParcialSinNadaQueDespachar_Bloquea(t *testing.T) {
	f := newFixture(t, appinv.ShortagePolicyPartial)

	doc := f.readyDocument(t, deliveryDraft(locStock, entity.LineItem{ProductID: productP, PlannedQuantity: dec(5)}), 5)
	_, err := f.workflow.Commit(context.Background(), doc.ID, bodeguero)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestWorkflow_PoliticaParcial_NoAplicaATraslados(t *testing.T) {
	f := newFixture(t, appinv.ShortagePolicyPartial)
	f.receive(t, productP, locStock, 3)

	doc := f.readyDocument(t, domaininv.DocumentDraft{
		Kind:                entity.DocumentKindTransfer,
		SourceLocation:      locStock,
		DestinationLocation: locBackup,
		Lines:               []entity.LineItem{{ProductID: productP, PlannedQuantity: dec(5)}},
	}, 5)
	_, err := f.workflow.Commit(context.Background(), doc.ID, bodeguero)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

// ──────────────────────────────────────────────────────────────────────────────
// Exactamente una vez
// ──────────────────────────────────────────────────────────────────────────────

func TestWorkflow_CommitConcurrente_UnSoloJuegoDeMovimientos(t *testing.T) {
	f := newFixture(t, appinv.ShortagePolicyBlock)
	ctx := context.Background()
	doc := f.readyDocument(t, domaininv.DocumentDraft{
		Kind:                entity.DocumentKindReceipt,
		DestinationLocation: locStock,
		Lines:               []entity.LineItem{{ProductID: productP, PlannedQuantity: dec(20)}},
	}, 20)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		already   int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.workflow.Commit(ctx, doc.ID, bodeguero)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrAlreadyProcessed):
				already++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, already)

	movs, err := f.ledger.MovementsOf(ctx, entity.DocumentKindReceipt, doc.ID)
	require.NoError(t, err)
	assert.Len(t, movs, 1)
	stock, err := f.ledger.CurrentStock(ctx, productP)
	require.NoError(t, err)
	assert.True(t, stock.Equal(dec(20)))
}

func TestWorkflow_DespachosConcurrentes_NoSobregiranElStock(t *testing.T) {
	f := newFixture(t, appinv.ShortagePolicyBlock)
	ctx := context.Background()
	f.receive(t, productP, locStock, 10)

	docs := make([]*entity.Document, 3)
	for i := range docs {
		docs[i] = f.readyDocument(t, deliveryDraft(locStock, entity.LineItem{ProductID: productP, PlannedQuantity: dec(4)}), 4)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(docs))
	for i, d := range docs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.workflow.Commit(ctx, d.ID, bodeguero)
		}()
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			require.ErrorIs(t, err, domain.ErrInsufficientStock)
			failed++
		}
	}
	assert.Equal(t, 1, failed, "solo caben dos despachos de 4 en 10 unidades")

	stock, err := f.ledger.CurrentStock(ctx, productP)
	require.NoError(t, err)
	assert.True(t, stock.Equal(dec(2)))
}

func TestWorkflow_ReferenciasConcurrentes_SonUnicas(t *testing.T) {
	f := newFixture(t, appinv.ShortagePolicyBlock)
	ctx := context.Background()

	const n = 20
	refs := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := f.workflow.CreateDocument(ctx, vendedor, deliveryDraft(locStock,
				entity.LineItem{ProductID: productP, PlannedQuantity: dec(1)}))
			if assert.NoError(t, err) {
				refs[i] = doc.Reference
			}
		}()
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, r := range refs {
		assert.False(t, seen[r], "referencia repetida %s", r)
		seen[r] = true
	}
	for i := 1; i <= n; i++ {
		assert.True(t, seen[fmt.Sprintf("DEL-%04d", i)])
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Ajustes
// ──────────────────────────────────────────────────────────────────────────────

func TestWorkflow_Ajuste_SoloDiferenciasGeneranMovimientos(t *testing.T) {
	f := newFixture(t, appinv.ShortagePolicyBlock)
	ctx := context.Background()
	f.receive(t, productP, locStock, 10)
	f.receive(t, "Q", locStock, 4)

	doc, err := f.workflow.CreateDocument(ctx, bodeguero, domaininv.DocumentDraft{
		Kind:     entity.DocumentKindAdjustment,
		Location: locStock,
		Lines: []entity.LineItem{
			{ProductID: productP, TheoreticalQuantity: decPtr(10), ActualQuantity: decPtr(7)},
			{ProductID: "Q", TheoreticalQuantity: decPtr(4), ActualQuantity: decPtr(4)},
			{ProductID: "R", TheoreticalQuantity: decPtr(0), ActualQuantity: decPtr(2)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "ADJ-0001", doc.Reference)
	_, err = f.workflow.SetReady(ctx, doc.ID)
	require.NoError(t, err)

	res, err := f.workflow.Commit(ctx, doc.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, admin.UserID, res.Document.Approver)
	require.Len(t, res.Movements, 2)

	byProduct := map[string]*entity.Movement{}
	for _, m := range res.Movements {
		byProduct[m.ProductID] = m
	}
	require.Contains(t, byProduct, productP)
	require.Contains(t, byProduct, "R")
	assert.NotContains(t, byProduct, "Q")

	shrink := byProduct[productP]
	assert.Equal(t, entity.MovementKindAdjustment, shrink.Kind)
	assert.True(t, shrink.Quantity.Equal(dec(3)))
	assert.Equal(t, locStock, shrink.SourceLocation)
	assert.Empty(t, shrink.DestinationLocation)

	surplus := byProduct["R"]
	assert.True(t, surplus.Quantity.Equal(dec(2)))
	assert.Equal(t, locStock, surplus.DestinationLocation)
	assert.Empty(t, surplus.SourceLocation)

	p, err := f.ledger.CurrentStock(ctx, productP)
	require.NoError(t, err)
	assert.True(t, p.Equal(dec(7)))
	r, err := f.ledger.CurrentStock(ctx, "R")
	require.NoError(t, err)
	assert.True(t, r.Equal(dec(2)))
}

func TestWorkflow_Ajuste_BodegueroNoPuedeAprobar(t *testing.T) {
	f := newFixture(t, appinv.ShortagePolicyBlock)
	ctx := context.Background()
	doc, err := f.workflow.CreateDocument(ctx, bodeguero, domaininv.DocumentDraft{
		Kind:     entity.DocumentKindAdjustment,
		Location: locStock,
		Lines:    []entity.LineItem{{ProductID: "R", TheoreticalQuantity: decPtr(0), ActualQuantity: decPtr(2)}},
	})
	require.NoError(t, err)
	_, err = f.workflow.SetReady(ctx, doc.ID)
	require.NoError(t, err)

	_, err = f.workflow.Commit(ctx, doc.ID, bodeguero)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.workflow.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusReady, got.Status)
}

func TestWorkflow_VendedorNoPuedeValidar(t *testing.T) {
	f := newFixture(t, appinv.ShortagePolicyBlock)
	doc := f.readyDocument(t, domaininv.DocumentDraft{
		Kind:                entity.DocumentKindReceipt,
		DestinationLocation: locStock,
		Lines:               []entity.LineItem{{ProductID: productP, PlannedQuantity: dec(1)}},
	}, 1)
	_, err := f.workflow.Commit(context.Background(), doc.ID, vendedor)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ──────────────────────────────────────────────────────────────────────────────
// Máquina de estados
// ──────────────────────────────────────────────────────────────────────────────

func TestWorkflow_TrasladoMismaUbicacion_RechazadoAlCrear(t *testing.T) {
	f := newFixture(t, appinv.ShortagePolicyBlock)
	_, err := f.workflow.CreateDocument(context.Background(), bodeguero, domaininv.DocumentDraft{
		Kind:                entity.DocumentKindTransfer,
		SourceLocation:      locStock,
		DestinationLocation: locStock,
		Lines:               []entity.LineItem{{ProductID: productP, PlannedQuantity: dec(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransfer)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	docs, err := f.workflow.ListDocuments(context.Background(), repository.DocumentFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, docs, "no debe persistirse nada")
}

func TestWorkflow_ReadySinCantidades_FallaGuarda(t *testing.T) {
	f := newFixture(t, appinv.ShortagePolicyBlock)
	doc, err := f.workflow.CreateDocument(context.Background(), bodeguero, deliveryDraft(locStock,
		entity.LineItem{ProductID: productP, PlannedQuantity: dec(2)}))
	require.NoError(t, err)

	_, err = f.workflow.SetReady(context.Background(), doc.ID)
	assert.ErrorIs(t, err, domain.ErrMissingQuantities)
	assert.ErrorIs(t, err, domain.ErrGuardFailed)
}

func TestWorkflow_CommitDesdeDraft_TransicionInvalida(t *testing.T) {
	f := newFixture(t, appinv.ShortagePolicyBlock)
	doc, err := f.workflow.CreateDocument(context.Background(), bodeguero, deliveryDraft(locStock,
		entity.LineItem{ProductID: productP, PlannedQuantity: dec(2)}))
	require.NoError(t, err)

	_, err = f.workflow.Commit(context.Background(), doc.ID, bodeguero)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestWorkflow_DocumentoDone_QuedaBloqueado(t *testing.T) {
	f := newFixture(t, appinv.ShortagePolicyBlock)
	ctx := context.Background()
	doc := f.readyDocument(t, domaininv.DocumentDraft{
		Kind:                entity.DocumentKindReceipt,
		DestinationLocation: locStock,
		Lines:               []entity.LineItem{{ProductID: productP, PlannedQuantity: dec(3)}},
	}, 3)
	_, err := f.workflow.Commit(ctx, doc.ID, bodeguero)
	require.NoError(t, err)

	_, err = f.workflow.UpdateLineItems(ctx, doc.ID, []entity.LineItem{{ProductID: productP, PlannedQuantity: dec(9)}})
	assert.ErrorIs(t, err, domain.ErrDocumentLocked)

	_, err = f.workflow.UpdateQuantities(ctx, doc.ID, []domaininv.QuantityUpdate{{LineID: doc.Lines[0].ID, ActualQuantity: dec(9)}})
	assert.ErrorIs(t, err, domain.ErrDocumentLocked)

	_, err = f.workflow.SetWaiting(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentLocked)

	_, err = f.workflow.Cancel(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.workflow.Commit(ctx, doc.ID, bodeguero)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
}

func TestWorkflow_Cancelar_NoGeneraMovimientos(t *testing.T) {
	f := newFixture(t, appinv.ShortagePolicyBlock)
	ctx := context.Background()
	doc, err := f.workflow.CreateDocument(ctx, bodeguero, deliveryDraft(locStock,
		entity.LineItem{ProductID: productP, PlannedQuantity: dec(2)}))
	require.NoError(t, err)
	doc, err = f.workflow.SetWaiting(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusWaiting, doc.Status)

	doc, err = f.workflow.Cancel(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, doc.Status)

	_, err = f.workflow.Commit(ctx, doc.ID, bodeguero)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	movs, err := f.ledger.MovementsOf(ctx, entity.DocumentKindDelivery, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, movs)
}

func TestWorkflow_DocumentoInexistente_NotFound(t *testing.T) {
	f := newFixture(t, appinv.ShortagePolicyBlock)
	_, err := f.workflow.GetDocument(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.workflow.Commit(context.Background(), "no-existe", admin)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWorkflow_FalloDelNotificador_NoRevierteElCommit(t *testing.T) {
	f := newFixture(t, appinv.ShortagePolicyBlock)
	f.notifier.err = errors.New("broker caído")
	doc := f.readyDocument(t, domaininv.DocumentDraft{
		Kind:                entity.DocumentKindReceipt,
		DestinationLocation: locStock,
		Lines:               []entity.LineItem{{ProductID: productP, PlannedQuantity: dec(3)}},
	}, 3)

	res, err := f.workflow.Commit(context.Background(), doc.ID, bodeguero)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDone, res.Document.Status)
	assert.Len(t, f.events(t), 1)
}

func TestWorkflow_NotificadorLento_NoDemoraElCommit(t *testing.T) {
	store := memory.New()
	ledger := appinv.NewStockLedger(store.Movements(), nil, nil, appinv.LedgerConfig{})
	notifier := &blockingNotifier{release: make(chan struct{}), sent: make(chan appinv.DocumentDoneEvent, 1)}
	wf := appinv.NewWorkflowUseCase(store, store.Documents(), ledger, appinv.NewAvailabilityGuard(ledger), notifier, nil,
		appinv.WorkflowConfig{StorageTimeout: time.Second, NotifyTimeout: 5 * time.Second})
	ctx := context.Background()

	doc, err := wf.CreateDocument(ctx, bodeguero, domaininv.DocumentDraft{
		Kind:                entity.DocumentKindReceipt,
		DestinationLocation: locStock,
		Lines:               []entity.LineItem{{ProductID: productP, PlannedQuantity: dec(2)}},
	})
	require.NoError(t, err)
	_, err = wf.UpdateQuantities(ctx, doc.ID, []domaininv.QuantityUpdate{{LineID: doc.Lines[0].ID, ActualQuantity: dec(2)}})
	require.NoError(t, err)
	_, err = wf.SetReady(ctx, doc.ID)
	require.NoError(t, err)

	start := time.Now()
	res, err := wf.Commit(ctx, doc.ID, bodeguero)
	elapsed := time.Since(start)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDone, res.Document.Status)
	assert.Less(t, elapsed, 500*time.Millisecond, "el commit no debe esperar al notificador")

	// la notificación sigue pendiente hasta liberar el notificador
	drainCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, wf.Drain(drainCtx), context.DeadlineExceeded)

	close(notifier.release)
	select {
	case ev := <-notifier.sent:
		assert.Equal(t, res.Document.Reference, ev.Reference)
	case <-time.After(2 * time.Second):
		t.Fatal("la notificación no se envió")
	}
	require.NoError(t, wf.Drain(ctx))
}

func TestWorkflow_ListarDocumentos_FiltraPorTipoYEstado(t *testing.T) {
	f := newFixture(t, appinv.ShortagePolicyBlock)
	ctx := context.Background()
	f.receive(t, productP, locStock, 5)
	_, err := f.workflow.CreateDocument(ctx, vendedor, deliveryDraft(locStock,
		entity.LineItem{ProductID: productP, PlannedQuantity: dec(1)}))
	require.NoError(t, err)

	done, err := f.workflow.ListDocuments(ctx, repository.DocumentFilter{Status: entity.StatusDone}, 10, 0)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, entity.DocumentKindReceipt, done[0].Kind)

	deliveries, err := f.workflow.ListDocuments(ctx, repository.DocumentFilter{Kind: entity.DocumentKindDelivery}, 10, 0)
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	assert.Equal(t, entity.StatusDraft, deliveries[0].Status)
}
