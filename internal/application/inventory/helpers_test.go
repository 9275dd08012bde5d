package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	appinv "github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	locStock  = "WH/Stock"
	locBackup = "WH/Backup"
	productP  = "P"
)

var (
	admin     = entity.Actor{UserID: "u-admin", Role: entity.RoleAdmin}
	bodeguero = entity.Actor{UserID: "u-bodega", Role: entity.RoleBodeguero}
	vendedor  = entity.Actor{UserID: "u-venta", Role: entity.RoleVendedor}
)

// recordingNotifier guarda los eventos recibidos.
type recordingNotifier struct {
	mu     sync.Mutex
	events []appinv.DocumentDoneEvent
	err    error
}

func (n *recordingNotifier) DocumentDone(_ context.Context, ev appinv.DocumentDoneEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

// snapshot copia de los eventos recibidos.
func (n *recordingNotifier) snapshot() []appinv.DocumentDoneEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]appinv.DocumentDoneEvent(nil), n.events...)
}

// blockingNotifier retiene cada notificación hasta que se cierra release.
type blockingNotifier struct {
	release chan struct{}
	sent    chan appinv.DocumentDoneEvent
}

func (n *blockingNotifier) DocumentDone(ctx context.Context, ev appinv.DocumentDoneEvent) error {
	select {
	case <-n.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	n.sent <- ev
	return nil
}

// recordingAnomalies guarda los saldos negativos reportados.
type recordingAnomalies struct {
	mu   sync.Mutex
	seen []string
}

func (a *recordingAnomalies) NegativeStock(_ context.Context, productID, locationID string, _ decimal.Decimal) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seen = append(a.seen, productID+"@"+locationID)
}

type fixture struct {
	store     *memory.Store
	ledger    *appinv.StockLedger
	workflow  *appinv.WorkflowUseCase
	notifier  *recordingNotifier
	anomalies *recordingAnomalies
}

func newFixture(t *testing.T, policy appinv.ShortagePolicy) *fixture {
	t.Helper()
	store := memory.New()
	notifier := &recordingNotifier{}
	anomalies := &recordingAnomalies{}
	ledger := appinv.NewStockLedger(store.Movements(), anomalies, nil, appinv.LedgerConfig{HistoryPageSize: 2})
	guard := appinv.NewAvailabilityGuard(ledger)
	wf := appinv.NewWorkflowUseCase(store, store.Documents(), ledger, guard, notifier, nil,
		appinv.WorkflowConfig{StorageTimeout: time.Second, ShortagePolicy: policy})
	return &fixture{store: store, ledger: ledger, workflow: wf, notifier: notifier, anomalies: anomalies}
}

// events espera las notificaciones en curso y devuelve las recibidas.
func (f *fixture) events(t *testing.T) []appinv.DocumentDoneEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.workflow.Drain(ctx))
	return f.notifier.snapshot()
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// readyDocument crea el documento, registra las cantidades indicadas y lo pasa a ready.
func (f *fixture) readyDocument(t *testing.T, draft domaininv.DocumentDraft, actual ...int64) *entity.Document {
	t.Helper()
	ctx := context.Background()
	doc, err := f.workflow.CreateDocument(ctx, bodeguero, draft)
	require.NoError(t, err)
	if len(actual) > 0 {
		updates := make([]domaininv.QuantityUpdate, len(doc.Lines))
		for i, l := range doc.Lines {
			updates[i] = domaininv.QuantityUpdate{LineID: l.ID, ActualQuantity: dec(actual[i])}
		}
		doc, err = f.workflow.UpdateQuantities(ctx, doc.ID, updates)
		require.NoError(t, err)
	}
	doc, err = f.workflow.SetReady(ctx, doc.ID)
	require.NoError(t, err)
	return doc
}

// receive deja qty unidades del producto en la ubicación mediante una recepción validada.
func (f *fixture) receive(t *testing.T, productID, location string, qty int64) {
	t.Helper()
	doc := f.readyDocument(t, domaininv.DocumentDraft{
		Kind:                entity.DocumentKindReceipt,
		Supplier:            "Proveedor S.A.",
		DestinationLocation: location,
		Lines:               []entity.LineItem{{ProductID: productID, PlannedQuantity: dec(qty)}},
	}, qty)
	_, err := f.workflow.Commit(context.Background(), doc.ID, bodeguero)
	require.NoError(t, err)
}

func deliveryDraft(location string, lines ...entity.LineItem) domaininv.DocumentDraft {
	return domaininv.DocumentDraft{
		Kind:           entity.DocumentKindDelivery,
		Customer:       "Cliente Final",
		SourceLocation: location,
		Lines:          lines,
	}
}
