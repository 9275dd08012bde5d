package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestNotifier_PublicaEventoConClaveDelDocumento(t *testing.T) {
	w := &fakeWriter{}
	n := &Notifier{writer: w, timeout: time.Second}
	event := inventory.DocumentDoneEvent{
		DocumentID:  "doc-1",
		Reference:   "REC-0001",
		Kind:        entity.DocumentKindReceipt,
		Movements:   2,
		CommittedBy: "u-1",
		CompletedAt: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
	}

	require.NoError(t, n.DocumentDone(context.Background(), event))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "doc-1", string(w.msgs[0].Key))

	var got inventory.DocumentDoneEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, event, got)

	require.NoError(t, n.Close())
	assert.True(t, w.closed)
}

func TestNotifier_ErrorDelBroker_SePropaga(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker caído")}
	n := &Notifier{writer: w, timeout: time.Second}

	err := n.DocumentDone(context.Background(), inventory.DocumentDoneEvent{DocumentID: "doc-1", Reference: "DEL-0001"})
	assert.ErrorContains(t, err, "DEL-0001")
}
