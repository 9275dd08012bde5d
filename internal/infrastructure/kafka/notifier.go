// Package kafka publica los eventos de documentos validados en un tópico de Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	kafkago "github.com/segmentio/kafka-go"
)

var _ inventory.Notifier = (*Notifier)(nil)

// messageWriter lo que el notificador necesita del writer de kafka-go.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Notifier publica DocumentDoneEvent como JSON con el id del documento como clave,
// así todos los eventos de un documento caen en la misma partición.
type Notifier struct {
	writer  messageWriter
	timeout time.Duration
}

// NewNotifier crea el writer sobre los brokers configurados.
func NewNotifier(cfg config.KafkaConfig) *Notifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafkago.RequireOne,
	}
	return &Notifier{writer: w, timeout: 5 * time.Second}
}

// DocumentDone publica el evento. El error lo registra el flujo; nunca revierte el commit.
func (n *Notifier) DocumentDone(ctx context.Context, event inventory.DocumentDoneEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serializar evento: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	msg := kafkago.Message{
		Key:   []byte(event.DocumentID),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event", Value: []byte("document.done")},
			{Key: "kind", Value: []byte(event.Kind)},
		},
		Time: event.CompletedAt,
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publicar evento %s: %w", event.Reference, err)
	}
	return nil
}

// Close vacía los mensajes pendientes y cierra las conexiones.
func (n *Notifier) Close() error {
	return n.writer.Close()
}
