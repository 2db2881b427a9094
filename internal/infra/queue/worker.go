package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/lead-capture/internal/entity"
)

// Worker consome a fila de notificações e faz uma tentativa de envio por mensagem.
type Worker struct {
	Channel *amqp.Channel
	Sender  EmailSender
}

func NewWorker(ch *amqp.Channel, sender EmailSender) *Worker {
	return &Worker{
		Channel: ch,
		Sender:  sender,
	}
}

// Start blocks until ctx is done or the delivery channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName, // fila
		"",        // consumer
		false,     // auto-ack
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		return fmt.Errorf("falha ao registrar consumidor RabbitMQ: %w", err)
	}

	log.Printf(" [*] Worker rodando e aguardando na fila '%s'", queueName)

	for {
		select {
		case <-ctx.Done():
			log.Println("⚠️ [WORKER] encerrado")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			w.handle(ctx, d.Body, d)
		}
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (w *Worker) handle(ctx context.Context, body []byte, d acknowledger) {
	var n entity.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		log.Printf("❌ [WORKER] JSON inválido: %s", err)
		d.Nack(false, false)
		return
	}

	// ack antes do envio: um crash no meio não gera segunda tentativa
	d.Ack(false)

	deliver(ctx, w.Sender, n)
}
