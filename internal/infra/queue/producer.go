package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/lead-capture/internal/entity"
	"github.com/xavierca1/lead-capture/internal/infra/metrics"
)

// Publisher is the subset of *amqp.Channel the producer needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch     Publisher
	Sender EmailSender
}

func NewProducer(ch Publisher, sender EmailSender) *RabbitMQProducer {
	return &RabbitMQProducer{
		Ch:     ch,
		Sender: sender,
	}
}

func (p *RabbitMQProducer) Dispatch(n entity.Notification) bool {
	if !p.Sender.Configured() {
		log.Printf("⚠️ [NOTIFY] relay not configured; lead #%d not emailed", n.LeadID)
		metrics.RecordNotification(metrics.NotificationSkipped)
		return false
	}

	body, err := json.Marshal(n)
	if err != nil {
		log.Printf("❌ [NOTIFY] erro ao converter payload do lead #%d: %v", n.LeadID, err)
		metrics.RecordNotification(metrics.NotificationDropped)
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		log.Printf("❌ [NOTIFY] falha ao publicar lead #%d no RabbitMQ: %v", n.LeadID, err)
		metrics.RecordNotification(metrics.NotificationDropped)
		return false
	}

	return true
}

func (p *RabbitMQProducer) Mode() string {
	return "rabbitmq"
}
