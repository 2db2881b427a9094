package queue

import (
	"context"
	"log"
	"sync"

	"github.com/xavierca1/lead-capture/internal/entity"
	"github.com/xavierca1/lead-capture/internal/infra/metrics"
)

// EmailSender is the single-attempt relay client (mail.EmailSender).
type EmailSender interface {
	Configured() bool
	Send(ctx context.Context, n entity.Notification) (bool, error)
}

// NotificationPool entrega as notificações fora do caminho da requisição
// com um número fixo de workers. Fila cheia descarta a notificação.
type NotificationPool struct {
	sender EmailSender
	jobs   chan entity.Notification
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewNotificationPool(sender EmailSender, workers, queueSize int) *NotificationPool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	p := &NotificationPool{
		sender: sender,
		jobs:   make(chan entity.Notification, queueSize),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for n := range p.jobs {
				deliver(context.Background(), p.sender, n)
			}
		}()
	}

	log.Printf(" [*] Notification pool rodando com %d workers (fila %d)", workers, queueSize)
	return p
}

// Dispatch never blocks. It reports whether the notification was queued.
func (p *NotificationPool) Dispatch(n entity.Notification) bool {
	if !p.sender.Configured() {
		log.Printf("⚠️ [NOTIFY] relay not configured; lead #%d not emailed", n.LeadID)
		metrics.RecordNotification(metrics.NotificationSkipped)
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		log.Printf("⚠️ [NOTIFY] pool closed; lead #%d not emailed", n.LeadID)
		metrics.RecordNotification(metrics.NotificationDropped)
		return false
	}

	select {
	case p.jobs <- n:
		return true
	default:
		log.Printf("⚠️ [NOTIFY] queue full; lead #%d not emailed", n.LeadID)
		metrics.RecordNotification(metrics.NotificationDropped)
		return false
	}
}

// Close stops accepting work and waits for queued notifications.
func (p *NotificationPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *NotificationPool) Mode() string {
	return "pool"
}

// deliver faz uma única tentativa; falha é logada e nunca reenfileirada.
func deliver(ctx context.Context, sender EmailSender, n entity.Notification) {
	sent, err := sender.Send(ctx, n)
	switch {
	case err != nil:
		log.Printf("❌ [NOTIFY] lead #%d: %v", n.LeadID, err)
		metrics.RecordNotification(metrics.NotificationFailed)
	case !sent:
		metrics.RecordNotification(metrics.NotificationSkipped)
	default:
		log.Printf("✅ [NOTIFY] lead #%d emailed", n.LeadID)
		metrics.RecordNotification(metrics.NotificationSent)
	}
}
