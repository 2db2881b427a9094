package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xavierca1/lead-capture/configs"
	"github.com/xavierca1/lead-capture/internal/infra/files"
	"github.com/xavierca1/lead-capture/internal/infra/http/handlers"
	"github.com/xavierca1/lead-capture/internal/infra/mail"
	"github.com/xavierca1/lead-capture/internal/infra/queue"
	"github.com/xavierca1/lead-capture/internal/usecase"
)

type dispatcher interface {
	usecase.NotificationDispatcher
	Mode() string
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := configs.Load()

	// 1. Sinks
	db, store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap do store: %w", err)
	}
	defer db.Close()

	// 2. Notificação
	sender := mail.NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPTo, cfg.SMTPTimeout)
	if !sender.Configured() {
		log.Println("⚠️ [SMTP] SMTP_USER/SMTP_PASSWORD ausentes; leads serão salvos sem email")
	}

	var notifier dispatcher
	if cfg.AMQPURL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.AMQPURL)
		if err != nil {
			return err
		}
		defer rabbitMQ.Close()

		consumerCh, err := rabbitMQ.Conn.Channel()
		if err != nil {
			return fmt.Errorf("falha ao abrir canal do worker: %w", err)
		}
		defer consumerCh.Close()

		worker := queue.NewWorker(consumerCh, sender)
		go func() {
			if err := worker.Start(ctx, queue.QueueName); err != nil {
				log.Printf("❌ [WORKER] %v", err)
			}
		}()

		notifier = queue.NewProducer(rabbitMQ.Ch, sender)
	} else {
		pool := queue.NewNotificationPool(sender, cfg.NotifyWorkers, cfg.NotifyQueueSize)
		defer pool.Close()
		notifier = pool
	}

	// 3. UseCase
	var archive usecase.AttachmentArchive
	if cfg.PersistAttachments {
		archive = files.NewAttachmentStore(cfg.AttachmentsDir())
	}
	captureUC := usecase.NewCaptureLeadUseCase(store, notifier, archive, cfg.RequireCompany)

	// 4. Handlers + Router
	leadHandler := handlers.NewLeadHandler(captureUC)
	healthHandler := handlers.NewHealthHandler(
		db, store, cfg.DataDir, cfg.AllowedOrigins, cfg.Version, notifier.Mode(), sender.Configured(),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(leadHandler, healthHandler, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🔥 Lead capture rodando na porta %s (data dir %s, notifier %s)", cfg.Port, cfg.DataDir, notifier.Mode())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("⚠️ Encerrando servidor...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
