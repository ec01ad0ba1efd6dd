// Command notifier consumes request lifecycle events and emails owners.
package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"atelier/internal/config"
	"atelier/internal/events"
	"atelier/internal/middleware"
	"atelier/internal/notify"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.AMQPURL == "" {
		log.Fatal("AMQP_URL is required for the notifier")
	}

	var sender notify.Sender = notify.LogSender{}
	if cfg.MailerSendAPIKey != "" {
		sender = notify.NewMailerSend(cfg.MailerSendAPIKey, cfg.MailFromEmail, cfg.MailFromName)
	} else {
		middleware.Logger.Warn("MAILERSEND_API_KEY not set, notifications are only logged")
	}
	n := notify.New(sender, cfg.PublicBaseURL)

	consumer, err := events.NewConsumer(cfg.AMQPURL, cfg.AMQPQueue)
	if err != nil {
		log.Fatalf("Failed to connect to event broker: %v", err)
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			middleware.Logger.Error("error closing consumer", slog.String("error", err.Error()))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	middleware.Logger.Info("notifier started", slog.String("queue", cfg.AMQPQueue))
	if err := consumer.Run(ctx, n.Handle); err != nil {
		middleware.Logger.Error("notifier stopped", slog.String("error", err.Error()))
	}
}
