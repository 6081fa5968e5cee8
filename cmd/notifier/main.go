package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"

	"storefront-service/internal/config"
	"storefront-service/internal/emaillog"
	"storefront-service/internal/notifier"
	"storefront-service/internal/rabbit"
)

func main() {
	cfg, err := config.LoadNotifier()
	if err != nil {
		log.Fatalf("Config inválida: %v", err)
	}
	config.SetupLogger(cfg.LogLevel, false)
	log.Info("Starting notifier...")

	db, err := emaillog.Open(cfg.DatabaseURL, cfg.MigrationsPath)
	if err != nil {
		log.WithError(err).Fatal("Could not prepare database")
	}
	defer db.Close()
	log.Info("Database migration successfully applied")

	conn, err := amqp091.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("Error conectando a RabbitMQ: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("Error creando canal en RabbitMQ: %v", err)
	}
	if err := rabbit.SetupNotifications(ch, true); err != nil {
		log.Fatal(err)
	}

	svc := notifier.NewService(
		notifier.NewSMTPEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom),
		emaillog.NewPostgresEmailRepository(db),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done, err := rabbit.Consume(ctx, ch, rabbit.NotificationsQueue, svc)
	if err != nil {
		log.Fatal(err)
	}

	select {
	case <-ctx.Done():
		log.Info("Caught signal, terminating")
	case <-done:
		log.Warn("Consumer stopped")
	}
}
