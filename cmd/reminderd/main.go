package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/slotwise/slotwise/internal/mailer"
	"github.com/slotwise/slotwise/internal/repo/postgres"
	"github.com/slotwise/slotwise/internal/worker"
	"github.com/slotwise/slotwise/pkg/config"
	"github.com/slotwise/slotwise/pkg/database"
	"github.com/slotwise/slotwise/pkg/events"
	"github.com/slotwise/slotwise/pkg/logger"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	var mail mailer.Service
	switch {
	case cfg.Email.DevMode:
		mail = mailer.NewDevMailer()
	case cfg.Email.MailerSendKey != "":
		mail = mailer.NewMailerSend(cfg.Email.MailerSendKey, "Slotwise", cfg.Email.SMTPFrom)
	default:
		mail = mailer.NewSMTPMailer(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPFrom,
			cfg.Email.SMTPUser, cfg.Email.SMTPPass, cfg.Email.SMTPUseTLS)
	}

	eventRepo := postgres.NewEventRepository(pool)

	w := worker.NewReminderWorker(eventRepo, mail, eventBus,
		cfg.Booking.ReminderLeadTime, cfg.Booking.ReminderScanSpec)
	if err := w.Start(); err != nil {
		logger.Error("Failed to start reminder worker", "error", err)
		os.Exit(1)
	}

	logger.Info("Reminder worker started", "scan_spec", cfg.Booking.ReminderScanSpec)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down reminder worker...")
	w.Stop()
}
