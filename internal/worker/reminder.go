// Package worker runs the reminder scan: upcoming events whose reminder has
// not gone out yet get an email and a notify event, then the sent flag is
// stamped so the next scan skips them.
package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/slotwise/slotwise/internal/mailer"
	"github.com/slotwise/slotwise/internal/repo/postgres"
	"github.com/slotwise/slotwise/pkg/events"
	"github.com/slotwise/slotwise/pkg/logger"
)

const scanBatchSize = 200

type ReminderWorker struct {
	eventRepo postgres.EventRepository
	mail      mailer.Service
	eventBus  events.Publisher
	leadTime  time.Duration
	scanSpec  string

	cron *cron.Cron
}

func NewReminderWorker(
	eventRepo postgres.EventRepository,
	mail mailer.Service,
	eventBus events.Publisher,
	leadTime time.Duration,
	scanSpec string,
) *ReminderWorker {
	return &ReminderWorker{
		eventRepo: eventRepo,
		mail:      mail,
		eventBus:  eventBus,
		leadTime:  leadTime,
		scanSpec:  scanSpec,
	}
}

// Start schedules the periodic scan and returns immediately.
func (w *ReminderWorker) Start() error {
	w.cron = cron.New()
	if _, err := w.cron.AddFunc(w.scanSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		w.Scan(ctx)
	}); err != nil {
		return err
	}
	w.cron.Start()
	return nil
}

func (w *ReminderWorker) Stop() {
	if w.cron != nil {
		<-w.cron.Stop().Done()
	}
}

// Scan is one pass. Exported so a deployment can also trigger it ad hoc.
func (w *ReminderWorker) Scan(ctx context.Context) {
	due, err := w.eventRepo.ListDueReminders(ctx, time.Now().Add(w.leadTime), scanBatchSize)
	if err != nil {
		logger.ErrorContext(ctx, "Reminder scan failed", "error", err)
		return
	}

	for _, ev := range due {
		when := ev.StartTime.Format(time.RFC1123)
		if err := w.mail.SendReminder(ev.AttendeeEmail, ev.AttendeeName, when); err != nil {
			logger.ErrorContext(ctx, "Failed to send reminder", "error", err, "event_id", ev.ID)
			continue
		}

		if err := w.eventRepo.MarkReminderSent(ctx, ev.ID); err != nil {
			logger.ErrorContext(ctx, "Failed to mark reminder sent", "error", err, "event_id", ev.ID)
			continue
		}

		if err := w.eventBus.Publish(ctx, events.NotifySend, events.NotificationEvent{
			Type:      "booking_reminder",
			Recipient: ev.AttendeeEmail,
			Subject:   "Reminder: your upcoming booking",
			Template:  "reminder",
			Data: map[string]interface{}{
				"event_id": ev.ID,
				"when":     when,
			},
		}); err != nil {
			logger.ErrorContext(ctx, "Failed to publish notify event", "error", err, "event_id", ev.ID)
		}
	}

	if len(due) > 0 {
		logger.InfoContext(ctx, "Reminder scan completed", "sent", len(due))
	}
}
