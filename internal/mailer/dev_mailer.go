package mailer

import (
	"strings"

	"github.com/slotwise/slotwise/pkg/logger"
)

// DevMailer logs instead of sending. Default in local development.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendBookingConfirmation(toEmail, toName, when, cancelURL string) error {
	logger.Info("[DEV MAIL] Booking confirmation",
		"to", toEmail,
		"name", toName,
		"when", when,
		"cancel_url", cancelURL,
	)
	return nil
}

func (d *DevMailer) SendCancellationNotice(toEmail, toName string, refundCents int64, isFullRefund bool) error {
	logger.Info("[DEV MAIL] Cancellation notice",
		"to", toEmail,
		"name", toName,
		"refund_cents", refundCents,
		"full_refund", isFullRefund,
	)
	return nil
}

func (d *DevMailer) SendReminder(toEmail, toName, when string) error {
	logger.Info("[DEV MAIL] Booking reminder",
		"to", toEmail,
		"name", toName,
		"when", when,
	)
	return nil
}

func (d *DevMailer) SendWebinarRegistration(toEmail, toName, productName string, sessions []string, cancelURL string) error {
	logger.Info("[DEV MAIL] Webinar registration",
		"to", toEmail,
		"name", toName,
		"product", productName,
		"sessions", strings.Join(sessions, "; "),
		"cancel_url", cancelURL,
	)
	return nil
}
