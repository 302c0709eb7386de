package mailer

// Service sends the attendee-facing emails. Implementations must treat a
// failed send as non-fatal for the booking flow; callers log and move on.
type Service interface {
	SendBookingConfirmation(toEmail, toName, when, cancelURL string) error
	SendCancellationNotice(toEmail, toName string, refundCents int64, isFullRefund bool) error
	SendReminder(toEmail, toName, when string) error
	SendWebinarRegistration(toEmail, toName, productName string, sessions []string, cancelURL string) error
}
