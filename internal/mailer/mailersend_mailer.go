package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) SendBookingConfirmation(toEmail, toName, when, cancelURL string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := "Your booking is confirmed"
	html := fmt.Sprintf(`
		<h2>Booking confirmed</h2>
		<p>Hi %s,</p>
		<p>Your booking for <strong>%s</strong> is confirmed.</p>
		<p>If you need to cancel, click below:</p>
		<p><a href="%s" style="background-color: #e53935; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Cancel Booking</a></p>
	`, toName, when, cancelURL)
	text := fmt.Sprintf("Your booking for %s is confirmed.\n\nNeed to cancel? Use this link: %s", when, cancelURL)

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) SendCancellationNotice(toEmail, toName string, refundCents int64, isFullRefund bool) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	refundLine := "No refund applies under the cancellation policy."
	if refundCents > 0 {
		kind := "partial"
		if isFullRefund {
			kind = "full"
		}
		refundLine = fmt.Sprintf("A %s refund of $%.2f is on its way.", kind, float64(refundCents)/100)
	}

	subject := "Your booking has been cancelled"
	html := fmt.Sprintf(`
		<h2>Booking cancelled</h2>
		<p>Hi %s,</p>
		<p>Your booking has been cancelled.</p>
		<p>%s</p>
	`, toName, refundLine)
	text := fmt.Sprintf("Your booking has been cancelled.\n\n%s", refundLine)

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) SendReminder(toEmail, toName, when string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := "Reminder: your upcoming booking"
	html := fmt.Sprintf(`
		<h2>Upcoming booking</h2>
		<p>Hi %s,</p>
		<p>This is a reminder that your booking is coming up:</p>
		<p><strong>%s</strong></p>
	`, toName, when)
	text := fmt.Sprintf("This is a reminder that your booking is coming up: %s", when)

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) SendWebinarRegistration(toEmail, toName, productName string, sessions []string, cancelURL string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	var list strings.Builder
	for _, sess := range sessions {
		fmt.Fprintf(&list, "<li>%s</li>", sess)
	}

	subject := fmt.Sprintf("You're registered: %s", productName)
	html := fmt.Sprintf(`
		<h2>You're registered!</h2>
		<p>Hi %s,</p>
		<p>You're registered for <strong>%s</strong>. Sessions:</p>
		<ul>%s</ul>
		<p><a href="%s" style="background-color: #e53935; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Cancel Registration</a></p>
	`, toName, productName, list.String(), cancelURL)
	text := fmt.Sprintf("You're registered for %s.\n\nSessions:\n%s\n\nNeed to cancel? Use this link: %s",
		productName, strings.Join(sessions, "\n"), cancelURL)

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) sendEmail(toEmail, toName, subject, text, html string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)

	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	_, err := m.client.Email.Send(ctx, msg)
	return err
}
