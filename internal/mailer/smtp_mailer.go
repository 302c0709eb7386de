package mailer

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
)

type SMTPMailer struct {
	Host   string
	Port   int
	From   string
	User   string
	Pass   string
	UseTLS bool
}

func NewSMTPMailer(host string, port int, from, user, pass string, useTLS bool) *SMTPMailer {
	return &SMTPMailer{
		Host:   strings.TrimSpace(host),
		Port:   port,
		From:   strings.TrimSpace(from),
		User:   strings.TrimSpace(user),
		Pass:   strings.TrimSpace(pass),
		UseTLS: useTLS,
	}
}

func (s *SMTPMailer) SendBookingConfirmation(toEmail, toName, when, cancelURL string) error {
	subject := "Your booking is confirmed"
	text := fmt.Sprintf("Hi %s,\n\nYour booking for %s is confirmed.\n\nNeed to cancel? Use this link: %s", toName, when, cancelURL)
	html := fmt.Sprintf(`
		<h2>Booking confirmed</h2>
		<p>Hi %s,</p>
		<p>Your booking for <strong>%s</strong> is confirmed.</p>
		<p>If you need to cancel, click below:</p>
		<p><a href="%s" style="background-color: #e53935; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Cancel Booking</a></p>
	`, toName, when, cancelURL)

	return s.sendEmail(toEmail, toName, subject, text, html)
}

func (s *SMTPMailer) SendCancellationNotice(toEmail, toName string, refundCents int64, isFullRefund bool) error {
	subject := "Your booking has been cancelled"
	refundLine := "No refund applies under the cancellation policy."
	if refundCents > 0 {
		kind := "partial"
		if isFullRefund {
			kind = "full"
		}
		refundLine = fmt.Sprintf("A %s refund of $%.2f is on its way.", kind, float64(refundCents)/100)
	}
	text := fmt.Sprintf("Hi %s,\n\nYour booking has been cancelled.\n\n%s", toName, refundLine)
	html := fmt.Sprintf(`
		<h2>Booking cancelled</h2>
		<p>Hi %s,</p>
		<p>Your booking has been cancelled.</p>
		<p>%s</p>
	`, toName, refundLine)

	return s.sendEmail(toEmail, toName, subject, text, html)
}

func (s *SMTPMailer) SendReminder(toEmail, toName, when string) error {
	subject := "Reminder: your upcoming booking"
	text := fmt.Sprintf("Hi %s,\n\nThis is a reminder that your booking is coming up: %s", toName, when)
	html := fmt.Sprintf(`
		<h2>Upcoming booking</h2>
		<p>Hi %s,</p>
		<p>This is a reminder that your booking is coming up:</p>
		<p><strong>%s</strong></p>
	`, toName, when)

	return s.sendEmail(toEmail, toName, subject, text, html)
}

func (s *SMTPMailer) SendWebinarRegistration(toEmail, toName, productName string, sessions []string, cancelURL string) error {
	subject := fmt.Sprintf("You're registered: %s", productName)
	text := fmt.Sprintf("Hi %s,\n\nYou're registered for %s.\n\nSessions:\n%s\n\nNeed to cancel? Use this link: %s",
		toName, productName, strings.Join(sessions, "\n"), cancelURL)

	var list strings.Builder
	for _, sess := range sessions {
		fmt.Fprintf(&list, "<li>%s</li>", sess)
	}
	html := fmt.Sprintf(`
		<h2>You're registered!</h2>
		<p>Hi %s,</p>
		<p>You're registered for <strong>%s</strong>. Sessions:</p>
		<ul>%s</ul>
		<p><a href="%s" style="background-color: #e53935; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">Cancel Registration</a></p>
	`, toName, productName, list.String(), cancelURL)

	return s.sendEmail(toEmail, toName, subject, text, html)
}

func (s *SMTPMailer) sendEmail(toEmail, toName, subject, text, html string) error {
	toEmail = strings.TrimSpace(toEmail)
	if toEmail == "" {
		return fmt.Errorf("empty recipient email")
	}

	var buf bytes.Buffer
	boundary := "mixed-boundary"

	fmt.Fprintf(&buf, "From: %s\r\n", s.From)
	fmt.Fprintf(&buf, "To: %s\r\n", toEmail)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	// Text part
	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", text)

	// HTML part
	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/html; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", html)

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)

	// Mailpit or development SMTP (no auth, no TLS)
	if !s.UseTLS && s.User == "" {
		return smtp.SendMail(addr, nil, s.From, []string{toEmail}, buf.Bytes())
	}

	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}

	// Try plain SMTP first (with STARTTLS if supported)
	if err := smtp.SendMail(addr, auth, s.From, []string{toEmail}, buf.Bytes()); err == nil {
		return nil
	}

	// Fallback to implicit TLS (port 465)
	if s.UseTLS {
		tlsCfg := &tls.Config{ServerName: s.Host, InsecureSkipVerify: false}
		conn, err := tls.Dial("tcp", addr, tlsCfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		c, err := smtp.NewClient(conn, s.Host)
		if err != nil {
			return err
		}
		defer c.Quit()

		if s.User != "" {
			if err := c.Auth(auth); err != nil {
				return err
			}
		}

		if err := c.Mail(s.From); err != nil {
			return err
		}
		if err := c.Rcpt(toEmail); err != nil {
			return err
		}

		w, err := c.Data()
		if err != nil {
			return err
		}

		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}
		return w.Close()
	}

	return fmt.Errorf("failed to send email to %s", toEmail)
}
