// Package notify delivers alert notifications. Sinks implement
// domain.Notifier; Multi fans one alert out to every configured sink.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/couchcryptid/air-quality-monitor/internal/domain"
)

var alertTemplate = template.Must(template.New("alert").Parse(`Air Quality Alert
=================

Location: {{.Reading.City}}
Current AQI: {{.Reading.Value}} ({{.Reading.Category}})
Your threshold: {{.Subscription.Threshold}}

{{.Message}}

You will not receive another alert for the next 24 hours.

---
Air Quality Monitor
`))

// EmailOptions configures the SMTP sink. Leaving Host or From empty makes
// the sink a no-op that logs skipped deliveries, so the service runs
// without mail credentials in development.
type EmailOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Logger   *slog.Logger
}

// Email sends alert emails over SMTP.
type Email struct {
	opts EmailOptions
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmail creates the SMTP sink.
func NewEmail(opts EmailOptions) *Email {
	return &Email{opts: opts, send: smtp.SendMail}
}

// Configured reports whether the sink has enough settings to deliver mail.
func (e *Email) Configured() bool {
	return e.opts.Host != "" && e.opts.From != ""
}

// SendAlert renders and delivers the alert email to the subscriber.
func (e *Email) SendAlert(_ context.Context, alert domain.Alert) error {
	subject := fmt.Sprintf("Air quality alert - %s (AQI %d)", alert.Reading.City, alert.Reading.Value)

	if !e.Configured() {
		e.opts.Logger.Warn("smtp not configured, skipping email",
			"to", alert.Subscription.Email, "subject", subject)
		return nil
	}

	var body bytes.Buffer
	if err := alertTemplate.Execute(&body, alert); err != nil {
		return fmt.Errorf("render alert email: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", e.opts.From)
	fmt.Fprintf(&msg, "To: %s\r\n", alert.Subscription.Email)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	var auth smtp.Auth
	if e.opts.Username != "" {
		auth = smtp.PlainAuth("", e.opts.Username, e.opts.Password, e.opts.Host)
	}

	addr := fmt.Sprintf("%s:%d", e.opts.Host, e.opts.Port)
	if err := e.send(addr, auth, e.opts.From, []string{alert.Subscription.Email}, msg.Bytes()); err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}

	e.opts.Logger.Info("alert email sent", "to", alert.Subscription.Email, "aqi", alert.Reading.Value)
	return nil
}
