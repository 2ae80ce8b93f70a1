package channels

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/chainwatch/watchtower/domain/alert"
	"github.com/chainwatch/watchtower/internal/werrors"
)

// EmailChannel sends alerts over SMTP as HTML mail.
type EmailChannel struct {
	config EmailConfig
}

// NewEmailChannel constructs an EmailChannel from cfg. No network
// connection is opened until Send, Test, or SendBatch is called: net/smtp
// dials fresh per message rather than pooling a transport.
func NewEmailChannel(cfg EmailConfig) *EmailChannel {
	return &EmailChannel{config: cfg}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Send(ctx context.Context, a *alert.Alert) error {
	subject := c.config.SubjectTemplate
	var err error
	if subject != "" {
		subject, err = renderTemplate("email", subject, a)
	} else {
		subject = fmt.Sprintf("[Watchtower] %s Alert: %s", strings.ToUpper(a.Severity.String()), a.RuleName)
	}
	if err != nil {
		return err
	}

	body := c.config.BodyTemplate
	if body != "" {
		body, err = renderHTMLTemplate("email", body, a)
		if err != nil {
			return err
		}
	} else {
		body = defaultEmailBody(a)
	}

	return c.deliver(subject, body)
}

func (c *EmailChannel) Test(ctx context.Context) error {
	return c.Send(ctx, testAlert())
}

func (c *EmailChannel) SupportsBatching() bool { return true }

func (c *EmailChannel) SendBatch(ctx context.Context, alerts []*alert.Alert) error {
	subject := fmt.Sprintf("[Watchtower] %d Alerts", len(alerts))
	body := defaultBatchEmailBody(alerts)
	return c.deliver(subject, body)
}

// deliver sends one message with the rendered subject/HTML body to every
// configured recipient, dialing a fresh SMTP connection per address.
func (c *EmailChannel) deliver(subject, htmlBody string) error {
	var auth smtp.Auth
	if c.config.Username != "" {
		auth = smtp.PlainAuth("", c.config.Username, c.config.Password, c.config.SMTPServer)
	}

	from := c.config.FromAddress
	addr := fmt.Sprintf("%s:%d", c.config.SMTPServer, c.config.SMTPPort)

	for _, to := range c.config.ToAddresses {
		msg := buildMIMEMessage(from, c.config.FromName, to, subject, htmlBody)
		if err := smtp.SendMail(addr, auth, from, []string{to}, msg); err != nil {
			return werrors.TransportFailure("email", err)
		}
	}
	return nil
}

func buildMIMEMessage(from, fromName, to, subject, htmlBody string) []byte {
	sender := from
	if fromName != "" {
		sender = fmt.Sprintf("%s <%s>", fromName, from)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", sender)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}
