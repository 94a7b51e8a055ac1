package mailer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// SMTPProvider sends emails through an SMTP relay.
type SMTPProvider struct {
	host   string
	dialer *gomail.Dialer
}

// NewSMTPProvider creates a provider that dials host:port for every message.
// Empty credentials skip authentication.
func NewSMTPProvider(host string, port int, username, password string) *SMTPProvider {
	return &SMTPProvider{
		host:   host,
		dialer: gomail.NewDialer(host, port, username, password),
	}
}

// Name returns the provider name.
func (s *SMTPProvider) Name() string {
	return "smtp"
}

// Send delivers msg in a single SMTP session.
func (s *SMTPProvider) Send(ctx context.Context, msg Message) (SendResult, error) {
	if err := ctx.Err(); err != nil {
		return SendResult{}, err
	}

	m, messageID := s.buildMessage(msg)
	if err := s.dialer.DialAndSend(m); err != nil {
		return SendResult{}, fmt.Errorf("smtp send failed: %w", err)
	}

	return SendResult{ProviderMessageID: messageID}, nil
}

// buildMessage assembles the MIME message. A text body with an HTML body
// becomes text/plain with a text/html alternative.
func (s *SMTPProvider) buildMessage(msg Message) (*gomail.Message, string) {
	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.host)

	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To...)
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", messageID)

	switch {
	case msg.Text != "" && msg.HTML != "":
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	case msg.HTML != "":
		m.SetBody("text/html", msg.HTML)
	default:
		m.SetBody("text/plain", msg.Text)
	}
	return m, messageID
}
