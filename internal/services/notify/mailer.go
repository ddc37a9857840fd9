// Package notify delivers best-effort email to the owner when something in
// the shop needs their attention. Delivery runs off the request path; a dead
// mail relay slows nothing down and fails no request.
package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/1020robert/delph-merch/internal/config"
)

// Message is one outbound email.
type Message struct {
	Subject string
	Body    string
}

// Mailer delivers a single message. Implementations must honor ctx so a
// stuck relay cannot hold a delivery attempt open.
type Mailer interface {
	Send(ctx context.Context, to string, msg Message) error
}

// SMTPMailer delivers mail through a configured SMTP relay.
type SMTPMailer struct {
	client *mail.Client
	from   string
}

// NewSMTPMailer builds a mailer from the relay configuration.
func NewSMTPMailer(cfg config.SMTPConfig) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	if cfg.SSL {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.From}, nil
}

// Send delivers one message to one recipient.
func (m *SMTPMailer) Send(ctx context.Context, to string, msg Message) error {
	mm := mail.NewMsg()
	if err := mm.From(m.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := mm.To(to); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	mm.Subject(msg.Subject)
	mm.SetBodyString(mail.TypeTextPlain, msg.Body)

	if err := m.client.DialAndSendWithContext(ctx, mm); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}
