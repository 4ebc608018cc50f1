// Package notify composes and delivers transactional email.
package notify

import (
	"context"
	"fmt"

	"abaya-store/internal/config"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

// senderName is the display name on every outgoing message.
const senderName = "Abaya Designs"

// Message is a rendered HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// smtpMailer sends through an SMTP relay.
type smtpMailer struct {
	client *mail.Client
	from   string
	logger zerolog.Logger
}

// NewSMTPMailer creates a mailer for the configured relay. No connection is made until Send.
func NewSMTPMailer(cfg config.MailConfig, logger zerolog.Logger) (Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.SendTimeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return &smtpMailer{
		client: client,
		from:   cfg.From,
		logger: logger.With().Str("component", "smtp-mailer").Logger(),
	}, nil
}

func (m *smtpMailer) Send(ctx context.Context, msg Message) error {
	out := mail.NewMsg()
	if err := out.FromFormat(senderName, m.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := out.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextHTML, msg.HTML)

	if err := m.client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	m.logger.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("email sent")
	return nil
}

// nopMailer logs and discards messages when mail is disabled.
type nopMailer struct {
	logger zerolog.Logger
}

// NewNopMailer returns a mailer that only logs.
func NewNopMailer(logger zerolog.Logger) Mailer {
	return &nopMailer{logger: logger.With().Str("component", "nop-mailer").Logger()}
}

func (m *nopMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Debug().Str("to", msg.To).Str("subject", msg.Subject).Msg("mail disabled, message discarded")
	return nil
}
