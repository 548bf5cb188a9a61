// Package mail sends digest emails over SMTP.
package mail

import (
	"gopkg.in/gomail.v2"

	"chopchop-server-go/internal/platform/config"
	"chopchop-server-go/internal/platform/errors"
	"chopchop-server-go/internal/platform/logging"
)

// Sender delivers a single HTML email.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// SMTPMailer sends through a configured SMTP relay.
type SMTPMailer struct {
	cfg    *config.MailConfig
	dialer *gomail.Dialer
	logger *logging.Logger
}

func NewSMTPMailer(cfg *config.MailConfig, logger *logging.Logger) (*SMTPMailer, error) {
	const op = "mail.NewSMTPMailer"

	if cfg.Host == "" {
		return nil, errors.New(errors.KindConfig, op, "smtp host is required")
	}
	if cfg.From == "" {
		return nil, errors.New(errors.KindConfig, op, "from address is required")
	}

	return &SMTPMailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		logger: logger,
	}, nil
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	const op = "mail.Send"

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return errors.Wrap(errors.KindMail, op, "smtp delivery", err)
	}

	m.logger.InfoTag("MAIL", "sent %q to %s", subject, to)
	return nil
}
