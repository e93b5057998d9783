// Package mail provides the outbound mail collaborator. Dispatch failure
// never rolls back the state change that triggered it.
package mail

import (
	"fmt"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

// Dispatcher sends a single message, fire-and-forget with an error outcome.
type Dispatcher interface {
	Send(to, subject, body string) error
}

// NewDispatcher selects SMTP when a host is configured, otherwise a
// logging stub for development.
func NewDispatcher(cfg config.MailConfig, logger *zap.Logger) Dispatcher {
	if cfg.Host == "" {
		logger.Warn("MAIL_SMTP_HOST not provided; using logging mail dispatcher")
		return &logDispatcher{logger: logger, from: cfg.From}
	}
	return &smtpDispatcher{cfg: cfg}
}

type smtpDispatcher struct {
	cfg config.MailConfig
}

func (d *smtpDispatcher) Send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", d.cfg.Host, d.cfg.Port)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		d.cfg.From, to, subject, body))

	var auth smtp.Auth
	if d.cfg.Username != "" {
		auth = smtp.PlainAuth("", d.cfg.Username, d.cfg.Password, d.cfg.Host)
	}
	return smtp.SendMail(addr, auth, d.cfg.From, []string{to}, msg)
}

type logDispatcher struct {
	logger *zap.Logger
	from   string
}

func (d *logDispatcher) Send(to, subject, body string) error {
	d.logger.Info("mail dispatched (stub)",
		zap.String("from", d.from),
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}
