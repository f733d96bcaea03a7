package notifiers

import (
	"context"
	"fmt"
	"github.com/ilindan-dev/sms-sender-bot/internal/config"
	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// MailSender is satisfied by *gomail.Dialer.
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailNotifier mails a copy of every bulk report to a fixed address via SMTP.
type EmailNotifier struct {
	dialer MailSender
	from   string
	to     string
	logger zerolog.Logger
}

// NewEmailNotifier creates a new instance of EmailNotifier.
func NewEmailNotifier(cfg config.EmailConfig, logger *zerolog.Logger) *EmailNotifier {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &EmailNotifier{
		dialer: d,
		from:   cfg.From,
		to:     cfg.To,
		logger: logger.With().Str("component", "email_notifier").Logger(),
	}
}

// Notify implements the Notifier interface for email.
func (n *EmailNotifier) Notify(_ context.Context, report *model.BulkReport) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.to)
	m.SetHeader("Subject", fmt.Sprintf("SMS bulk report: %d/%d sent", report.Succeeded(), len(report.Items)))
	m.SetBody("text/plain", fmt.Sprintf("Job %s (chat %d)\n\n%s", report.JobID, report.ChatID, report.Text()))

	// DialAndSend opens a connection, sends the email, and closes it.
	if err := n.dialer.DialAndSend(m); err != nil {
		n.logger.Error().Err(err).Stringer("job_id", report.JobID).Msg("failed to send email report")
		return err
	}

	n.logger.Info().Stringer("job_id", report.JobID).Str("recipient", n.to).Msg("email report sent successfully")
	return nil
}
