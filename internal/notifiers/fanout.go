package notifiers

import (
	"context"
	"errors"
	"github.com/ilindan-dev/sms-sender-bot/internal/config"
	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
	"github.com/rs/zerolog"
)

// Fanout is a composite notifier that delivers a report through every configured channel.
// It implements the Notifier interface itself.
type Fanout struct {
	notifiers []Notifier
	logger    zerolog.Logger
}

// NewFanout wires the report channels. The chat channel is always on because the
// operator waits for the result there; email is added when an SMTP host is configured.
// In development mode only the LogNotifier is used besides the chat.
func NewFanout(cfg *config.Config, bot BotSender, logger *zerolog.Logger) *Fanout {
	log := logger.With().Str("component", "notifier_fanout").Logger()
	log.Info().Str("mode", cfg.App.Mode).Msg("initializing report notifiers")

	list := []Notifier{NewTelegramNotifier(bot, logger)}

	if cfg.IsDevelopment() {
		list = append(list, NewLogNotifier(logger))
	} else if cfg.Notifiers.Email.Host != "" && cfg.Notifiers.Email.To != "" {
		list = append(list, NewEmailNotifier(cfg.Notifiers.Email, logger))
		log.Info().Msg("email notifier enabled")
	}

	return &Fanout{notifiers: list, logger: log}
}

// NewFanoutOf composes the given notifiers.
func NewFanoutOf(logger *zerolog.Logger, list ...Notifier) *Fanout {
	return &Fanout{notifiers: list, logger: logger.With().Str("component", "notifier_fanout").Logger()}
}

// Notify calls every notifier, even after a failure, and joins the errors.
func (f *Fanout) Notify(ctx context.Context, report *model.BulkReport) error {
	var errs []error
	for _, n := range f.notifiers {
		if err := n.Notify(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		f.logger.Warn().Int("failed", len(errs)).Stringer("job_id", report.JobID).Msg("some report channels failed")
	}
	return errors.Join(errs...)
}
