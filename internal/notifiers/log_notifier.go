package notifiers

import (
	"context"
	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
	"github.com/rs/zerolog"
)

// LogNotifier is a mock notifier that implements the Notifier interface.
// It logs the report summary instead of delivering it.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a new instance of LogNotifier.
func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	return &LogNotifier{
		logger: logger.With().Str("component", "log_notifier").Logger(),
	}
}

// Notify implements the Notifier interface.
func (n *LogNotifier) Notify(_ context.Context, report *model.BulkReport) error {
	n.logger.Info().
		Stringer("job_id", report.JobID).
		Int64("chat_id", report.ChatID).
		Int("succeeded", report.Succeeded()).
		Int("total", len(report.Items)).
		Msg(">>> MOCK NOTIFY: bulk report")
	return nil
}
