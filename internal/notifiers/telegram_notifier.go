package notifiers

import (
	"context"
	"fmt"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
	"github.com/rs/zerolog"
)

// MaxTelegramText is Telegram's limit for a single message text.
const MaxTelegramText = 4096

// BotSender is the part of tgbotapi.BotAPI the notifier needs.
type BotSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts bulk reports back to the chat that started the job.
type TelegramNotifier struct {
	bot    BotSender
	logger zerolog.Logger
}

// NewTelegramNotifier creates a new instance of TelegramNotifier.
func NewTelegramNotifier(bot BotSender, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		bot:    bot,
		logger: logger.With().Str("component", "telegram_notifier").Logger(),
	}
}

// Notify implements the Notifier interface for Telegram.
// Reports longer than one message are split into consecutive messages.
func (n *TelegramNotifier) Notify(_ context.Context, report *model.BulkReport) error {
	if report.ChatID == 0 {
		return fmt.Errorf("report %s has no chat to notify", report.JobID)
	}

	for _, chunk := range model.SplitText(report.Text(), MaxTelegramText) {
		msg := tgbotapi.NewMessage(report.ChatID, chunk)
		if _, err := n.bot.Send(msg); err != nil {
			n.logger.Error().Err(err).Stringer("job_id", report.JobID).Msg("failed to send telegram report")
			return err
		}
	}

	n.logger.Info().Stringer("job_id", report.JobID).Int64("chat_id", report.ChatID).Msg("bulk report sent to telegram")
	return nil
}
