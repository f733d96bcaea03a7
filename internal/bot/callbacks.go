package bot

import (
	"context"
	"fmt"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
)

type callbackHandler func(ctx context.Context, chatID int64, messageID int) error

func (b *Bot) callbackRoutes() map[string]callbackHandler {
	return map[string]callbackHandler{
		CallbackConfirmSend:    b.confirmSendCallback,
		CallbackCancelSend:     b.cancelSendCallback,
		CallbackConfirmMessage: b.confirmMessageCallback,
		CallbackCancelMessage:  b.cancelMessageCallback,
		CallbackConfirmBulk:    b.confirmBulkCallback,
		CallbackCancelBulk:     b.cancelBulkCallback,
	}
}

func (b *Bot) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	// Stop the client spinner whatever happens.
	defer func() { _, _ = b.api.Request(tgbotapi.NewCallback(query.ID, "")) }()

	if query.Message == nil || query.Message.Chat == nil {
		return nil
	}
	chatID, messageID := query.Message.Chat.ID, query.Message.MessageID

	handler, ok := b.callbackRoutes()[query.Data]
	if !ok {
		return fmt.Errorf("unknown callback data %q", query.Data)
	}
	if !b.gate(ctx, chatID, "cb:"+query.Data) {
		return nil
	}
	return handler(ctx, chatID, messageID)
}

// confirmSendCallback performs the pending single send outside the chat lock
// and replaces the confirmation with the result.
func (b *Bot) confirmSendCallback(ctx context.Context, chatID int64, messageID int) error {
	var number, text string
	err := b.withSession(ctx, chatID, func(s *model.Session) error {
		number, text = s.PendingNumber, s.PendingText
		s.PendingNumber, s.PendingText = "", ""
		return nil
	})
	if err != nil {
		return err
	}
	if number == "" || text == "" {
		return b.edit(chatID, messageID, textSendMissing)
	}

	res, _ := b.messages.SendOne(ctx, chatID, number, text)
	return b.edit(chatID, messageID, res.Mark()+" "+res.Detail)
}

func (b *Bot) cancelSendCallback(ctx context.Context, chatID int64, messageID int) error {
	return b.withSession(ctx, chatID, func(s *model.Session) error {
		s.PendingNumber, s.PendingText = "", ""
		return b.edit(chatID, messageID, textSendCancelled)
	})
}

func (b *Bot) confirmMessageCallback(ctx context.Context, chatID int64, messageID int) error {
	return b.withSession(ctx, chatID, func(s *model.Session) error {
		if s.PendingMessage == "" {
			return b.edit(chatID, messageID, textMessageMissing)
		}
		s.Message, s.PendingMessage = s.PendingMessage, ""
		return b.edit(chatID, messageID, textMessageSet)
	})
}

func (b *Bot) cancelMessageCallback(ctx context.Context, chatID int64, messageID int) error {
	return b.withSession(ctx, chatID, func(s *model.Session) error {
		s.PendingMessage = ""
		return b.edit(chatID, messageID, textMessageCanceled)
	})
}

// confirmBulkCallback hands the collected numbers to the bulk runner. The report
// arrives later through the notifiers.
func (b *Bot) confirmBulkCallback(ctx context.Context, chatID int64, messageID int) error {
	return b.withSession(ctx, chatID, func(s *model.Session) error {
		if s.State != model.StateAwaitingConfirmation || len(s.Numbers) == 0 {
			if s.State != model.StateIdle {
				_ = Fire(s, EventCancel)
			}
			return b.edit(chatID, messageID, textBulkNothing)
		}

		job := model.NewBulkJob(chatID, s.Numbers, s.MessageOr(b.defaultMessage))
		if err := Fire(s, EventConfirm); err != nil {
			return err
		}
		if err := b.runner.Submit(ctx, job); err != nil {
			b.logger.Error().Err(err).Stringer("job_id", job.ID).Int64("chat_id", chatID).Msg("failed to submit bulk job")
			return b.edit(chatID, messageID, textBulkFailed)
		}
		b.logger.Info().Stringer("job_id", job.ID).Int64("chat_id", chatID).Int("numbers", len(job.Numbers)).Msg("bulk job submitted")
		return b.edit(chatID, messageID, fmt.Sprintf(textBulkStarted, len(job.Numbers)))
	})
}

func (b *Bot) cancelBulkCallback(ctx context.Context, chatID int64, messageID int) error {
	return b.withSession(ctx, chatID, func(s *model.Session) error {
		if s.State != model.StateIdle {
			if err := Fire(s, EventCancel); err != nil {
				return err
			}
		}
		return b.edit(chatID, messageID, textCancelled)
	})
}
