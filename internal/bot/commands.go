package bot

import (
	"context"
	"fmt"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
	"github.com/ilindan-dev/sms-sender-bot/internal/service"
	"strings"
	"unicode/utf8"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

func (b *Bot) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":       b.handleStartCommand,
		"help":        b.handleHelpCommand,
		"send":        b.handleSendCommand,
		"set_message": b.handleSetMessageCommand,
		"bulk_send":   b.handleBulkSendCommand,
		"cancel":      b.handleCancelCommand,
	}
}

func (b *Bot) buttonRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		ButtonSetMessage: func(_ context.Context, m *tgbotapi.Message) error {
			return b.reply(m.Chat.ID, textButtonSetMessage)
		},
		ButtonSendSingle: func(_ context.Context, m *tgbotapi.Message) error {
			return b.reply(m.Chat.ID, textButtonSendSingle)
		},
		ButtonSendBulk: b.handleBulkSendCommand,
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID

	if message.IsCommand() {
		handler, ok := b.commandRoutes()[message.Command()]
		route := "/" + message.Command()
		if !ok {
			route = "unknown"
		}
		if !b.gate(ctx, chatID, route) {
			return nil
		}
		if !ok {
			return b.reply(chatID, textUnknown)
		}
		return handler(ctx, message)
	}

	text := strings.TrimSpace(message.Text)
	if handler, ok := b.buttonRoutes()[text]; ok {
		if !b.gate(ctx, chatID, "button") {
			return nil
		}
		return handler(ctx, message)
	}

	if !b.gate(ctx, chatID, "text") {
		return nil
	}
	return b.handleText(ctx, chatID, text)
}

func (b *Bot) handleStartCommand(_ context.Context, message *tgbotapi.Message) error {
	return b.replyWithMarkup(message.Chat.ID, textWelcome, mainMenuKeyboard())
}

func (b *Bot) handleHelpCommand(_ context.Context, message *tgbotapi.Message) error {
	return b.reply(message.Chat.ID, textHelp)
}

// handleSendCommand validates the number and asks for confirmation of a single send.
func (b *Bot) handleSendCommand(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	args := strings.Fields(message.CommandArguments())
	if len(args) == 0 {
		return b.reply(chatID, textSendUsage)
	}
	number := args[0]
	if !b.messages.ValidateAddress(number) {
		return b.reply(chatID, service.DetailInvalidNumber)
	}

	return b.withSession(ctx, chatID, func(s *model.Session) error {
		s.PendingNumber = number
		s.PendingText = s.MessageOr(b.defaultMessage)
		text := fmt.Sprintf(textSendConfirm, number, s.PendingText)
		return b.replyWithMarkup(chatID, text, confirmKeyboard(CallbackConfirmSend, CallbackCancelSend))
	})
}

func (b *Bot) handleSetMessageCommand(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.CommandArguments())
	if text == "" {
		return b.reply(chatID, textSetMessageUsage)
	}
	if utf8.RuneCountInString(text) > b.maxLength {
		return b.reply(chatID, fmt.Sprintf(textMessageTooLong, b.maxLength))
	}

	return b.withSession(ctx, chatID, func(s *model.Session) error {
		s.PendingMessage = text
		return b.replyWithMarkup(chatID, fmt.Sprintf(textMessageConfirm, text),
			confirmKeyboard(CallbackConfirmMessage, CallbackCancelMessage))
	})
}

func (b *Bot) handleBulkSendCommand(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	return b.withSession(ctx, chatID, func(s *model.Session) error {
		if err := Fire(s, EventStartBulk); err != nil {
			return err
		}
		return b.reply(chatID, textBulkPrompt)
	})
}

// handleCancelCommand abandons whatever the chat was in the middle of.
func (b *Bot) handleCancelCommand(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	return b.withSession(ctx, chatID, func(s *model.Session) error {
		s.PendingNumber, s.PendingText, s.PendingMessage = "", "", ""
		if s.State != model.StateIdle {
			if err := Fire(s, EventCancel); err != nil {
				return err
			}
		}
		return b.reply(chatID, textCancelled)
	})
}

// handleText treats free text as the number list while a bulk send is collecting numbers.
func (b *Bot) handleText(ctx context.Context, chatID int64, text string) error {
	return b.withSession(ctx, chatID, func(s *model.Session) error {
		if s.State != model.StateAwaitingNumbers {
			return b.reply(chatID, textUnknown)
		}

		valid, invalid := service.SplitAddresses(text)
		switch {
		case len(invalid) > 0:
			if err := Fire(s, EventNumbersRejected); err != nil {
				return err
			}
			return b.reply(chatID, fmt.Sprintf(textBulkInvalid, strings.Join(invalid, ", ")))
		case len(valid) == 0:
			if err := Fire(s, EventNumbersRejected); err != nil {
				return err
			}
			return b.reply(chatID, textBulkNoNumbers)
		}

		if err := Fire(s, EventNumbersAccepted); err != nil {
			return err
		}
		s.Numbers = valid
		return b.replyWithMarkup(chatID, fmt.Sprintf(textBulkReady, len(valid)),
			confirmRowKeyboard(CallbackConfirmBulk, CallbackCancelBulk))
	})
}
