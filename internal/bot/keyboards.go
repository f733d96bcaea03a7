package bot

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonSetMessage)),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonSendSingle),
			tgbotapi.NewKeyboardButton(ButtonSendBulk),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// confirmKeyboard stacks the buttons one per row.
func confirmKeyboard(confirm, cancel string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✅ Confirm", confirm)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", cancel)),
	)
}

// confirmRowKeyboard puts both buttons side by side.
func confirmRowKeyboard(confirm, cancel string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Confirm", confirm),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", cancel),
		),
	)
}
