package main

import (
	"github.com/ilindan-dev/sms-sender-bot/internal/app"
	"go.uber.org/fx"
)

// main is the entry point for the Telegram bot and its admin HTTP server.
func main() {
	fx.New(app.BotModule).Run()
}
