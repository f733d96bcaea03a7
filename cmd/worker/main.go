package main

import (
	"github.com/ilindan-dev/sms-sender-bot/internal/app"
	"go.uber.org/fx"
)

// main is the entry point for the bulk job worker used with the queue runner.
func main() {
	fx.New(app.WorkerModule).Run()
}
