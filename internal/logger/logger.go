// Package logger provides a configured zerolog instance.
package logger

import (
	"github.com/ilindan-dev/sms-sender-bot/internal/config"
	"github.com/rs/zerolog"
	"os"
)

// NewLogger creates a new configured instance of zerolog.Logger.
// It reads the log level from the config and adds default fields like service name and caller.
func NewLogger(cfg *config.Config) (*zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Logger.Level)
	if err != nil || cfg.Logger.Level == "" {
		level = zerolog.InfoLevel
	}

	// Pretty console output in development, plain JSON otherwise.
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}

	logger = logger.With().
		Timestamp().
		Str("service", "sms-sender-bot").
		Caller().
		Logger().
		Level(level)

	return &logger, nil
}
