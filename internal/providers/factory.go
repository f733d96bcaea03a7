package providers

import (
	"fmt"
	"github.com/ilindan-dev/sms-sender-bot/internal/config"
	"github.com/rs/zerolog"
)

// New selects the SMS provider according to the application's configuration.
// In development mode every deployment gets the LogProvider.
func New(cfg *config.Config, logger *zerolog.Logger) (Provider, error) {
	log := logger.With().Str("component", "provider_factory").Logger()

	name := cfg.Provider.Name
	if cfg.IsDevelopment() {
		name = "log"
	}
	log.Info().Str("mode", cfg.App.Mode).Str("provider", name).Msg("initializing sms provider")

	switch name {
	case "twilio":
		p, err := NewTwilioProvider(cfg.Provider.Twilio, cfg.Provider.Timeout, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "textbelt":
		p, err := NewTextBeltProvider(cfg.Provider.TextBelt, cfg.Provider.Timeout, nil, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "log":
		return NewLogProvider(logger), nil
	default:
		return nil, fmt.Errorf("unknown sms provider %q", name)
	}
}
