package providers

import (
	"context"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LogProvider is a mock gateway that implements the Provider interface.
// It logs every submission instead of sending it and always accepts.
type LogProvider struct {
	logger zerolog.Logger
}

var _ Provider = (*LogProvider)(nil)

// NewLogProvider creates a new instance of LogProvider.
func NewLogProvider(logger *zerolog.Logger) *LogProvider {
	return &LogProvider{
		logger: logger.With().Str("component", "log_provider").Logger(),
	}
}

func (p *LogProvider) Name() string { return "log" }

func (p *LogProvider) Sender() string { return "" }

// ProbeURL is empty, so the connectivity check goes straight to its fallback.
func (p *LogProvider) ProbeURL() string { return "" }

// Submit implements the Provider interface.
func (p *LogProvider) Submit(_ context.Context, sender, destination, payload string) Result {
	id := uuid.NewString()
	p.logger.Info().
		Str("message_id", id).
		Str("from", sender).
		Str("to", destination).
		Int("length", len([]rune(payload))).
		Msg(">>> MOCK SEND: SMS dispatched")
	return Accepted(id)
}
