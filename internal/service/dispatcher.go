package service

import (
	"context"
	"fmt"
	"github.com/ilindan-dev/sms-sender-bot/internal/config"
	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
	"github.com/ilindan-dev/sms-sender-bot/internal/metrics"
	"github.com/ilindan-dev/sms-sender-bot/internal/providers"
	"github.com/rs/zerolog"
	"time"
)

// Operator-facing details. They are rendered verbatim by the chat layer.
const (
	DetailSent          = "Message sent successfully"
	DetailEmptyMessage  = "Message cannot be empty"
	DetailInvalidNumber = "Invalid phone number format. Use international format (e.g., +1234567890)"
	DetailNoInternet    = "No internet connection. Please check your network and try again."
	DetailAuth          = "Authentication failed. Please check your SMS provider credentials."
	DetailDestination   = "The provided phone number is not valid or not supported."
	DetailRateLimited   = "Too many requests. Please try again later."
	DetailNetwork       = "Network error: %s. Please check your internet connection."
	DetailProvider      = "SMS provider error: %s"
	DetailUnexpected    = "Unexpected error: %v"
	DetailExhausted     = "Failed to send message after multiple attempts. Please try again later."
)

// Dispatcher validates, composes and submits a single SMS, retrying transient
// provider failures with a fixed delay. It holds no per-call state, so one
// instance serves concurrent callers.
type Dispatcher struct {
	provider    providers.Provider
	prober      ConnectivityChecker
	header      string
	maxAttempts int
	retryDelay  time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	logger      zerolog.Logger
}

// NewDispatcher creates a dispatcher from the immutable configuration.
func NewDispatcher(cfg *config.Config, provider providers.Provider, prober ConnectivityChecker, logger *zerolog.Logger) *Dispatcher {
	attempts := cfg.SMS.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	return &Dispatcher{
		provider:    provider,
		prober:      prober,
		header:      cfg.SMS.Header,
		maxAttempts: attempts,
		retryDelay:  cfg.SMS.RetryDelay,
		sleep:       sleepContext,
		logger:      logger.With().Str("component", "dispatcher").Str("provider", provider.Name()).Logger(),
	}
}

// ValidateAddress applies the canonical E.164 rule.
func (d *Dispatcher) ValidateAddress(address string) bool {
	return ValidateAddress(address)
}

// CheckConnectivity runs the advisory reachability probe.
func (d *Dispatcher) CheckConnectivity(ctx context.Context) bool {
	return d.prober.Check(ctx)
}

// Payload joins the configured header and the message body.
func (d *Dispatcher) Payload(message string) string {
	return d.header + "\n\n" + message
}

// Send runs validate → normalize → connectivity → attempt(1..N) and never panics.
func (d *Dispatcher) Send(ctx context.Context, destination, message string) (res model.SendResult) {
	start := time.Now()
	attempts := 0

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Interface("panic", r).Str("to", destination).Msg("recovered from panic during send")
			res = fail(model.KindProvider, fmt.Sprintf(DetailUnexpected, r))
		}
		res.Attempts = attempts
		metrics.ObserveSend(d.provider.Name(), string(res.Kind), attempts, time.Since(start).Milliseconds(), res.Success)
	}()

	if message == "" {
		return fail(model.KindInput, DetailEmptyMessage)
	}
	if !ValidateAddress(destination) {
		return fail(model.KindInput, DetailInvalidNumber)
	}

	to := NormalizeAddress(destination)

	if !d.prober.Check(ctx) {
		return fail(model.KindConnectivity, DetailNoInternet)
	}

	payload := d.Payload(message)
	log := d.logger.With().Str("to", to).Logger()

	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		attempts = attempt
		r := d.provider.Submit(ctx, d.provider.Sender(), to, payload)

		switch r.Outcome {
		case providers.OutcomeAccepted:
			log.Info().Int("attempt", attempt).Str("message_id", r.MessageID).Msg("sms accepted by provider")
			return model.SendResult{Success: true, Detail: DetailSent}

		case providers.OutcomeAuthFailed:
			log.Error().Str("detail", r.Detail).Msg("provider rejected credentials")
			return fail(model.KindAuth, DetailAuth)

		case providers.OutcomeDestinationRejected:
			log.Warn().Str("detail", r.Detail).Msg("provider rejected destination")
			return fail(model.KindDestination, DetailDestination)

		case providers.OutcomeRateLimited, providers.OutcomeTransportFailed:
			if attempt == d.maxAttempts {
				log.Error().Str("outcome", r.Outcome.String()).Str("detail", r.Detail).Int("attempt", attempt).Msg("retry budget exhausted")
				if r.Outcome == providers.OutcomeRateLimited {
					return fail(model.KindRateLimit, DetailRateLimited)
				}
				return fail(model.KindTransport, fmt.Sprintf(DetailNetwork, r.Detail))
			}
			log.Warn().
				Str("outcome", r.Outcome.String()).
				Str("detail", r.Detail).
				Int("attempt", attempt).
				Dur("backoff", d.retryDelay).
				Msg("send failed, retrying")
			if err := d.sleep(ctx, d.retryDelay); err != nil {
				log.Warn().Err(err).Msg("send aborted while waiting to retry")
				return fail(model.KindExhausted, DetailExhausted)
			}

		default:
			log.Error().Str("outcome", r.Outcome.String()).Str("detail", r.Detail).Msg("provider error")
			return fail(model.KindProvider, fmt.Sprintf(DetailProvider, r.Detail))
		}
	}

	return fail(model.KindExhausted, DetailExhausted)
}

func fail(kind model.ErrorKind, detail string) model.SendResult {
	return model.SendResult{Success: false, Detail: detail, Kind: kind}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
