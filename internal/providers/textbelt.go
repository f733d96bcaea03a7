package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ilindan-dev/sms-sender-bot/internal/config"
	"github.com/rs/zerolog"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTextBeltURL = "https://textbelt.com/text"

// TextBeltProvider submits messages through the TextBelt key+URL endpoint.
type TextBeltProvider struct {
	apiKey     string
	apiURL     string
	httpClient HTTPClient
	logger     zerolog.Logger
}

var _ Provider = (*TextBeltProvider)(nil)

// NewTextBeltProvider constructs a TextBelt-backed provider. A nil client gets a default one.
func NewTextBeltProvider(cfg config.TextBeltConfig, timeout time.Duration, client HTTPClient, logger *zerolog.Logger) (*TextBeltProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("textbelt provider: api key is required")
	}
	apiURL := strings.TrimSpace(cfg.APIURL)
	if apiURL == "" {
		apiURL = defaultTextBeltURL
	}
	if client == nil {
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &TextBeltProvider{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		apiURL:     apiURL,
		httpClient: client,
		logger:     logger.With().Str("component", "textbelt_provider").Logger(),
	}, nil
}

func (p *TextBeltProvider) Name() string { return "textbelt" }

// Sender is empty: TextBelt sends from its own pool of numbers.
func (p *TextBeltProvider) Sender() string { return "" }

func (p *TextBeltProvider) ProbeURL() string { return p.apiURL }

type textBeltResponse struct {
	Success        bool   `json:"success"`
	TextID         string `json:"textId"`
	QuotaRemaining int    `json:"quotaRemaining"`
	Error          string `json:"error"`
}

// Submit posts phone/message/key to TextBelt and classifies the response.
func (p *TextBeltProvider) Submit(ctx context.Context, _, destination, payload string) Result {
	form := url.Values{}
	form.Set("phone", destination)
	form.Set("message", payload)
	form.Set("key", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Failed(OutcomeRejected, fmt.Sprintf("textbelt: new request: %v", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Warn().Err(err).Msg("textbelt request failed")
		return Failed(OutcomeTransportFailed, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
	if err != nil {
		return Failed(OutcomeTransportFailed, fmt.Sprintf("read body: %v", err))
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return Failed(OutcomeRateLimited, "textbelt: too many requests")
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return Failed(OutcomeAuthFailed, http.StatusText(resp.StatusCode))
	}

	var tr textBeltResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return Failed(OutcomeRejected, fmt.Sprintf("textbelt: HTTP %d: unreadable response", resp.StatusCode))
	}

	if tr.Success {
		p.logger.Debug().Str("text_id", tr.TextID).Int("quota_remaining", tr.QuotaRemaining).Msg("textbelt accepted message")
		return Accepted(tr.TextID)
	}

	return classifyTextBelt(tr.Error)
}

func classifyTextBelt(msg string) Result {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "quota"), strings.Contains(lower, "rate limit"), strings.Contains(lower, "too many"):
		return Failed(OutcomeRateLimited, msg)
	case strings.Contains(lower, "key"):
		return Failed(OutcomeAuthFailed, msg)
	case strings.Contains(lower, "phone"), strings.Contains(lower, "number"):
		return Failed(OutcomeDestinationRejected, msg)
	case msg == "":
		return Failed(OutcomeRejected, "textbelt: request was not accepted")
	default:
		return Failed(OutcomeRejected, msg)
	}
}
