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

// Twilio REST error codes with a dedicated classification.
const (
	twilioCodeAuth            = 20003
	twilioCodeNotFound        = 20404
	twilioCodeTooManyRequests = 20429
	twilioCodeInvalidTo       = 21211
	twilioCodeNoPermission    = 21408
	twilioCodeUnsubscribed    = 21610
	twilioCodeNotMobile       = 21614
)

const defaultTwilioBaseURL = "https://api.twilio.com/2010-04-01"

// HTTPClient abstracts the http.Client Do method for easier testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TwilioOption customises the behaviour of the Twilio provider.
type TwilioOption func(*TwilioProvider)

// WithTwilioHTTPClient overrides the HTTP client used to talk to Twilio.
func WithTwilioHTTPClient(client HTTPClient) TwilioOption {
	return func(p *TwilioProvider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithTwilioBaseURL sets the base Twilio API URL. Useful for tests.
func WithTwilioBaseURL(baseURL string) TwilioOption {
	return func(p *TwilioProvider) {
		if baseURL != "" {
			p.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// TwilioProvider submits messages through the Twilio Messages API.
type TwilioProvider struct {
	accountSID   string
	authToken    string
	from         string
	baseURL      string
	httpClient   HTTPClient
	maxBodyBytes int64
	logger       zerolog.Logger
}

var _ Provider = (*TwilioProvider)(nil)

// NewTwilioProvider constructs a Twilio-backed provider.
func NewTwilioProvider(cfg config.TwilioConfig, timeout time.Duration, logger *zerolog.Logger, opts ...TwilioOption) (*TwilioProvider, error) {
	if strings.TrimSpace(cfg.AccountSID) == "" {
		return nil, errors.New("twilio provider: account SID is required")
	}
	if strings.TrimSpace(cfg.AuthToken) == "" {
		return nil, errors.New("twilio provider: auth token is required")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	p := &TwilioProvider{
		accountSID:   strings.TrimSpace(cfg.AccountSID),
		authToken:    strings.TrimSpace(cfg.AuthToken),
		from:         strings.TrimSpace(cfg.PhoneNumber),
		baseURL:      defaultTwilioBaseURL,
		httpClient:   &http.Client{Timeout: timeout},
		maxBodyBytes: 16 * 1024,
		logger:       logger.With().Str("component", "twilio_provider").Logger(),
	}
	WithTwilioBaseURL(cfg.BaseURL)(p)

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p, nil
}

func (p *TwilioProvider) Name() string { return "twilio" }

func (p *TwilioProvider) Sender() string { return p.from }

// ProbeURL returns the API host root, which answers without credentials.
func (p *TwilioProvider) ProbeURL() string {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return p.baseURL
	}
	return u.Scheme + "://" + u.Host
}

// Submit posts a single message to Twilio and classifies the response.
func (p *TwilioProvider) Submit(ctx context.Context, sender, destination, payload string) Result {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", p.baseURL, url.PathEscape(p.accountSID))

	params := url.Values{}
	params.Set("To", destination)
	params.Set("From", sender)
	params.Set("Body", payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return Failed(OutcomeRejected, fmt.Sprintf("twilio: new request: %v", err))
	}
	req.SetBasicAuth(p.accountSID, p.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Warn().Err(err).Msg("twilio request failed")
		return Failed(OutcomeTransportFailed, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBodyBytes))
	if err != nil {
		return Failed(OutcomeTransportFailed, fmt.Sprintf("read body: %v", err))
	}

	parsed := parseTwilioBody(body)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		p.logger.Debug().Str("sid", parsed.SID).Str("status", parsed.Status).Msg("twilio accepted message")
		return Accepted(parsed.SID)
	}

	return classifyTwilio(resp.StatusCode, parsed)
}

type twilioBody struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func parseTwilioBody(body []byte) twilioBody {
	var parsed twilioBody
	if len(strings.TrimSpace(string(body))) == 0 {
		return parsed
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		parsed.Message = strings.TrimSpace(string(body))
	}
	return parsed
}

func classifyTwilio(status int, b twilioBody) Result {
	message := b.Message
	if message == "" {
		message = http.StatusText(status)
	}

	switch {
	case b.Code == twilioCodeAuth, status == http.StatusUnauthorized, status == http.StatusForbidden:
		return Failed(OutcomeAuthFailed, message)
	case b.Code == twilioCodeTooManyRequests, status == http.StatusTooManyRequests:
		return Failed(OutcomeRateLimited, message)
	}

	switch b.Code {
	case twilioCodeNotFound, twilioCodeInvalidTo, twilioCodeNoPermission, twilioCodeUnsubscribed, twilioCodeNotMobile:
		return Failed(OutcomeDestinationRejected, message)
	}

	if b.Code > 0 {
		return Failed(OutcomeRejected, fmt.Sprintf("Twilio error %d: %s", b.Code, message))
	}
	return Failed(OutcomeRejected, fmt.Sprintf("Twilio HTTP %d: %s", status, message))
}
