package service

import (
	"context"
	"github.com/ilindan-dev/sms-sender-bot/internal/config"
	"github.com/ilindan-dev/sms-sender-bot/internal/providers"
	"github.com/rs/zerolog"
	"net"
	"net/http"
	"time"
)

// ConnectivityChecker is the advisory reachability probe run before a send.
type ConnectivityChecker interface {
	Check(ctx context.Context) bool
}

// Prober checks the provider endpoint first and a public DNS resolver second.
type Prober struct {
	enabled         bool
	probeURL        string
	probeTimeout    time.Duration
	fallbackAddr    string
	fallbackTimeout time.Duration
	client          *http.Client
	logger          zerolog.Logger
}

var _ ConnectivityChecker = (*Prober)(nil)

// NewProber builds the probe for the configured provider.
func NewProber(cfg *config.Config, provider providers.Provider, logger *zerolog.Logger) ConnectivityChecker {
	c := cfg.SMS.Connectivity
	return &Prober{
		enabled:         c.Enabled,
		probeURL:        provider.ProbeURL(),
		probeTimeout:    c.ProbeTimeout,
		fallbackAddr:    c.FallbackAddr,
		fallbackTimeout: c.FallbackTimeout,
		client: &http.Client{
			// Redirects are a sign of life too.
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
		logger: logger.With().Str("component", "connectivity_prober").Logger(),
	}
}

// Check returns true when either probe succeeds. Both legs share one deadline,
// the sum of their timeouts. A disabled prober always passes.
func (p *Prober) Check(ctx context.Context) bool {
	if !p.enabled {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, p.probeTimeout+p.fallbackTimeout)
	defer cancel()

	if p.probeURL != "" && p.probeHTTP(ctx) {
		return true
	}
	if p.fallbackAddr != "" && p.probeTCP(ctx) {
		return true
	}
	p.logger.Warn().Str("probe_url", p.probeURL).Str("fallback", p.fallbackAddr).Msg("no outbound connectivity")
	return false
}

// probeHTTP treats any HTTP response, whatever its status, as reachability.
func (p *Prober) probeHTTP(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.probeURL, nil)
	if err != nil {
		p.logger.Debug().Err(err).Msg("invalid probe url")
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug().Err(err).Str("url", p.probeURL).Msg("provider probe failed")
		return false
	}
	_ = resp.Body.Close()
	return true
}

func (p *Prober) probeTCP(ctx context.Context) bool {
	d := net.Dialer{Timeout: p.fallbackTimeout}
	conn, err := d.DialContext(ctx, "tcp", p.fallbackAddr)
	if err != nil {
		p.logger.Debug().Err(err).Str("addr", p.fallbackAddr).Msg("fallback probe failed")
		return false
	}
	_ = conn.Close()
	return true
}
