package config

import (
	"errors"
	"fmt"
	"github.com/spf13/viper"
	"strings"
	"time"
)

// Config is the main struct that holds all configuration for the application.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Bot       BotConfig       `mapstructure:"bot"`
	SMS       SMSConfig       `mapstructure:"sms"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Bulk      BulkConfig      `mapstructure:"bulk"`
	Session   SessionConfig   `mapstructure:"session"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	RabbitMQ  RabbitMQConfig  `mapstructure:"rabbitmq"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Notifiers NotifiersConfig `mapstructure:"notifiers"`
}

// AppConfig holds process-wide settings.
type AppConfig struct {
	// Mode can be "development" or "production".
	// In "development" mode the SMS provider and the report notifiers are replaced by log-only variants.
	Mode string `mapstructure:"mode"`
}

// LoggerConfig holds logging-specific settings.
type LoggerConfig struct {
	Level string `mapstructure:"level"`
}

// HTTPConfig holds HTTP server-specific settings.
type HTTPConfig struct {
	Port    string `mapstructure:"port"`
	GinMode string `mapstructure:"gin_mode"`
}

// BotConfig holds settings for the Telegram bot front end.
type BotConfig struct {
	Token          string  `mapstructure:"token"`
	PollTimeout    int     `mapstructure:"poll_timeout"`
	Workers        int     `mapstructure:"workers"`
	AllowedChatIDs []int64 `mapstructure:"allowed_chat_ids"`
	RateLimit      int     `mapstructure:"rate_limit"`
}

// SMSConfig holds the message composition and retry settings of the dispatcher.
type SMSConfig struct {
	Header         string             `mapstructure:"header"`
	DefaultMessage string             `mapstructure:"default_message"`
	MaxLength      int                `mapstructure:"max_length"`
	MaxAttempts    int                `mapstructure:"max_attempts"`
	RetryDelay     time.Duration      `mapstructure:"retry_delay"`
	Connectivity   ConnectivityConfig `mapstructure:"connectivity"`
}

// MaxConnectivityCheck bounds the whole pre-send probe, HTTP leg and fallback together.
const MaxConnectivityCheck = 5 * time.Second

// ConnectivityConfig holds the settings of the pre-send reachability probe.
type ConnectivityConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	ProbeTimeout    time.Duration `mapstructure:"probe_timeout"`
	FallbackAddr    string        `mapstructure:"fallback_addr"`
	FallbackTimeout time.Duration `mapstructure:"fallback_timeout"`
}

// ProviderConfig holds the credentials of the SMS gateway. It is never mutated after load.
type ProviderConfig struct {
	// Name is one of "twilio", "textbelt" or "log".
	Name     string         `mapstructure:"name"`
	Timeout  time.Duration  `mapstructure:"timeout"`
	Twilio   TwilioConfig   `mapstructure:"twilio"`
	TextBelt TextBeltConfig `mapstructure:"textbelt"`
}

// TwilioConfig holds Twilio REST credentials and the sender number.
type TwilioConfig struct {
	AccountSID  string `mapstructure:"account_sid"`
	AuthToken   string `mapstructure:"auth_token"`
	PhoneNumber string `mapstructure:"phone_number"`
	BaseURL     string `mapstructure:"base_url"`
}

// TextBeltConfig holds the TextBelt key and endpoint.
type TextBeltConfig struct {
	APIKey string `mapstructure:"api_key"`
	APIURL string `mapstructure:"api_url"`
}

// BulkConfig selects how confirmed bulk sends are executed.
type BulkConfig struct {
	// Runner is "inline" (goroutine inside the bot process) or "queue" (RabbitMQ + worker).
	Runner string `mapstructure:"runner"`
}

// SessionConfig selects where conversation sessions live.
type SessionConfig struct {
	// Backend is "memory" or "redis".
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// PostgresConfig holds all settings for the PostgreSQL database connection.
// An empty DSN keeps the send history in memory.
type PostgresConfig struct {
	DSN  string     `mapstructure:"dsn"`
	Pool PoolConfig `mapstructure:"pool"`
}

// PoolConfig defines the connection pool settings for the database.
type PoolConfig struct {
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RabbitMQConfig holds all settings for the RabbitMQ connection.
type RabbitMQConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig holds all settings for the Redis connection.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// NotifiersConfig holds configurations for the bulk report channels.
type NotifiersConfig struct {
	Email EmailConfig `mapstructure:"email"`
}

// EmailConfig holds SMTP settings for the email notifier.
type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
}

// IsDevelopment reports whether the application runs with log-only side effects.
func (c *Config) IsDevelopment() bool {
	return c.App.Mode == "development"
}

// NewConfig parses the YAML file and environment variables to return a configuration struct.
func NewConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigFile("configs/config.yaml")
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return decode(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.mode", "production")
	v.SetDefault("logger.level", "info")
	v.SetDefault("http.port", ":8080")
	v.SetDefault("http.gin_mode", "release")

	v.SetDefault("bot.poll_timeout", 30)
	v.SetDefault("bot.workers", 4)
	v.SetDefault("bot.rate_limit", 20)

	v.SetDefault("sms.max_length", 160)
	v.SetDefault("sms.max_attempts", 3)
	v.SetDefault("sms.retry_delay", time.Second)
	v.SetDefault("sms.connectivity.enabled", true)
	v.SetDefault("sms.connectivity.probe_timeout", 3*time.Second)
	v.SetDefault("sms.connectivity.fallback_addr", "8.8.8.8:53")
	v.SetDefault("sms.connectivity.fallback_timeout", 2*time.Second)

	v.SetDefault("provider.name", "twilio")
	v.SetDefault("provider.timeout", 15*time.Second)
	v.SetDefault("provider.twilio.base_url", "https://api.twilio.com/2010-04-01")
	v.SetDefault("provider.textbelt.api_url", "https://textbelt.com/text")

	v.SetDefault("bulk.runner", "inline")
	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.ttl", 15*time.Minute)
	v.SetDefault("redis.cache_ttl", 24*time.Hour)
	v.SetDefault("notifiers.email.port", 587)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the fields without which the bot cannot start.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.SMS.Header) == "" {
		errs = append(errs, errors.New("sms.header is required"))
	}
	if c.SMS.MaxAttempts <= 0 {
		errs = append(errs, errors.New("sms.max_attempts must be positive"))
	}

	if conn := c.SMS.Connectivity; conn.Enabled {
		if conn.ProbeTimeout <= 0 || conn.FallbackTimeout <= 0 {
			errs = append(errs, errors.New("sms.connectivity timeouts must be positive"))
		} else if total := conn.ProbeTimeout + conn.FallbackTimeout; total > MaxConnectivityCheck {
			errs = append(errs, fmt.Errorf("sms.connectivity probe_timeout + fallback_timeout is %s, at most %s allowed", total, MaxConnectivityCheck))
		}
	}

	if !c.IsDevelopment() {
		switch c.Provider.Name {
		case "twilio":
			t := c.Provider.Twilio
			if t.AccountSID == "" || t.AuthToken == "" || t.PhoneNumber == "" {
				errs = append(errs, errors.New("provider.twilio requires account_sid, auth_token and phone_number"))
			}
		case "textbelt":
			if c.Provider.TextBelt.APIKey == "" {
				errs = append(errs, errors.New("provider.textbelt.api_key is required"))
			}
		case "log":
		default:
			errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider.Name))
		}
	}

	switch c.Bulk.Runner {
	case "inline":
	case "queue":
		if c.RabbitMQ.DSN == "" {
			errs = append(errs, errors.New("rabbitmq.dsn is required for the queue bulk runner"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown bulk runner %q", c.Bulk.Runner))
	}

	switch c.Session.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required for the redis session backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session backend %q", c.Session.Backend))
	}

	return errors.Join(errs...)
}
