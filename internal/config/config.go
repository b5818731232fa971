// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Email provider names accepted by EMAIL_PROVIDER.
const (
	EmailProviderResend = "resend"
	EmailProviderLog    = "log"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache (Redis). Optional: without it there is no run lease and no
	// rate limit on /email/send.
	RedisURL string `env:"REDIS_URL"`

	// Public app URL, used to build the top-up link in low-balance emails.
	AppBaseURL string `env:"APP_BASE_URL" envDefault:"https://aiinterface.com"`

	// Root URL of a remote email dispatcher. Empty means the scanner calls
	// this process's dispatcher directly.
	DispatcherURL string `env:"DISPATCHER_URL"`

	// Trust X-Forwarded-For / X-Real-IP for client addresses. Enable only
	// behind a proxy that overwrites them.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	// Shared bearer secrets. Empty disables the check.
	CronSecret     string `env:"CRON_SECRET"`
	EmailAPISecret string `env:"EMAIL_API_SECRET"`

	// Email provider
	EmailProvider string `env:"EMAIL_PROVIDER" envDefault:"resend"`
	ResendAPIKey  string `env:"RESEND_API_KEY"`
	FromEmail     string `env:"FROM_EMAIL" envDefault:"onboarding@resend.dev"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts. Writes cover a whole balance check run.
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"5m"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Balance scanner
	BalanceCheckInterval time.Duration `env:"BALANCE_CHECK_INTERVAL" envDefault:"0s"`
	AlertDedupWindow     time.Duration `env:"ALERT_DEDUP_WINDOW" envDefault:"24h"`
	RunLeaseTTL          time.Duration `env:"RUN_LEASE_TTL" envDefault:"10m"`

	// Rate limiting on /email/send (per IP)
	RateLimitEmailEnabled bool `env:"RATE_LIMIT_EMAIL_ENABLED" envDefault:"true"`
	RateLimitEmailRPS     int  `env:"RATE_LIMIT_EMAIL_RPS" envDefault:"10"`
	RateLimitEmailBurst   int  `env:"RATE_LIMIT_EMAIL_BURST" envDefault:"20"`

	// Request body size limit in bytes (default 64KB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"65536"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// RemoteDispatcherURL returns DISPATCHER_URL without a trailing slash, or
// "" when the in-process dispatcher should be used.
func (c *Config) RemoteDispatcherURL() string {
	return strings.TrimSuffix(c.DispatcherURL, "/")
}

// SchedulerEnabled returns true if the API process should trigger balance
// checks itself.
func (c *Config) SchedulerEnabled() bool {
	return c.BalanceCheckInterval > 0
}

// Validate checks values that struct tags cannot express.
func (c *Config) Validate() error {
	switch c.EmailProvider {
	case EmailProviderResend:
		if c.ResendAPIKey == "" && c.IsProduction() {
			return errors.New("RESEND_API_KEY is required when EMAIL_PROVIDER=resend in production")
		}
	case EmailProviderLog:
	default:
		return fmt.Errorf("unknown EMAIL_PROVIDER %q (want %s or %s)", c.EmailProvider, EmailProviderResend, EmailProviderLog)
	}

	if c.AlertDedupWindow <= 0 {
		return errors.New("ALERT_DEDUP_WINDOW must be positive")
	}
	if c.BalanceCheckInterval < 0 {
		return errors.New("BALANCE_CHECK_INTERVAL must not be negative")
	}
	if c.RateLimitEmailEnabled && (c.RateLimitEmailRPS <= 0 || c.RateLimitEmailBurst <= 0) {
		return errors.New("RATE_LIMIT_EMAIL_RPS and RATE_LIMIT_EMAIL_BURST must be positive")
	}
	return nil
}

// Load parses environment variables and returns a validated Config.
// Outside production a .env file in the working directory is read first;
// variables already set in the environment win.
func Load() (*Config, error) {
	if err := loadDotenv(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ClientConfig configures the notifyctl CLI.
type ClientConfig struct {
	// Root URL of a running notifier API.
	URL            string        `env:"NOTIFIER_URL" envDefault:"http://localhost:8080"`
	CronSecret     string        `env:"CRON_SECRET"`
	EmailAPISecret string        `env:"EMAIL_API_SECRET"`
	Timeout        time.Duration `env:"NOTIFIER_TIMEOUT" envDefault:"5m"`
}

// LoadClient parses the CLI's environment.
func LoadClient() (*ClientConfig, error) {
	if err := loadDotenv(); err != nil {
		return nil, err
	}

	cfg := &ClientConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse client config: %w", err)
	}
	return cfg, nil
}

// dotenvFile is read relative to the working directory.
var dotenvFile = ".env"

func loadDotenv() error {
	if os.Getenv("APP_ENV") == "production" {
		return nil
	}
	if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", dotenvFile, err)
	}
	return nil
}
