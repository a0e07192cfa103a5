// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTSecret is the HS256 signing secret for session tokens. Required unless APP_ENV is development.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTIssuer is the iss claim (e.g. "ticket-office").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTTTL is the session token lifetime (e.g. "24h").
	JWTTTL string `mapstructure:"JWT_TTL"`
	// TwoFactorTTL is the two-factor challenge lifetime (e.g. "5m").
	TwoFactorTTL string `mapstructure:"TWOFACTOR_TTL"`
	// BcryptCost is the bcrypt cost factor (4-31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// StripeSecretKey authenticates outbound calls to the Stripe API.
	StripeSecretKey string `mapstructure:"STRIPE_SECRET_KEY"`
	// StripeWebhookSecret verifies the Stripe-Signature header on inbound webhooks.
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	// StripeBaseURL is the Stripe API base URL (default https://api.stripe.com).
	StripeBaseURL string `mapstructure:"STRIPE_BASE_URL"`

	// FrontendURL is the store-front origin used for checkout redirect URLs and email links.
	FrontendURL string `mapstructure:"APP_FRONTEND_URL"`
	// AppName appears in email subjects and bodies.
	AppName string `mapstructure:"APP_NAME"`
	// SupportEmail appears in password-reset emails.
	SupportEmail string `mapstructure:"SUPPORT_EMAIL"`

	// SMTP settings for the email notifier. Empty SMTPHost disables outbound mail (logged instead).
	SMTPHost string `mapstructure:"SMTP_HOST"`
	SMTPPort string `mapstructure:"SMTP_PORT"`
	SMTPUser string `mapstructure:"SMTP_USER"`
	SMTPPass string `mapstructure:"SMTP_PASS"`
	SMTPFrom string `mapstructure:"SMTP_FROM"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "ticket-office")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("TWOFACTOR_TTL", "5m")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("STRIPE_SECRET_KEY", "")
	v.SetDefault("STRIPE_WEBHOOK_SECRET", "")
	v.SetDefault("STRIPE_BASE_URL", "https://api.stripe.com")
	v.SetDefault("APP_FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("APP_NAME", "Ticket Office")
	v.SetDefault("SUPPORT_EMAIL", "support@localhost")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", "587")
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASS", "")
	v.SetDefault("SMTP_FROM", "")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.JWTSecret == "" && cfg.Env != "development" {
		return nil, errors.New("config: JWT_SECRET must be set unless APP_ENV=development")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// SessionTTL parses JWTTTL as a time.Duration. Returns 24h if unset or invalid.
func (c *Config) SessionTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// ChallengeTTL parses TwoFactorTTL as a time.Duration. Returns 5m if unset or invalid.
func (c *Config) ChallengeTTL() time.Duration {
	d, err := time.ParseDuration(c.TwoFactorTTL)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}
