// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON file and environment
// variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"port" envconfig:"SERVER_ADDRESS"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn" envconfig:"DATABASE_DSN"`

	// Config is the path to the Config file.
	Config string `json:"-" envconfig:"CONFIG"`

	// AppSecret signs session tokens.
	AppSecret string `json:"app_secret" envconfig:"APP_SECRET"`

	// FrontendURL is the allowed CORS origin and the base of reset links.
	FrontendURL string `json:"frontend_url" envconfig:"FRONTEND_URL"`

	// CookieSecure marks the session cookie Secure and SameSite=None so a
	// frontend on another site can send it.
	CookieSecure bool `json:"cookie_secure" envconfig:"COOKIE_SECURE"`

	// StripeSecret is the payment processor API key.
	StripeSecret string `json:"stripe_secret" envconfig:"STRIPE_SECRET"`
	// StripeURL overrides the payment processor endpoint.
	StripeURL string `json:"stripe_url" envconfig:"STRIPE_URL"`
	// Currency is the ISO code charged at checkout.
	Currency string `json:"currency" envconfig:"CURRENCY"`

	SMTPHost string `json:"smtp_host" envconfig:"SMTP_HOST"`
	SMTPPort int    `json:"smtp_port" envconfig:"SMTP_PORT"`
	SMTPUser string `json:"smtp_user" envconfig:"SMTP_USER"`
	SMTPPass string `json:"smtp_pass" envconfig:"SMTP_PASS"`
	MailFrom string `json:"mail_from" envconfig:"MAIL_FROM"`

	// MailQueue routes outgoing mail through the background worker.
	MailQueue bool `json:"mail_queue" envconfig:"MAIL_QUEUE"`
	// RedisAddr is the job queue broker address.
	RedisAddr string `json:"redis_addr" envconfig:"REDIS_ADDR"`

	// LogLevel is the minimum zap level.
	LogLevel string `json:"log_level" envconfig:"LOG_LEVEL"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert" envconfig:"TLS_CERT"`
	TLSKey  string `json:"tls_key" envconfig:"TLS_KEY"`

	// ResetCleanupInterval is how often expired reset tokens are cleared.
	// The config file accepts a duration string ("15m") or nanoseconds.
	ResetCleanupInterval time.Duration `json:"reset_cleanup_interval" envconfig:"RESET_CLEANUP_INTERVAL"`
}

// Defaults returns the options used before flags, file and environment apply.
func Defaults() *Options {
	return &Options{
		Port:                 "localhost:4444",
		Config:               "config.json",
		FrontendURL:          "http://localhost:7777",
		Currency:             "usd",
		SMTPHost:             "localhost",
		SMTPPort:             1025,
		MailFrom:             "shop@storefront.local",
		RedisAddr:            "127.0.0.1:6379",
		LogLevel:             "info",
		ResetCleanupInterval: 15 * time.Minute,
	}
}

// Parse parses the command-line flags and environment variables to set
// configuration values. Precedence, lowest first: defaults, flags, config
// file, environment.
func Parse(args []string) (*Options, error) {
	options := Defaults()

	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)
	fs.StringVar(&options.Port, "a", options.Port, "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", options.DatabaseDSN, "db address")
	fs.StringVar(&options.Config, "config", options.Config, "path to config file")
	fs.StringVar(&options.Config, "c", options.Config, "path to config file (shorthand)")
	fs.StringVar(&options.LogLevel, "l", options.LogLevel, "log level")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				return nil, fmt.Errorf("error while reading config file: %w", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	if err := envconfig.Process("", options); err != nil {
		return nil, fmt.Errorf("error while reading environment: %w", err)
	}

	return options, nil
}

// UnmarshalJSON reads the config file, accepting durations as strings.
func (o *Options) UnmarshalJSON(data []byte) error {
	type Alias Options
	aux := struct {
		*Alias
		ResetCleanupInterval json.RawMessage `json:"reset_cleanup_interval"`
	}{Alias: (*Alias)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.ResetCleanupInterval) == 0 || string(aux.ResetCleanupInterval) == "null" {
		return nil
	}
	d, err := parseDuration(aux.ResetCleanupInterval)
	if err != nil {
		return fmt.Errorf("reset_cleanup_interval: %w", err)
	}
	o.ResetCleanupInterval = d
	return nil
}

func parseDuration(raw json.RawMessage) (time.Duration, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return time.ParseDuration(s)
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("expected duration string or nanoseconds: %w", err)
	}
	return time.Duration(n), nil
}

// Validate reports missing settings the server cannot start without.
func (o *Options) Validate() error {
	if o.DatabaseDSN == "" {
		return errors.New("database dsn must be provided")
	}
	if o.AppSecret == "" {
		return errors.New("app secret must be provided")
	}
	if o.ResetCleanupInterval <= 0 {
		return fmt.Errorf("reset cleanup interval must be positive, got %s", o.ResetCleanupInterval)
	}
	return nil
}

// TLSEnabled reports whether the server should listen with TLS.
func (o *Options) TLSEnabled() bool {
	return o.TLSCert != "" && o.TLSKey != ""
}
