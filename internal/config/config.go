// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the gateway HTTP server listens on (e.g. :8090).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// BackendBaseURL is the root of the authoritative VoteGuard REST API (e.g. http://localhost:8080/api).
	BackendBaseURL string `mapstructure:"BACKEND_BASE_URL"`
	// DatabaseURL is the Postgres DSN for local gateway state (session blob, center bindings, audit); empty disables persistence.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// TerminalID identifies this voting terminal; keys the persisted session blob.
	TerminalID string `mapstructure:"TERMINAL_ID"`
	// RequestTimeout bounds every call to the backend collaborator (e.g. "10s").
	RequestTimeout string `mapstructure:"REQUEST_TIMEOUT"`
	// SessionWatchdogInterval is the cadence of the expiry watchdog (e.g. "60s").
	SessionWatchdogInterval string `mapstructure:"SESSION_WATCHDOG_INTERVAL"`
	// SessionRefreshThreshold is how close to expiry a session is refreshed (e.g. "5m").
	SessionRefreshThreshold string `mapstructure:"SESSION_REFRESH_THRESHOLD"`
	// OTPWindow is the nominal validity of a center-activation OTP (e.g. "2m").
	OTPWindow string `mapstructure:"OTP_WINDOW"`
	// BallotSessionTTL is how long a voter may hold the ballot screen (e.g. "120s").
	BallotSessionTTL string `mapstructure:"BALLOT_SESSION_TTL"`
	// CastCountdown is the post-vote countdown before forced logout (e.g. "5s").
	CastCountdown string `mapstructure:"CAST_COUNTDOWN"`
	// OTLPEndpoint is the OTLP collector endpoint (e.g. http://localhost:4317); empty disables telemetry export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
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

	v.SetDefault("HTTP_ADDR", ":8090")
	v.SetDefault("BACKEND_BASE_URL", "http://localhost:8080/api")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("TERMINAL_ID", "terminal-1")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("SESSION_WATCHDOG_INTERVAL", "60s")
	v.SetDefault("SESSION_REFRESH_THRESHOLD", "5m")
	v.SetDefault("OTP_WINDOW", "2m")
	v.SetDefault("BALLOT_SESSION_TTL", "120s")
	v.SetDefault("CAST_COUNTDOWN", "5s")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.BackendBaseURL == "" {
		return nil, errors.New("config: BACKEND_BASE_URL must be set")
	}
	if cfg.TerminalID == "" {
		return nil, errors.New("config: TERMINAL_ID must be set")
	}

	return &cfg, nil
}

func duration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// RequestTimeoutD parses RequestTimeout. Returns 10s if unset or invalid.
func (c *Config) RequestTimeoutD() time.Duration {
	return duration(c.RequestTimeout, 10*time.Second)
}

// WatchdogInterval parses SessionWatchdogInterval. Returns 60s if unset or invalid.
func (c *Config) WatchdogInterval() time.Duration {
	return duration(c.SessionWatchdogInterval, 60*time.Second)
}

// RefreshThreshold parses SessionRefreshThreshold. Returns 5m if unset or invalid.
func (c *Config) RefreshThreshold() time.Duration {
	return duration(c.SessionRefreshThreshold, 5*time.Minute)
}

// OTPWindowD parses OTPWindow. Returns 2m if unset or invalid.
func (c *Config) OTPWindowD() time.Duration {
	return duration(c.OTPWindow, 2*time.Minute)
}

// BallotTTL parses BallotSessionTTL. Returns 120s if unset or invalid.
func (c *Config) BallotTTL() time.Duration {
	return duration(c.BallotSessionTTL, 120*time.Second)
}

// CastCountdownD parses CastCountdown. Returns 5s if unset or invalid.
func (c *Config) CastCountdownD() time.Duration {
	return duration(c.CastCountdown, 5*time.Second)
}
