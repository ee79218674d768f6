package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8090" {
		t.Errorf("HTTPAddr = %q, want :8090", cfg.HTTPAddr)
	}
	if cfg.BackendBaseURL != "http://localhost:8080/api" {
		t.Errorf("BackendBaseURL = %q", cfg.BackendBaseURL)
	}
	if cfg.TerminalID != "terminal-1" {
		t.Errorf("TerminalID = %q", cfg.TerminalID)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("BALLOT_SESSION_TTL", "90s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %q, want :9999", cfg.HTTPAddr)
	}
	if got := cfg.BallotTTL(); got != 90*time.Second {
		t.Errorf("BallotTTL = %v, want 90s", got)
	}
}

func TestDurations_FallBackOnInvalid(t *testing.T) {
	cfg := &Config{
		SessionWatchdogInterval: "not-a-duration",
		SessionRefreshThreshold: "-2m",
		OTPWindow:               "",
		CastCountdown:           "5s",
	}
	if got := cfg.WatchdogInterval(); got != 60*time.Second {
		t.Errorf("WatchdogInterval = %v, want 60s fallback", got)
	}
	if got := cfg.RefreshThreshold(); got != 5*time.Minute {
		t.Errorf("RefreshThreshold = %v, want 5m fallback", got)
	}
	if got := cfg.OTPWindowD(); got != 2*time.Minute {
		t.Errorf("OTPWindowD = %v, want 2m fallback", got)
	}
	if got := cfg.CastCountdownD(); got != 5*time.Second {
		t.Errorf("CastCountdownD = %v, want 5s", got)
	}
}
