package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := New()
	if cfg.ServerURL() != "http://localhost:8000" {
		t.Errorf("ServerURL = %q", cfg.ServerURL())
	}
	if cfg.PollInterval() != time.Second {
		t.Errorf("PollInterval = %v, want 1s", cfg.PollInterval())
	}
	if cfg.ReconnectDelay() != 3*time.Second {
		t.Errorf("ReconnectDelay = %v, want 3s", cfg.ReconnectDelay())
	}
	if cfg.ServiceName() == "" {
		t.Error("ServiceName should have a default")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SOLVEYA_SERVER_URL", "https://engine.internal:9443")
	t.Setenv("TELEMETRY_WS_URL", "wss://engine.internal:9443/api/v1/telemetry/ws")
	t.Setenv("POLL_INTERVAL_MS", "250")
	t.Setenv("RECONNECT_DELAY_MS", "500")
	t.Setenv("DROP_FOLDER", "/var/spool/solveya")

	cfg := New()
	if cfg.ServerURL() != "https://engine.internal:9443" {
		t.Errorf("ServerURL = %q", cfg.ServerURL())
	}
	if cfg.TelemetryURL() != "wss://engine.internal:9443/api/v1/telemetry/ws" {
		t.Errorf("TelemetryURL = %q", cfg.TelemetryURL())
	}
	if cfg.PollInterval() != 250*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.PollInterval())
	}
	if cfg.ReconnectDelay() != 500*time.Millisecond {
		t.Errorf("ReconnectDelay = %v", cfg.ReconnectDelay())
	}
	if cfg.DropFolder() != "/var/spool/solveya" {
		t.Errorf("DropFolder = %q", cfg.DropFolder())
	}
}

func TestInvalidDurationsFallBack(t *testing.T) {
	t.Setenv("POLL_INTERVAL_MS", "not-a-number")
	t.Setenv("RECONNECT_DELAY_MS", "-5")

	cfg := New()
	if cfg.PollInterval() != time.Second {
		t.Errorf("PollInterval = %v, want default 1s", cfg.PollInterval())
	}
	if cfg.ReconnectDelay() != 3*time.Second {
		t.Errorf("ReconnectDelay = %v, want default 3s", cfg.ReconnectDelay())
	}
}
