package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"WAVECAP_BACKEND_URL", "WAVECAP_TIMEOUT_SECONDS", "WAVECAP_UID", "WAVECAP_BROKER",
		"WAVECAP_JOURNAL", "LOG_LEVEL", "LOG_FILE", "ALPACA_API_KEY", "ALPACA_API_SECRET",
		"ALPACA_BASE_URL", "APCA_API_KEY_ID", "APCA_API_SECRET_KEY", "WAVECAP_CONFIG",
	} {
		t.Setenv(k, "")
	}
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "wavecap-config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatalf("failed to close temp file: %v", err)
	}
	return tmpFile.Name()
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `
backend:
  base_url: "http://wavecap.local:8000"
  timeout_seconds: 10
session:
  uid: "u-123"
chart:
  positive_color: "#00ff00"
  negative_color: "#ff0000"
  fill_opacity: 0.5
broker:
  kind: "alpaca"
alpaca:
  api_key: "test-key"
  api_secret: "test-secret"
journal:
  sqlite_path: "/tmp/wavecap/orders.db"
logging:
  level: "debug"
  format: "json"
  file: "/tmp/wavecap.log"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Backend.BaseURL != "http://wavecap.local:8000" {
		t.Errorf("Backend.BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Timeout() != 10*time.Second {
		t.Errorf("Backend.Timeout() = %v, want 10s", cfg.Backend.Timeout())
	}
	if cfg.Session.UID != "u-123" {
		t.Errorf("Session.UID = %q, want %q", cfg.Session.UID, "u-123")
	}
	if cfg.Chart.PositiveColor != "#00ff00" || cfg.Chart.NegativeColor != "#ff0000" {
		t.Errorf("Chart colors = %q/%q", cfg.Chart.PositiveColor, cfg.Chart.NegativeColor)
	}
	if cfg.Chart.FillOpacity != 0.5 {
		t.Errorf("Chart.FillOpacity = %v, want 0.5", cfg.Chart.FillOpacity)
	}
	if cfg.Broker.Kind != "alpaca" {
		t.Errorf("Broker.Kind = %q", cfg.Broker.Kind)
	}
	if cfg.Alpaca.BaseURL != "https://paper-api.alpaca.markets" {
		t.Errorf("Alpaca.BaseURL default = %q", cfg.Alpaca.BaseURL)
	}
	if cfg.Journal.SQLitePath != "/tmp/wavecap/orders.db" {
		t.Errorf("Journal.SQLitePath = %q", cfg.Journal.SQLitePath)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" || cfg.Logging.File != "/tmp/wavecap.log" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Backend.BaseURL != "http://127.0.0.1:5000" {
		t.Errorf("Backend.BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.TimeoutSeconds != 30 {
		t.Errorf("Backend.TimeoutSeconds = %d, want 30", cfg.Backend.TimeoutSeconds)
	}
	if cfg.Broker.Kind != "backend" {
		t.Errorf("Broker.Kind = %q, want backend", cfg.Broker.Kind)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Journal.SQLitePath != "" {
		t.Errorf("Journal should default to disabled, got %q", cfg.Journal.SQLitePath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, "backend: [unclosed")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `
backend:
  base_url: "http://from-file:5000"
alpaca:
  api_key: "file-key"
`)

	t.Setenv("WAVECAP_BACKEND_URL", "http://from-env:5000")
	t.Setenv("WAVECAP_UID", "env-uid")
	t.Setenv("WAVECAP_TIMEOUT_SECONDS", "5")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("ALPACA_API_KEY", "alpaca-key")
	t.Setenv("APCA_API_KEY_ID", "apca-key")
	t.Setenv("APCA_API_SECRET_KEY", "apca-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Backend.BaseURL != "http://from-env:5000" {
		t.Errorf("Backend.BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Session.UID != "env-uid" {
		t.Errorf("Session.UID = %q", cfg.Session.UID)
	}
	if cfg.Backend.TimeoutSeconds != 5 {
		t.Errorf("Backend.TimeoutSeconds = %d", cfg.Backend.TimeoutSeconds)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
	// APCA_* wins over ALPACA_* and the file.
	if cfg.Alpaca.APIKey != "apca-key" {
		t.Errorf("Alpaca.APIKey = %q, want apca-key", cfg.Alpaca.APIKey)
	}
	if cfg.Alpaca.APISecret != "apca-secret" {
		t.Errorf("Alpaca.APISecret = %q", cfg.Alpaca.APISecret)
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	base := func() *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
		if err != nil {
			t.Fatal(err)
		}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"relative url", func(c *Config) { c.Backend.BaseURL = "localhost:5000" }, true},
		{"negative timeout", func(c *Config) { c.Backend.TimeoutSeconds = -1 }, true},
		{"opacity too high", func(c *Config) { c.Chart.FillOpacity = 1.5 }, true},
		{"unknown broker", func(c *Config) { c.Broker.Kind = "ibkr" }, true},
		{"alpaca without keys", func(c *Config) { c.Broker.Kind = "alpaca" }, true},
		{"alpaca with keys", func(c *Config) {
			c.Broker.Kind = "alpaca"
			c.Alpaca.APIKey, c.Alpaca.APISecret = "k", "s"
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolvePath(t *testing.T) {
	clearEnv(t)
	if got := ResolvePath(""); got != DefaultPath {
		t.Errorf("ResolvePath(\"\") = %q, want %q", got, DefaultPath)
	}
	t.Setenv("WAVECAP_CONFIG", "/etc/wavecap.yaml")
	if got := ResolvePath(""); got != "/etc/wavecap.yaml" {
		t.Errorf("ResolvePath with env = %q", got)
	}
	if got := ResolvePath("./x.yaml"); got != "./x.yaml" {
		t.Errorf("ResolvePath with flag = %q", got)
	}
}
