package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither a flag nor WAVECAP_CONFIG names a file.
const DefaultPath = "config/wavecap.yaml"

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the WaveCap clients.
type Config struct {
	Backend Backend `yaml:"backend"`
	Session Session `yaml:"session"`
	Chart   Chart   `yaml:"chart"`
	Broker  Broker  `yaml:"broker"`
	Alpaca  Alpaca  `yaml:"alpaca"`
	Journal Journal `yaml:"journal"`
	Logging Logging `yaml:"logging"`
}

// Backend locates the WaveCap API.
type Backend struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the request timeout as a duration.
func (b Backend) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// Session holds a pre-issued uid. When empty the terminal client starts on
// the login screen.
type Session struct {
	UID string `yaml:"uid"`
}

// Chart configures trend colours.
type Chart struct {
	PositiveColor string  `yaml:"positive_color"`
	NegativeColor string  `yaml:"negative_color"`
	FillOpacity   float64 `yaml:"fill_opacity"`
}

// Broker selects where paper orders are sent: "backend" or "alpaca".
type Broker struct {
	Kind string `yaml:"kind"`
}

// Alpaca holds credentials and endpoints for the Alpaca paper-trading API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
}

// Journal configures the local order journal. An empty path disables it.
type Journal struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at path, loads a .env file from the
// working directory when present, applies environment variable overrides and
// fills defaults. A missing config file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

// ResolvePath returns flagPath if set, then $WAVECAP_CONFIG, then DefaultPath.
func ResolvePath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if v := os.Getenv("WAVECAP_CONFIG"); v != "" {
		return v
	}
	return DefaultPath
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WAVECAP_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("WAVECAP_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("WAVECAP_UID"); v != "" {
		cfg.Session.UID = v
	}
	if v := os.Getenv("WAVECAP_BROKER"); v != "" {
		cfg.Broker.Kind = v
	}
	if v := os.Getenv("WAVECAP_JOURNAL"); v != "" {
		cfg.Journal.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}

	// Standard Alpaca env vars (highest priority, canonical names used by SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = "http://127.0.0.1:5000"
	}
	if cfg.Backend.TimeoutSeconds == 0 {
		cfg.Backend.TimeoutSeconds = 30
	}
	if cfg.Chart.PositiveColor == "" {
		cfg.Chart.PositiveColor = "#22c55e"
	}
	if cfg.Chart.NegativeColor == "" {
		cfg.Chart.NegativeColor = "#ef4444"
	}
	if cfg.Chart.FillOpacity == 0 {
		cfg.Chart.FillOpacity = 0.35
	}
	if cfg.Broker.Kind == "" {
		cfg.Broker.Kind = "backend"
	}
	if cfg.Alpaca.BaseURL == "" {
		cfg.Alpaca.BaseURL = "https://paper-api.alpaca.markets"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// Validate checks that the loaded values are usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.base_url %q is not an absolute URL", c.Backend.BaseURL)
	}
	if c.Backend.TimeoutSeconds < 0 {
		return fmt.Errorf("backend.timeout_seconds must not be negative")
	}
	if c.Chart.FillOpacity <= 0 || c.Chart.FillOpacity > 1 {
		return fmt.Errorf("chart.fill_opacity must be in (0, 1]")
	}
	switch strings.ToLower(c.Broker.Kind) {
	case "backend":
	case "alpaca":
		if c.Alpaca.APIKey == "" || c.Alpaca.APISecret == "" {
			return fmt.Errorf("broker.kind alpaca requires alpaca.api_key and alpaca.api_secret")
		}
	default:
		return fmt.Errorf("broker.kind %q must be backend or alpaca", c.Broker.Kind)
	}
	return nil
}
