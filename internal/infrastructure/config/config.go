package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// FileEnv names the environment variable holding an optional config file path.
const FileEnv = "NAVIGATOR_CONFIG"

// Surface modes
const (
	SurfaceModeClient = "client"
	SurfaceModeHost   = "host"
	SurfaceModeNone   = "none"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
	Navigator NavigatorConfig `yaml:"navigator" toml:"navigator"`
	Surface   SurfaceConfig   `yaml:"surface" toml:"surface"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" yaml:"port" toml:"port"`
	Host string `envconfig:"HOST" yaml:"host" toml:"host"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" yaml:"development" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" yaml:"rps" toml:"rps"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" yaml:"enabled" toml:"enabled"`
}

// NavigatorConfig holds page stack configuration.
type NavigatorConfig struct {
	RootLocator         string   `envconfig:"NAV_ROOT_LOCATOR" yaml:"root_locator" toml:"root_locator"`
	RootTitle           string   `envconfig:"NAV_ROOT_TITLE" yaml:"root_title" toml:"root_title"`
	PendingTimeout      Duration `envconfig:"NAV_PENDING_TIMEOUT" yaml:"pending_timeout" toml:"pending_timeout"`
	AllowedLocators     []string `envconfig:"NAV_ALLOWED_LOCATORS" yaml:"allowed_locators" toml:"allowed_locators"`
	MaxPayloadBytes     int      `envconfig:"NAV_MAX_PAYLOAD_BYTES" yaml:"max_payload_bytes" toml:"max_payload_bytes"`
	OutboxSize          int      `envconfig:"NAV_OUTBOX_SIZE" yaml:"outbox_size" toml:"outbox_size"`
	DestroyOnDisconnect bool     `envconfig:"NAV_DESTROY_ON_DISCONNECT" yaml:"destroy_on_disconnect" toml:"destroy_on_disconnect"`
}

// SurfaceConfig selects how page surfaces are built.
type SurfaceConfig struct {
	Mode    string   `envconfig:"SURFACE_MODE" yaml:"mode" toml:"mode"`
	HostURL string   `envconfig:"SURFACE_HOST_URL" yaml:"host_url" toml:"host_url"`
	Timeout Duration `envconfig:"SURFACE_TIMEOUT" yaml:"timeout" toml:"timeout"`
	Retries int      `envconfig:"SURFACE_RETRIES" yaml:"retries" toml:"retries"`
}

// Duration is a time.Duration that decodes from strings like "30s" in
// environment variables and config files alike.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Load loads configuration from defaults, then the optional file named by
// NAVIGATOR_CONFIG, then environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads configuration from defaults and a file, ignoring the
// environment.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		err = toml.Unmarshal(data, c)
	default:
		return fmt.Errorf("unsupported config file extension %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Surface.Mode {
	case SurfaceModeClient, SurfaceModeNone:
	case SurfaceModeHost:
		if c.Surface.HostURL == "" {
			return fmt.Errorf("invalid config: SURFACE_HOST_URL is required in host mode")
		}
	default:
		return fmt.Errorf("invalid config: unknown surface mode %q", c.Surface.Mode)
	}
	if c.Navigator.RootLocator == "" {
		return fmt.Errorf("invalid config: root locator is required")
	}
	if c.Navigator.PendingTimeout < 0 {
		return fmt.Errorf("invalid config: pending timeout must not be negative")
	}
	if c.Navigator.OutboxSize <= 0 {
		return fmt.Errorf("invalid config: outbox size must be positive")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Navigator: NavigatorConfig{
			RootLocator:     "page://root",
			RootTitle:       "Home",
			PendingTimeout:  Duration(30 * time.Second),
			MaxPayloadBytes: 256 * 1024,
			OutboxSize:      64,
		},
		Surface: SurfaceConfig{
			Mode:    SurfaceModeClient,
			Timeout: Duration(10 * time.Second),
			Retries: 3,
		},
	}
}
