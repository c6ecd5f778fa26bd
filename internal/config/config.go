// Package config loads and validates the petsync YAML configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration loaded from YAML.
type Config struct {
	// APIURL is the base URL of the backend REST API (e.g. "https://api.example.com").
	APIURL string `yaml:"api_url"`

	// APIToken is the bearer token used to authenticate every request.
	APIToken string `yaml:"api_token"`

	// DBPath is the SQLite database file. Defaults to the per-user data
	// directory if unset.
	DBPath string `yaml:"db_path,omitempty"`

	// ImageCacheDir is where pet pictures are mirrored for offline use.
	// Defaults to the per-user cache directory; set to "off" to disable.
	ImageCacheDir string `yaml:"image_cache_dir,omitempty"`

	// SyncInterval controls how often a full sync pass runs in daemon mode.
	// Minimum 30s, maximum 1h. Defaults to 5m if unset.
	SyncInterval time.Duration `yaml:"sync_interval"`

	// ConnectivityTTL is how long a connectivity probe result is reused.
	// Defaults to 2s if unset.
	ConnectivityTTL time.Duration `yaml:"connectivity_ttl,omitempty"`

	// Telemetry configures optional OpenTelemetry export via OTLP gRPC.
	// Omit the block entirely to disable telemetry.
	Telemetry *TelemetryConfig `yaml:"telemetry,omitempty"`
}

// TelemetryConfig holds optional OpenTelemetry settings.
type TelemetryConfig struct {
	// OTLPEndpoint is the gRPC host:port of the OTLP collector (e.g. "localhost:4317").
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// Insecure disables TLS for the collector connection. Use for local collectors.
	Insecure bool `yaml:"insecure"`

	// ServiceName overrides the OTel service.name attribute. Defaults to "petsync".
	ServiceName string `yaml:"service_name"`

	// Headers contains key-value pairs sent as gRPC metadata on every OTLP
	// request. Equivalent to the OTEL_EXPORTER_OTLP_HEADERS environment
	// variable. Use this for authentication tokens, e.g.:
	//   Authorization: "Bearer <token>"
	Headers map[string]string `yaml:"headers,omitempty"`
}

// ImageCacheDisabled reports whether picture caching was turned off
// explicitly.
func (c *Config) ImageCacheDisabled() bool {
	return c.ImageCacheDir == "off"
}

// DefaultPath returns the default config file path: ~/.config/petsync/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "petsync", "config.yaml"), nil
}

// Load reads and validates the configuration file at the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file %q: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true) // reject unknown keys to catch typos early
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// validate checks that all required fields are present and well-formed.
func (c *Config) validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api_url is required")
	}
	u, err := url.ParseRequestURI(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("api_url %q must be a valid http or https URL", c.APIURL)
	}

	if c.APIToken == "" {
		return fmt.Errorf("api_token is required")
	}

	if c.SyncInterval == 0 {
		c.SyncInterval = 5 * time.Minute
	}
	if c.SyncInterval < 30*time.Second {
		return fmt.Errorf("sync_interval %v is too short (minimum 30s)", c.SyncInterval)
	}
	if c.SyncInterval > time.Hour {
		return fmt.Errorf("sync_interval %v is too long (maximum 1h)", c.SyncInterval)
	}

	if c.ConnectivityTTL == 0 {
		c.ConnectivityTTL = 2 * time.Second
	}
	if c.ConnectivityTTL < 0 {
		return fmt.Errorf("connectivity_ttl must be positive")
	}

	if c.Telemetry != nil {
		if c.Telemetry.OTLPEndpoint == "" {
			return fmt.Errorf("telemetry.otlp_endpoint is required when telemetry is configured")
		}
	}

	return nil
}
