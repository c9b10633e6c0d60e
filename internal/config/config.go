package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines configuration for the dataset client.
type Config struct {
	// BaseURL is the dataset API base URL.
	BaseURL string `yaml:"base_url"`

	// DecryptEndpoint overrides the decrypt endpoint URL. When empty,
	// it is derived from BaseURL (see DecryptURL).
	DecryptEndpoint string `yaml:"decrypt_endpoint"`

	// Timeout applies to individual backend requests.
	Timeout time.Duration `yaml:"timeout"`

	// DefaultLimit is the page size used when fetching datasets.
	DefaultLimit int `yaml:"default_limit"`

	// MaxLimit is the largest page size the backend accepts.
	MaxLimit int `yaml:"max_limit"`

	// MaxLocalExportRows caps how many rows may be exported locally.
	MaxLocalExportRows int `yaml:"max_local_export_rows"`

	Attestation AttestationConfig `yaml:"attestation"`
	Retry       RetryConfig       `yaml:"retry"`
}

// AttestationConfig defines how the attestation cipher is resolved.
type AttestationConfig struct {
	// SocketPath is the local attestor unix socket.
	SocketPath string `yaml:"socket_path"`

	// Audience is sent in the local token request.
	Audience string `yaml:"audience"`

	// Endpoint is the remote verification service URL.
	Endpoint string `yaml:"endpoint"`

	// Timeout applies to both the socket exchange and the remote call.
	Timeout time.Duration `yaml:"timeout"`
}

// RetryConfig defines retry behavior for backend requests.
type RetryConfig struct {
	Attempts   int           `yaml:"attempts"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		BaseURL:            "https://delong-datasets.avinasi.org",
		Timeout:            30 * time.Second,
		DefaultLimit:       1000,
		MaxLimit:           10000,
		MaxLocalExportRows: 10000,
		Attestation: AttestationConfig{
			SocketPath: "/var/run/delong-attestor/socket",
			Audience:   "https://delongapi.internal",
			Endpoint:   "http://34.111.110.19/attestation/is_confidential",
			Timeout:    10 * time.Second,
		},
		Retry: RetryConfig{
			Attempts:   3,
			Backoff:    time.Second,
			MaxBackoff: 30 * time.Second,
		},
	}
}

// DecryptURL returns the effective decrypt endpoint.
func (c *Config) DecryptURL() string {
	if c.DecryptEndpoint != "" {
		return c.DecryptEndpoint
	}
	return strings.TrimSuffix(c.BaseURL, "/") + "/api/datasets/decrypt"
}

// yamlConfig is used for YAML unmarshaling with string durations.
type yamlConfig struct {
	BaseURL            string                `yaml:"base_url"`
	DecryptEndpoint    string                `yaml:"decrypt_endpoint"`
	Timeout            string                `yaml:"timeout"`
	DefaultLimit       int                   `yaml:"default_limit"`
	MaxLimit           int                   `yaml:"max_limit"`
	MaxLocalExportRows int                   `yaml:"max_local_export_rows"`
	Attestation        yamlAttestationConfig `yaml:"attestation"`
	Retry              yamlRetryConfig       `yaml:"retry"`
}

type yamlAttestationConfig struct {
	SocketPath string `yaml:"socket_path"`
	Audience   string `yaml:"audience"`
	Endpoint   string `yaml:"endpoint"`
	Timeout    string `yaml:"timeout"`
}

type yamlRetryConfig struct {
	Attempts   int    `yaml:"attempts"`
	Backoff    string `yaml:"backoff"`
	MaxBackoff string `yaml:"max_backoff"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.BaseURL != "" {
		cfg.BaseURL = yc.BaseURL
	}
	if yc.DecryptEndpoint != "" {
		cfg.DecryptEndpoint = yc.DecryptEndpoint
	}
	if yc.Timeout != "" {
		d, err := time.ParseDuration(yc.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if yc.DefaultLimit != 0 {
		cfg.DefaultLimit = yc.DefaultLimit
	}
	if yc.MaxLimit != 0 {
		cfg.MaxLimit = yc.MaxLimit
	}
	if yc.MaxLocalExportRows != 0 {
		cfg.MaxLocalExportRows = yc.MaxLocalExportRows
	}
	if yc.Attestation.SocketPath != "" {
		cfg.Attestation.SocketPath = yc.Attestation.SocketPath
	}
	if yc.Attestation.Audience != "" {
		cfg.Attestation.Audience = yc.Attestation.Audience
	}
	if yc.Attestation.Endpoint != "" {
		cfg.Attestation.Endpoint = yc.Attestation.Endpoint
	}
	if yc.Attestation.Timeout != "" {
		d, err := time.ParseDuration(yc.Attestation.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse attestation.timeout: %w", err)
		}
		cfg.Attestation.Timeout = d
	}
	if yc.Retry.Attempts != 0 {
		cfg.Retry.Attempts = yc.Retry.Attempts
	}
	if yc.Retry.Backoff != "" {
		d, err := time.ParseDuration(yc.Retry.Backoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.backoff: %w", err)
		}
		cfg.Retry.Backoff = d
	}
	if yc.Retry.MaxBackoff != "" {
		d, err := time.ParseDuration(yc.Retry.MaxBackoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.max_backoff: %w", err)
		}
		cfg.Retry.MaxBackoff = d
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the DS_ prefix. Timeouts are integer seconds
// to match the conventions of the backend deployment tooling.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("DS_API_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("DS_DECRYPT_ENDPOINT"); v != "" {
		c.DecryptEndpoint = v
	}
	if v := os.Getenv("DS_TIMEOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse DS_TIMEOUT: %w", err)
		}
		c.Timeout = time.Duration(n) * time.Second
	}
	if v := os.Getenv("DS_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse DS_MAX_RETRIES: %w", err)
		}
		c.Retry.Attempts = n
	}
	if v := os.Getenv("DS_RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse DS_RETRY_BACKOFF: %w", err)
		}
		c.Retry.Backoff = d
	}
	if v := os.Getenv("DS_RETRY_MAX_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse DS_RETRY_MAX_BACKOFF: %w", err)
		}
		c.Retry.MaxBackoff = d
	}
	if v := os.Getenv("DS_DEFAULT_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse DS_DEFAULT_LIMIT: %w", err)
		}
		c.DefaultLimit = n
	}
	if v := os.Getenv("DS_MAX_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse DS_MAX_LIMIT: %w", err)
		}
		c.MaxLimit = n
	}
	if v := os.Getenv("DS_MAX_LOCAL_EXPORT_ROWS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse DS_MAX_LOCAL_EXPORT_ROWS: %w", err)
		}
		c.MaxLocalExportRows = n
	}
	if v := os.Getenv("DS_ATTESTATION_SOCKET"); v != "" {
		c.Attestation.SocketPath = v
	}
	if v := os.Getenv("DS_ATTESTATION_AUDIENCE"); v != "" {
		c.Attestation.Audience = v
	}
	if v := os.Getenv("DS_ATTESTATION_ENDPOINT"); v != "" {
		c.Attestation.Endpoint = v
	}
	if v := os.Getenv("DS_ATTESTATION_TIMEOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse DS_ATTESTATION_TIMEOUT: %w", err)
		}
		c.Attestation.Timeout = time.Duration(n) * time.Second
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.BaseURL == "" && c.DecryptEndpoint == "" {
		return errors.New("config: base_url or decrypt_endpoint is required")
	}
	if c.Timeout <= 0 {
		return errors.New("config: timeout must be positive")
	}
	if c.DefaultLimit <= 0 {
		return errors.New("config: default_limit must be positive")
	}
	if c.MaxLimit < c.DefaultLimit {
		return errors.New("config: max_limit must be >= default_limit")
	}
	if c.MaxLocalExportRows <= 0 {
		return errors.New("config: max_local_export_rows must be positive")
	}
	if c.Retry.Attempts < 0 {
		return errors.New("config: retry.attempts must not be negative")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.BaseURL != "" {
		c.BaseURL = override.BaseURL
	}
	if override.DecryptEndpoint != "" {
		c.DecryptEndpoint = override.DecryptEndpoint
	}
	if override.Timeout != 0 {
		c.Timeout = override.Timeout
	}
	if override.DefaultLimit != 0 {
		c.DefaultLimit = override.DefaultLimit
	}
	if override.MaxLimit != 0 {
		c.MaxLimit = override.MaxLimit
	}
	if override.MaxLocalExportRows != 0 {
		c.MaxLocalExportRows = override.MaxLocalExportRows
	}
	if override.Attestation.SocketPath != "" {
		c.Attestation.SocketPath = override.Attestation.SocketPath
	}
	if override.Attestation.Audience != "" {
		c.Attestation.Audience = override.Attestation.Audience
	}
	if override.Attestation.Endpoint != "" {
		c.Attestation.Endpoint = override.Attestation.Endpoint
	}
	if override.Attestation.Timeout != 0 {
		c.Attestation.Timeout = override.Attestation.Timeout
	}
	if override.Retry.Attempts != 0 {
		c.Retry.Attempts = override.Retry.Attempts
	}
	if override.Retry.Backoff != 0 {
		c.Retry.Backoff = override.Retry.Backoff
	}
	if override.Retry.MaxBackoff != 0 {
		c.Retry.MaxBackoff = override.Retry.MaxBackoff
	}
	return c
}
