// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the email forwarder.
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

// DefaultForwardTimeout bounds a single POST including the response.
const DefaultForwardTimeout = 300 * time.Second

// ErrMissingEndpoint and ErrMissingBucket are returned by Validate.
var (
	ErrMissingEndpoint = errors.New("config: API_ENDPOINT is required")
	ErrMissingBucket   = errors.New("config: S3_BUCKET_NAME is required")
)

// Config holds the complete application configuration.
type Config struct {
	Forward ForwardConfig `yaml:"forward"`
	Storage StorageConfig `yaml:"storage"`
	Queue   QueueConfig   `yaml:"queue"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// ForwardConfig holds the downstream HTTP endpoint settings.
type ForwardConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// StorageConfig holds the S3 location of stored emails.
type StorageConfig struct {
	Bucket          string `yaml:"bucket"`
	KeyPrefix       string `yaml:"key_prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// QueueConfig holds SQS settings used by the polling worker.
type QueueConfig struct {
	URL             string `yaml:"url"`
	WaitTimeSeconds int32  `yaml:"wait_time_seconds"`
	MaxMessages     int32  `yaml:"max_messages"`
}

// MetricsConfig holds the Prometheus listener address.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// Validate reports the first missing required setting.
func (c *Config) Validate() error {
	if c.Forward.Endpoint == "" {
		return ErrMissingEndpoint
	}
	if c.Storage.Bucket == "" {
		return ErrMissingBucket
	}
	if c.Forward.Timeout <= 0 {
		return fmt.Errorf("config: forward timeout must be positive, got %s", c.Forward.Timeout)
	}
	return nil
}

// StaticCredentials returns true if both S3 access keys are set.
func (c *Config) StaticCredentials() bool {
	return c.Storage.AccessKeyID != "" && c.Storage.SecretAccessKey != ""
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.Forward.Timeout = DefaultForwardTimeout
	c.Queue.WaitTimeSeconds = 20
	c.Queue.MaxMessages = 10
	c.Metrics.Listen = ":9090"
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("API_ENDPOINT"); v != "" {
		c.Forward.Endpoint = v
	}
	if v := os.Getenv("FORWARD_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Forward.Timeout = d
		}
	}

	if v := os.Getenv("S3_BUCKET_NAME"); v != "" {
		c.Storage.Bucket = v
	}
	if v := os.Getenv("S3_KEY_PREFIX"); v != "" {
		c.Storage.KeyPrefix = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		c.Storage.Region = v
	}
	// S3_REGION wins over the Lambda-provided AWS_REGION.
	if v := os.Getenv("S3_REGION"); v != "" {
		c.Storage.Region = v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		c.Storage.Endpoint = v
	}
	if v := os.Getenv("S3_ACCESS_KEY_ID"); v != "" {
		c.Storage.AccessKeyID = v
	}
	if v := os.Getenv("S3_SECRET_ACCESS_KEY"); v != "" {
		c.Storage.SecretAccessKey = v
	}

	if v := os.Getenv("SQS_QUEUE_URL"); v != "" {
		c.Queue.URL = v
	}
	if v := os.Getenv("SQS_WAIT_TIME"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			c.Queue.WaitTimeSeconds = int32(n)
		}
	}
	if v := os.Getenv("SQS_MAX_MESSAGES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			c.Queue.MaxMessages = int32(n)
		}
	}

	if v := os.Getenv("METRICS_LISTEN"); v != "" {
		c.Metrics.Listen = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}
