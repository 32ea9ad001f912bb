// Package config loads the turbo server configuration from YAML.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/edisonylee/turbocommerce-sub001/internal/runtime"
	"github.com/edisonylee/turbocommerce-sub001/pkg/domain"
)

// DefaultPath is the configuration file read when no path is given.
const DefaultPath = "turbo.yaml"

// Config is the root of turbo.yaml.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Recorder  RecorderConfig  `yaml:"recorder"`

	// Workloads declares fixture workloads. Entries are decoded with
	// DecodeWorkloads so durations and fallback modes may be plain strings.
	Workloads []map[string]any `yaml:"workloads"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
}

// SchedulerConfig configures the section scheduler.
type SchedulerConfig struct {
	Ordering         string        `yaml:"ordering"`
	Flush            string        `yaml:"flush"`
	FlushBytes       int           `yaml:"flush_bytes"`
	FlushInterval    time.Duration `yaml:"flush_interval"`
	MaxInFlight      int           `yaml:"max_in_flight"`
	MaxBufferedBytes int           `yaml:"max_buffered_bytes"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// RecorderConfig configures replay capture.
type RecorderConfig struct {
	Enabled bool          `yaml:"enabled"`
	Store   string        `yaml:"store"`
	Dir     string        `yaml:"dir"`
	TTL     time.Duration `yaml:"ttl"`
	Redis   RedisConfig   `yaml:"redis"`

	// Redact lists case-insensitive patterns of header and query names
	// whose values are masked before a recording is stored.
	Redact []string `yaml:"redact"`

	// EncryptionKey is a base64 AES-256 key sealing recorded bytes at rest.
	EncryptionKey string `yaml:"encryption_key"`
}

// RedisConfig addresses the redis recording store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// Recording store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			RequestTimeout:    5 * time.Second,
		},
		Scheduler: SchedulerConfig{
			Ordering:         string(domain.OrderDocument),
			Flush:            "per_event",
			MaxInFlight:      runtime.DefaultMaxInFlight,
			MaxBufferedBytes: runtime.DefaultMaxBufferedBytes,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
		Recorder: RecorderConfig{
			Store:  StoreMemory,
			Dir:    ".turbo/recordings",
			TTL:    24 * time.Hour,
			Redis:  RedisConfig{Addr: "localhost:6379"},
			Redact: []string{"^authorization$", "^cookie$", "token", "secret", "password"},
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.Getenv)
	return cfg, cfg.Validate()
}

// Parse decodes YAML over the defaults without consulting the environment.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("TURBO_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := getenv("TURBO_REDIS_ADDR"); v != "" {
		c.Recorder.Redis.Addr = v
	}
	if v := getenv("TURBO_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := getenv("TURBO_RECORDER_KEY"); v != "" {
		c.Recorder.EncryptionKey = v
	}
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	var errs []error
	if _, err := domain.ParseOrderingMode(c.Scheduler.Ordering); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.FlushPolicy(); err != nil {
		errs = append(errs, err)
	}
	if c.Scheduler.MaxInFlight < 0 || c.Scheduler.MaxBufferedBytes < 0 {
		errs = append(errs, errors.New("scheduler limits must not be negative"))
	}
	switch c.Recorder.Store {
	case "", StoreMemory, StoreFile, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown recorder store %q", c.Recorder.Store))
	}
	for _, p := range c.Recorder.Redact {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("recorder redact pattern %q: %w", p, err))
		}
	}
	if _, err := c.Recorder.Key(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.DecodeWorkloads(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// OrderingMode returns the configured ordering.
func (c Config) OrderingMode() domain.OrderingMode {
	m, _ := domain.ParseOrderingMode(c.Scheduler.Ordering)
	return m
}

// FlushPolicy builds the configured flush policy.
func (c Config) FlushPolicy() (runtime.FlushPolicy, error) {
	return runtime.ParseFlushPolicy(c.Scheduler.Flush, c.Scheduler.FlushBytes, c.Scheduler.FlushInterval)
}

// Key decodes the recorder encryption key. It returns nil when unset.
func (r RecorderConfig) Key() ([]byte, error) {
	if r.EncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(r.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("recorder encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("recorder encryption key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}
