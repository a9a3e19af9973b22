package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names accepted by ProbeConfig.Backend.
const (
	BackendCurl   = "curl"
	BackendNative = "native"
	BackendHTTPX  = "httpx"
)

// DefaultDenylist is the keyword list checked against the lower-cased input.
var DefaultDenylist = []string{
	"rm", "del", "format", "dd", "mv", "cp", "chmod", "chown",
	"&&", "||", ";", ">", ">>", "|", "$", "`",
}

// Config holds the application's configuration values.
type Config struct {
	Probe      ProbeConfig      `yaml:"probe"`
	Validation ValidationConfig `yaml:"validation"`
	Server     ServerConfig     `yaml:"server"`
	Batch      BatchConfig      `yaml:"batch"`
	Log        LogConfig        `yaml:"log"`
}

// ProbeConfig controls how a normalized target is probed.
// MaxTime is the probe's own budget; Deadline is the wall-clock limit
// enforced on top of it and must be strictly larger.
type ProbeConfig struct {
	Backend      string        `yaml:"backend" validate:"oneof=curl native httpx"`
	Binary       string        `yaml:"binary" validate:"required_if=Backend curl"`
	MaxRedirects int           `yaml:"max_redirects" validate:"gte=0"`
	MaxTime      time.Duration `yaml:"max_time" validate:"gt=0"`
	Deadline     time.Duration `yaml:"deadline" validate:"gt=0"`
}

// ValidationConfig controls the input denylist.
type ValidationConfig struct {
	Denylist []string `yaml:"denylist" validate:"required,dive,required"`
	// DecodeBeforeValidate also validates the percent-decoded target.
	DecodeBeforeValidate bool `yaml:"decode_before_validate"`
}

// ServerConfig holds the API server settings.
type ServerConfig struct {
	HTTPPort      string        `yaml:"http_port" validate:"required,numeric"`
	ShutdownGrace time.Duration `yaml:"shutdown_grace" validate:"gte=0"`
}

// BatchConfig holds the settings for checking a file of targets.
type BatchConfig struct {
	Workers int `yaml:"workers" validate:"gte=1,lte=256"`
}

// LogConfig defines configuration for logging.
type LogConfig struct {
	Level      string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Format     string `yaml:"format" validate:"omitempty,oneof=console json"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	denylist := make([]string, len(DefaultDenylist))
	copy(denylist, DefaultDenylist)

	return &Config{
		Probe: ProbeConfig{
			Backend:      BackendCurl,
			Binary:       "curl",
			MaxRedirects: 5,
			MaxTime:      10 * time.Second,
			Deadline:     15 * time.Second,
		},
		Validation: ValidationConfig{
			Denylist:             denylist,
			DecodeBeforeValidate: true,
		},
		Server: ServerConfig{
			HTTPPort:      "5000",
			ShutdownGrace: 10 * time.Second,
		},
		Batch: BatchConfig{Workers: 8},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path and environment variables, in that order, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.HTTPPort = getEnv("ISITDOWN_HTTP_PORT", cfg.Server.HTTPPort)
	cfg.Server.ShutdownGrace = getEnvDuration("ISITDOWN_SHUTDOWN_GRACE", cfg.Server.ShutdownGrace)
	cfg.Probe.Backend = getEnv("ISITDOWN_PROBE_BACKEND", cfg.Probe.Backend)
	cfg.Probe.Binary = getEnv("ISITDOWN_PROBE_BINARY", cfg.Probe.Binary)
	cfg.Probe.Deadline = getEnvDuration("ISITDOWN_PROBE_DEADLINE", cfg.Probe.Deadline)
	cfg.Probe.MaxTime = getEnvDuration("ISITDOWN_PROBE_MAX_TIME", cfg.Probe.MaxTime)
	cfg.Log.Level = getEnv("ISITDOWN_LOG_LEVEL", cfg.Log.Level)
	cfg.Batch.Workers = getEnvInt("ISITDOWN_BATCH_WORKERS", cfg.Batch.Workers)
}

// Helper function to get an environment variable or return a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Helper function to get an environment variable as an integer.
func getEnvInt(key string, fallback int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return fallback
}

// Helper function to get an environment variable as a time.Duration.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return fallback
}
