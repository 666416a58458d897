// Package config handles loading and validating taskpilot configuration.
// Supports YAML config files and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/marcus/taskpilot/internal/db"
	"github.com/marcus/taskpilot/internal/dedupe"
	"github.com/marcus/taskpilot/internal/embedding"
	"github.com/marcus/taskpilot/internal/logging"
	"github.com/marcus/taskpilot/internal/tools"
)

// Validation sentinels. Callers compare with errors.Is to tell the user what
// to fix.
var (
	ErrInvalidLogLevel       = errors.New("logging.level must be one of debug, info, warn, error")
	ErrInvalidProvider       = errors.New("embedding.provider must be genai or ollama")
	ErrInvalidThreshold      = errors.New("dedupe.threshold must be between 0 and 1")
	ErrInvalidDedupeSchedule = errors.New("dedupe.schedule is not a valid cron expression")
	ErrInvalidSweepInterval  = errors.New("sweep.interval must be a positive duration")
)

// Config holds all taskpilot configuration.
type Config struct {
	Database  DatabaseConfig       `mapstructure:"database"`
	Logging   logging.Config       `mapstructure:"logging"`
	Oracle    OracleConfig         `mapstructure:"oracle"`
	Embedding embedding.Config     `mapstructure:"embedding"`
	Dedupe    DedupeConfig         `mapstructure:"dedupe"`
	Sweep     SweepConfig          `mapstructure:"sweep"`
	Calendar  tools.CalendarConfig `mapstructure:"calendar"`
	Search    tools.SearchConfig   `mapstructure:"search"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// OracleConfig configures the intent extraction model.
type OracleConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
	Timeout string `mapstructure:"timeout"`

	// APIKey comes from the environment only, never from the config file.
	APIKey string `mapstructure:"-"`
}

// DedupeConfig configures duplicate detection.
type DedupeConfig struct {
	Threshold float64 `mapstructure:"threshold"`
	Schedule  string  `mapstructure:"schedule"` // cron expression for the daemon pass
}

// SweepConfig configures the escalation sweep.
type SweepConfig struct {
	Interval string `mapstructure:"interval"`
}

// GlobalConfigPath returns the default config file location.
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "taskpilot.yaml"
	}
	return filepath.Join(home, ".config", "taskpilot", "taskpilot.yaml")
}

// Load reads configuration from the given file (or the global default when
// path is empty) plus TASKPILOT_* environment overrides, then validates it.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TASKPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = GlobalConfigPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		// A missing file just means defaults plus environment.
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.Oracle.APIKey = os.Getenv("GEMINI_API_KEY")
	cfg.Embedding.GenAIAPIKey = cfg.Oracle.APIKey
	cfg.Search.APIKey = os.Getenv("SERPER_API_KEY")

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", db.DefaultPath())
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", logging.DefaultLogPath())
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.retention_days", 7)
	v.SetDefault("oracle.enabled", true)
	v.SetDefault("oracle.model", "gemini-2.5-flash")
	v.SetDefault("oracle.timeout", "15s")
	v.SetDefault("embedding.provider", "genai")
	v.SetDefault("embedding.genai_model", "gemini-embedding-001")
	v.SetDefault("embedding.ollama_endpoint", "http://localhost:11434")
	v.SetDefault("embedding.ollama_model", "embeddinggemma")
	v.SetDefault("dedupe.threshold", dedupe.DefaultThreshold)
	v.SetDefault("dedupe.schedule", "0 3 * * *")
	v.SetDefault("sweep.interval", "10m")
	v.SetDefault("search.max_hits", 5)
}

// Validate checks the configuration for contradictions.
func Validate(cfg *Config) error {
	if cfg.Logging.Level != "" {
		switch strings.ToLower(cfg.Logging.Level) {
		case "debug", "info", "warn", "error":
		default:
			return ErrInvalidLogLevel
		}
	}

	switch cfg.Embedding.Provider {
	case "", "genai", "ollama":
	default:
		return ErrInvalidProvider
	}

	if cfg.Dedupe.Threshold < 0 || cfg.Dedupe.Threshold > 1 {
		return ErrInvalidThreshold
	}

	if cfg.Dedupe.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Dedupe.Schedule); err != nil {
			return ErrInvalidDedupeSchedule
		}
	}

	if cfg.Sweep.Interval != "" {
		d, err := time.ParseDuration(cfg.Sweep.Interval)
		if err != nil || d <= 0 {
			return ErrInvalidSweepInterval
		}
	}

	return nil
}

// SweepInterval returns the parsed sweep interval.
func (c *Config) SweepInterval() time.Duration {
	d, err := time.ParseDuration(c.Sweep.Interval)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// OracleTimeout returns the parsed oracle timeout.
func (c *Config) OracleTimeout() time.Duration {
	d, err := time.ParseDuration(c.Oracle.Timeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}
