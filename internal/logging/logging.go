// Package logging provides structured logging for taskpilot on top of
// zerolog. Logs go to dated files under the data directory (and stderr when
// no directory is configured), with old files cleaned up past retention.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const logFilePrefix = "taskpilot-"

// Config holds logging configuration.
type Config struct {
	Level         string `mapstructure:"level"`  // debug, info, warn, error
	Path          string `mapstructure:"path"`   // log directory; empty logs to stderr only
	Format        string `mapstructure:"format"` // json, text
	RetentionDays int    `mapstructure:"retention_days"`
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Level:         "info",
		Path:          filepath.Join(home, ".local", "share", "taskpilot", "logs"),
		Format:        "json",
		RetentionDays: 7,
	}
}

// DefaultLogPath returns the default log directory.
func DefaultLogPath() string {
	return DefaultConfig().Path
}

// Logger wraps a zerolog.Logger with component scoping.
type Logger struct {
	zl   zerolog.Logger
	file *os.File
	mu   sync.Mutex
}

var (
	global   *Logger
	globalMu sync.RWMutex
)

// Init installs the global logger.
func Init(cfg Config) error {
	logger, err := New(cfg)
	if err != nil {
		return err
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if global != nil && global.file != nil {
		_ = global.file.Close()
	}
	global = logger
	return nil
}

// New creates a Logger from cfg.
func New(cfg Config) (*Logger, error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "json"
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 7
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	logger := &Logger{}
	var output io.Writer = os.Stderr

	if cfg.Path != "" {
		if err := os.MkdirAll(cfg.Path, 0755); err != nil {
			return nil, fmt.Errorf("creating log dir: %w", err)
		}
		name := fmt.Sprintf("%s%s.log", logFilePrefix, time.Now().Format("2006-01-02"))
		f, err := os.OpenFile(filepath.Join(cfg.Path, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		logger.file = f
		output = f

		go cleanOldLogs(cfg.Path, cfg.RetentionDays)
	}

	if cfg.Format == "text" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339, NoColor: true}
	}

	logger.zl = zerolog.New(output).Level(level).With().Timestamp().Logger()
	return logger, nil
}

// cleanOldLogs removes dated log files older than retentionDays.
func cleanOldLogs(dir string, retentionDays int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, logFilePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		dateStr := strings.TrimSuffix(strings.TrimPrefix(name, logFilePrefix), ".log")
		day, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		if day.Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, name))
		}
	}
}

// Get returns the global logger, or a stderr logger before Init.
func Get() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if global == nil {
		return &Logger{zl: zerolog.New(os.Stderr).With().Timestamp().Logger()}
	}
	return global
}

// Component returns the global logger scoped to a component name.
func Component(name string) *Logger {
	return Get().WithComponent(name)
}

// WithComponent returns a copy of l with the component field set.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		zl:   l.zl.With().Str("component", name).Logger(),
		file: l.file,
	}
}

// Close closes the log file if one is open.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) Debug(msg string)                  { l.zl.Debug().Msg(msg) }
func (l *Logger) Info(msg string)                   { l.zl.Info().Msg(msg) }
func (l *Logger) Warn(msg string)                   { l.zl.Warn().Msg(msg) }
func (l *Logger) Error(msg string)                  { l.zl.Error().Msg(msg) }
func (l *Logger) Debugf(format string, args ...any) { l.zl.Debug().Msgf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.zl.Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.zl.Warn().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.zl.Error().Msgf(format, args...) }

// Err returns an error-level event with the error attached.
func (l *Logger) Err(err error) *zerolog.Event { return l.zl.Error().Err(err) }

// InfoCtx logs an info message with structured fields.
func (l *Logger) InfoCtx(msg string, fields map[string]any) {
	ev := l.zl.Info()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

// WarnCtx logs a warning with structured fields.
func (l *Logger) WarnCtx(msg string, fields map[string]any) {
	ev := l.zl.Warn()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

// ParseLevel converts a level string to a zerolog level.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("invalid log level: %s", level)
	}
}
