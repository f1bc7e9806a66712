package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// LogLevel represents the logging verbosity level
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// DebugCategory represents specific debug categories for targeted debugging
// of the connection engine.
type DebugCategory string

const (
	// DebugState logs every ProtocolState transition (read/write half,
	// old and new kind).
	DebugState DebugCategory = "state"
	// DebugCSeq logs orderer reordering decisions: buffered, forwarded,
	// or shed, keyed by CSeq.
	DebugCSeq DebugCategory = "cseq"
	// DebugSend logs every message handed to the codec for writing.
	DebugSend DebugCategory = "send"
	// DebugRecv logs every message the codec decodes off the wire.
	DebugRecv DebugCategory = "recv"
	DebugAll  DebugCategory = "all"
)

// Config holds logger configuration
type Config struct {
	Level             LogLevel
	Format            OutputFormat
	OutputFile        string
	EnabledCategories map[DebugCategory]bool
	mu                sync.RWMutex
}

// OutputFormat determines the log output format
type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatText OutputFormat = "text"
)

// Global logger instance
var (
	defaultLogger *Logger
	once          sync.Once
)

// Logger wraps slog.Logger with category-based debugging
type Logger struct {
	*slog.Logger
	config *Config
	file   *os.File
}

// NewConfig creates a new logger configuration with defaults
func NewConfig() *Config {
	return &Config{
		Level:             LevelInfo,
		Format:            FormatText,
		OutputFile:        "",
		EnabledCategories: make(map[DebugCategory]bool),
	}
}

// ParseLevel converts a string to LogLevel
func ParseLevel(level string) (LogLevel, error) {
	switch level {
	case "debug", "DEBUG":
		return LevelDebug, nil
	case "info", "INFO":
		return LevelInfo, nil
	case "warn", "WARN", "warning", "WARNING":
		return LevelWarn, nil
	case "error", "ERROR":
		return LevelError, nil
	default:
		return "", fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", level)
	}
}

// ParseFormat converts a string to OutputFormat
func ParseFormat(format string) (OutputFormat, error) {
	switch format {
	case "json", "JSON":
		return FormatJSON, nil
	case "text", "TEXT":
		return FormatText, nil
	default:
		return "", fmt.Errorf("invalid log format: %s (must be json or text)", format)
	}
}

// ToSlogLevel converts LogLevel to slog.Level
func (l LogLevel) ToSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a new Logger instance with the given configuration
func New(cfg *Config) (*Logger, error) {
	var writer io.Writer = os.Stdout
	var file *os.File

	// Setup output file if specified
	if cfg.OutputFile != "" {
		f, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", cfg.OutputFile, err)
		}
		writer = f
		file = f
	}

	// Create handler based on format
	var handler slog.Handler
	handlerOpts := &slog.HandlerOptions{
		Level: cfg.Level.ToSlogLevel(),
	}

	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(writer, handlerOpts)
	case FormatText:
		handler = slog.NewTextHandler(writer, handlerOpts)
	default:
		handler = slog.NewTextHandler(writer, handlerOpts)
	}

	logger := &Logger{
		Logger: slog.New(handler),
		config: cfg,
		file:   file,
	}

	return logger, nil
}

// EnableCategory enables a specific debug category
func (c *Config) EnableCategory(category DebugCategory) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if category == DebugAll {
		// Enable all categories
		c.EnabledCategories[DebugState] = true
		c.EnabledCategories[DebugCSeq] = true
		c.EnabledCategories[DebugSend] = true
		c.EnabledCategories[DebugRecv] = true
	} else {
		c.EnabledCategories[category] = true
	}
}

// IsCategoryEnabled checks if a debug category is enabled
func (c *Config) IsCategoryEnabled(category DebugCategory) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.EnabledCategories[category]
}

// IsDebugEnabled checks if any debug category is enabled
func (c *Config) IsDebugEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.EnabledCategories) > 0
}

// Close closes the log file if one was opened
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Category-specific logging methods

// DebugState logs a ProtocolState transition if state debugging is enabled
func (l *Logger) DebugState(msg string, args ...any) {
	if l.config.IsCategoryEnabled(DebugState) {
		args = append([]any{"category", "state"}, args...)
		l.Debug(msg, args...)
	}
}

// DebugCSeq logs an orderer reordering decision if cseq debugging is enabled
func (l *Logger) DebugCSeq(msg string, args ...any) {
	if l.config.IsCategoryEnabled(DebugCSeq) {
		args = append([]any{"category", "cseq"}, args...)
		l.Debug(msg, args...)
	}
}

// DebugSend logs an outbound message if send debugging is enabled
func (l *Logger) DebugSend(msg string, args ...any) {
	if l.config.IsCategoryEnabled(DebugSend) {
		args = append([]any{"category", "send"}, args...)
		l.Debug(msg, args...)
	}
}

// DebugRecv logs an inbound message if recv debugging is enabled
func (l *Logger) DebugRecv(msg string, args ...any) {
	if l.config.IsCategoryEnabled(DebugRecv) {
		args = append([]any{"category", "recv"}, args...)
		l.Debug(msg, args...)
	}
}

// DebugStateTransition logs a single read-or-write half transition with its
// old and new textual form.
func (l *Logger) DebugStateTransition(half string, from, to fmt.Stringer) {
	if l.config.IsCategoryEnabled(DebugState) {
		l.Debug("protocol state transition",
			"category", "state",
			"half", half,
			"from", from.String(),
			"to", to.String())
	}
}

// DebugCSeqDecision logs what the orderer did with one inbound CSeq:
// "forwarded", "buffered", or "shed".
func (l *Logger) DebugCSeqDecision(decision string, cseq fmt.Stringer) {
	if l.config.IsCategoryEnabled(DebugCSeq) {
		l.Debug("orderer decision",
			"category", "cseq",
			"decision", decision,
			"cseq", cseq.String())
	}
}

// WithContext returns a copy of the logger; ctx is not consulted and no
// values are taken from it.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return &Logger{
		Logger: l.Logger,
		config: l.config,
		file:   l.file,
	}
}

// With returns a new Logger with the given attributes
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
		config: l.config,
		file:   l.file,
	}
}

// SetDefault sets the global default logger
func SetDefault(logger *Logger) {
	defaultLogger = logger
	slog.SetDefault(logger.Logger)
}

// Default returns the default logger, creating one if necessary
func Default() *Logger {
	once.Do(func() {
		if defaultLogger != nil {
			return
		}
		cfg := NewConfig()
		logger, err := New(cfg)
		if err != nil {
			// Fallback to basic logger
			logger = &Logger{
				Logger: slog.Default(),
				config: cfg,
			}
		}
		defaultLogger = logger
	})
	return defaultLogger
}

// Package-level convenience functions

// Debug logs at Debug level using the default logger
func Debug(msg string, args ...any) {
	Default().Debug(msg, args...)
}

// Info logs at Info level using the default logger
func Info(msg string, args ...any) {
	Default().Info(msg, args...)
}

// Warn logs at Warn level using the default logger
func Warn(msg string, args ...any) {
	Default().Warn(msg, args...)
}

// Error logs at Error level using the default logger
func Error(msg string, args ...any) {
	Default().Error(msg, args...)
}
