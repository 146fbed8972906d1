package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogFormat is the output encoding of log records.
type LogFormat string

const (
	// FormatJSON writes one JSON object per record.
	FormatJSON LogFormat = "json"
	// FormatText writes logfmt-style key=value records.
	FormatText LogFormat = "text"
)

// Config configures the process logger.
type Config struct {
	// Level is "debug", "info", "warn" or "error".
	Level string

	// Format is "json" or "text".
	Format string

	// AddSource includes file and line number in records.
	AddSource bool

	// RedactPatterns are extra regular expressions masked in string values.
	RedactPatterns []string

	// Writer receives the output. Default: os.Stderr
	Writer io.Writer
}

// New builds a logger that masks credentials and adds trace correlation
// from the context.
func New(cfg Config) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	format, err := parseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	redactor, err := NewRedactor(cfg.RedactPatterns)
	if err != nil {
		return nil, err
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   cfg.AddSource,
		ReplaceAttr: redactor.ReplaceAttr,
	}

	var handler slog.Handler
	switch format {
	case FormatText:
		handler = slog.NewTextHandler(writer, opts)
	default:
		handler = slog.NewJSONHandler(writer, opts)
	}

	return slog.New(&contextHandler{Handler: handler}), nil
}

// Setup builds a logger with New and installs it as slog's default.
func Setup(cfg Config) (*slog.Logger, error) {
	logger, err := New(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

// ParseLevel parses a level name. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

func parseFormat(s string) (LogFormat, error) {
	switch strings.ToLower(s) {
	case "json", "":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format: %s", s)
	}
}
