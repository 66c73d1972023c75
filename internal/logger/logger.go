package logger

import (
	"os"
	"strings"
)

type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Logger is the component-scoped structured logger used across the application
type Logger interface {
	Debug(component, message string, fields map[string]interface{})
	Info(component, message string, fields map[string]interface{})
	Warning(component, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
}

// ParseLevel maps a textual level to a LogLevel, defaulting to InfoLevel
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// LevelFromEnv determines the log level from LOG_LEVEL, with DEBUG=1 as a shortcut
func LevelFromEnv() LogLevel {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		return ParseLevel(v)
	}
	if os.Getenv("DEBUG") == "1" {
		return DebugLevel
	}
	return InfoLevel
}

// NopLogger discards everything. Used as the default for library components and in tests.
type NopLogger struct{}

func (NopLogger) Debug(component, message string, fields map[string]interface{})   {}
func (NopLogger) Info(component, message string, fields map[string]interface{})    {}
func (NopLogger) Warning(component, message string, fields map[string]interface{}) {}
func (NopLogger) Error(component string, err error, fields map[string]interface{}) {}

// OrNop returns l, or a NopLogger when l is nil
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}
