package logger

import (
	"context"
	"fmt"
)

// LogLevel defines log levels
type LogLevel int

const (
	// Silent disables all logging
	Silent LogLevel = iota + 1
	// Error logs only errors
	Error
	// Warn logs warnings and errors
	Warn
	// Info logs info, warnings and errors
	Info
	// Debug logs all messages
	Debug
)

// String returns the string representation of log level
func (l LogLevel) String() string {
	switch l {
	case Silent:
		return "silent"
	case Error:
		return "error"
	case Warn:
		return "warn"
	case Info:
		return "info"
	case Debug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel maps a config string onto a LogLevel. Unknown values yield Warn.
func ParseLevel(s string) LogLevel {
	switch s {
	case "silent", "off":
		return Silent
	case "error":
		return Error
	case "info":
		return Info
	case "debug":
		return Debug
	default:
		return Warn
	}
}

// Interface is the logger the client writes to. Messages are printf-style.
type Interface interface {
	// LogMode returns a copy of the logger with the given level
	LogMode(level LogLevel) Interface

	Info(ctx context.Context, msg string, data ...interface{})
	Warn(ctx context.Context, msg string, data ...interface{})
	Error(ctx context.Context, msg string, data ...interface{})
	Debug(ctx context.Context, msg string, data ...interface{})
}

// Writer defines the interface for log output
type Writer interface {
	Printf(string, ...interface{})
}

// Config defines logger configuration
type Config struct {
	LogLevel LogLevel
	Colorful bool
	// Prefix is printed in front of every line, "failurous" when empty.
	Prefix string
}

// Colors for console output
const (
	Reset    = "\033[0m"
	Red      = "\033[31m"
	Green    = "\033[32m"
	Yellow   = "\033[33m"
	Blue     = "\033[34m"
	Magenta  = "\033[35m"
	White    = "\033[37m"
	BlueBold = "\033[34;1m"
)

// Predefined loggers
var (
	// Discard drops every message
	Discard Interface = New(discardWriter{}, Config{LogLevel: Silent})

	// Default writes warnings and errors to stdout
	Default Interface = New(consoleWriter{}, Config{LogLevel: Warn, Colorful: true})
)

type discardWriter struct{}

func (discardWriter) Printf(string, ...interface{}) {}

type consoleWriter struct{}

func (consoleWriter) Printf(msg string, data ...interface{}) {
	fmt.Printf(msg+"\n", data...)
}
