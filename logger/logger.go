package logger

import (
	"context"
	"log"
)

type defaultLogger struct {
	Writer
	Config
	infoStr, warnStr, errStr, debugStr string
}

// New creates a logger that formats lines and hands them to writer
func New(writer Writer, config Config) Interface {
	prefix := config.Prefix
	if prefix == "" {
		prefix = "failurous"
	}

	infoStr := prefix + " [info] "
	warnStr := prefix + " [warn] "
	errStr := prefix + " [error] "
	debugStr := prefix + " [debug] "

	if config.Colorful {
		infoStr = Green + prefix + Reset + Green + " [info] " + Reset
		warnStr = BlueBold + prefix + Reset + Magenta + " [warn] " + Reset
		errStr = Magenta + prefix + Reset + Red + " [error] " + Reset
		debugStr = White + prefix + Reset + Blue + " [debug] " + Reset
	}

	return &defaultLogger{
		Writer:   writer,
		Config:   config,
		infoStr:  infoStr,
		warnStr:  warnStr,
		errStr:   errStr,
		debugStr: debugStr,
	}
}

// LogMode creates a new logger with specified log level
func (l *defaultLogger) LogMode(level LogLevel) Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

func (l *defaultLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Info {
		l.Printf(l.infoStr+msg, data...)
	}
}

func (l *defaultLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Warn {
		l.Printf(l.warnStr+msg, data...)
	}
}

func (l *defaultLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Error {
		l.Printf(l.errStr+msg, data...)
	}
}

func (l *defaultLogger) Debug(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Debug {
		l.Printf(l.debugStr+msg, data...)
	}
}

// NewStdLogger creates a logger that outputs through the standard log package
func NewStdLogger(level LogLevel) Interface {
	return New(stdWriter{}, Config{LogLevel: level})
}

type stdWriter struct{}

func (stdWriter) Printf(msg string, data ...interface{}) {
	log.Printf(msg, data...)
}

// OrDiscard returns l, or Discard when l is nil.
func OrDiscard(l Interface) Interface {
	if l == nil {
		return Discard
	}
	return l
}
