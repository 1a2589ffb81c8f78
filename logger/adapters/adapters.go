// Package adapters bridges third-party logging libraries to logger.Interface
package adapters

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kart-io/failurous/logger"
)

// AdapterBase provides level filtering for adapters
type AdapterBase struct {
	level logger.LogLevel
}

// NewAdapterBase creates a new adapter base
func NewAdapterBase(level logger.LogLevel) *AdapterBase {
	return &AdapterBase{level: level}
}

// ShouldLog checks if the message should be logged at the given level
func (a *AdapterBase) ShouldLog(level logger.LogLevel) bool {
	return a.level >= level
}

// GetLevel returns the current log level
func (a *AdapterBase) GetLevel() logger.LogLevel {
	return a.level
}

// ================================
// Function-based adapter
// ================================

// LogFunc receives already formatted messages
type LogFunc func(level logger.LogLevel, msg string)

// FuncAdapter adapts a plain function to logger.Interface
type FuncAdapter struct {
	*AdapterBase
	logFunc LogFunc
}

// NewFuncAdapter creates a new function adapter
func NewFuncAdapter(logFunc LogFunc, level logger.LogLevel) logger.Interface {
	return &FuncAdapter{
		AdapterBase: NewAdapterBase(level),
		logFunc:     logFunc,
	}
}

func (f *FuncAdapter) LogMode(level logger.LogLevel) logger.Interface {
	return NewFuncAdapter(f.logFunc, level)
}

func (f *FuncAdapter) Info(ctx context.Context, msg string, data ...interface{}) {
	f.log(logger.Info, msg, data)
}

func (f *FuncAdapter) Warn(ctx context.Context, msg string, data ...interface{}) {
	f.log(logger.Warn, msg, data)
}

func (f *FuncAdapter) Error(ctx context.Context, msg string, data ...interface{}) {
	f.log(logger.Error, msg, data)
}

func (f *FuncAdapter) Debug(ctx context.Context, msg string, data ...interface{}) {
	f.log(logger.Debug, msg, data)
}

func (f *FuncAdapter) log(level logger.LogLevel, msg string, data []interface{}) {
	if f.ShouldLog(level) {
		f.logFunc(level, fmt.Sprintf(msg, data...))
	}
}

// ================================
// Zap adapter
// ================================

// ZapAdapter adapts *zap.Logger to logger.Interface
type ZapAdapter struct {
	*AdapterBase
	sugar *zap.SugaredLogger
}

// NewZapAdapter wraps an existing *zap.Logger
func NewZapAdapter(zl *zap.Logger, level logger.LogLevel) logger.Interface {
	return &ZapAdapter{
		AdapterBase: NewAdapterBase(level),
		sugar:       zl.WithOptions(zap.AddCallerSkip(1)).Sugar(),
	}
}

func (z *ZapAdapter) LogMode(level logger.LogLevel) logger.Interface {
	return &ZapAdapter{
		AdapterBase: NewAdapterBase(level),
		sugar:       z.sugar,
	}
}

func (z *ZapAdapter) Info(ctx context.Context, msg string, data ...interface{}) {
	if z.ShouldLog(logger.Info) {
		z.sugar.Infof(msg, data...)
	}
}

func (z *ZapAdapter) Warn(ctx context.Context, msg string, data ...interface{}) {
	if z.ShouldLog(logger.Warn) {
		z.sugar.Warnf(msg, data...)
	}
}

func (z *ZapAdapter) Error(ctx context.Context, msg string, data ...interface{}) {
	if z.ShouldLog(logger.Error) {
		z.sugar.Errorf(msg, data...)
	}
}

func (z *ZapAdapter) Debug(ctx context.Context, msg string, data ...interface{}) {
	if z.ShouldLog(logger.Debug) {
		z.sugar.Debugf(msg, data...)
	}
}

// NewZap builds a zap logger from a level name and format ("json" or "console")
// and wraps it.
func NewZap(levelStr, format string) (logger.Interface, error) {
	level := logger.ParseLevel(levelStr)

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel(level))

	zl, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return NewZapAdapter(zl.Named("failurous"), level), nil
}

func zapLevel(level logger.LogLevel) zapcore.Level {
	switch level {
	case logger.Debug:
		return zapcore.DebugLevel
	case logger.Info:
		return zapcore.InfoLevel
	case logger.Error:
		return zapcore.ErrorLevel
	case logger.Silent:
		return zapcore.FatalLevel
	default:
		return zapcore.WarnLevel
	}
}
