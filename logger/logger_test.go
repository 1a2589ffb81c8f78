package logger

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingWriter struct {
	lines []string
}

func (w *recordingWriter) Printf(format string, data ...interface{}) {
	w.lines = append(w.lines, fmt.Sprintf(format, data...))
}

func TestLevelFiltering(t *testing.T) {
	ctx := context.Background()
	w := &recordingWriter{}
	l := New(w, Config{LogLevel: Warn})

	l.Debug(ctx, "debug %d", 1)
	l.Info(ctx, "info %d", 2)
	l.Warn(ctx, "warn %d", 3)
	l.Error(ctx, "error %d", 4)

	assert.Equal(t, []string{"failurous [warn] warn 3", "failurous [error] error 4"}, w.lines)
}

func TestLogModeReturnsCopy(t *testing.T) {
	ctx := context.Background()
	w := &recordingWriter{}
	base := New(w, Config{LogLevel: Error, Prefix: "app"})
	verbose := base.LogMode(Debug)

	base.Info(ctx, "hidden")
	verbose.Info(ctx, "shown")

	assert.Equal(t, []string{"app [info] shown"}, w.lines)
}

func TestDiscardAndOrDiscard(t *testing.T) {
	assert.Equal(t, Discard, OrDiscard(nil))

	w := &recordingWriter{}
	l := New(w, Config{LogLevel: Info})
	assert.Equal(t, l, OrDiscard(l))

	Discard.Error(context.Background(), "nothing")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"silent": Silent,
		"error":  Error,
		"warn":   Warn,
		"info":   Info,
		"debug":  Debug,
		"bogus":  Warn,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
	assert.Equal(t, "debug", Debug.String())
	assert.Equal(t, "unknown", LogLevel(42).String())
}
