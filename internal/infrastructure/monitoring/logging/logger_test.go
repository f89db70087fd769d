package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return &zapLogger{z: zap.New(core)}, logs
}

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		l, err := NewLogger(LogConfig{Level: LevelInfo, Format: format, OutputPaths: []string{"stdout"}})
		require.NoError(t, err, format)
		assert.NotNil(t, l)
	}
}

func TestNewLogger_EmptyOutputPathsRejected(t *testing.T) {
	l, err := NewLogger(LogConfig{OutputPaths: []string{}})
	assert.Error(t, err)
	assert.Nil(t, l)
}

func TestBuildZapConfig_CallerAndStacktrace(t *testing.T) {
	zc := buildZapConfig(LogConfig{})
	assert.True(t, zc.DisableCaller)
	assert.True(t, zc.DisableStacktrace)
	assert.Equal(t, "json", zc.Encoding)

	zc = buildZapConfig(LogConfig{Format: "console", EnableCaller: true, EnableStacktrace: true})
	assert.False(t, zc.DisableCaller)
	assert.False(t, zc.DisableStacktrace)
	assert.Equal(t, "console", zc.Encoding)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("WARN"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestZapLogger_FieldsAreTyped(t *testing.T) {
	l, logs := newObservedLogger(zapcore.DebugLevel)

	l.Info("stage finished",
		Stage("first_order"),
		Commodity("steel, low-alloyed"),
		Count("processes", 12),
		Float64("cutoff", 0.75),
		Duration("elapsed", 2*time.Second),
		Strings("producers", []string{"CN", "RoW"}),
		Err(errors.New("boom")),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "stage finished", entry.Message)
	ctx := entry.ContextMap()
	assert.Equal(t, "first_order", ctx["stage"])
	assert.Equal(t, "steel, low-alloyed", ctx["commodity"])
	assert.Equal(t, int64(12), ctx["processes"])
	assert.Equal(t, 0.75, ctx["cutoff"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestZapLogger_WithAndNamed(t *testing.T) {
	l, logs := newObservedLogger(zapcore.DebugLevel)

	child := l.Named("second_order").With(Location("DE"))
	child.Warn("mix missing")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "second_order", entry.LoggerName)
	assert.Equal(t, "DE", entry.ContextMap()["location"])
}

func TestZapLogger_LevelFiltering(t *testing.T) {
	l, logs := newObservedLogger(zapcore.WarnLevel)
	l.Debug("hidden")
	l.Info("hidden")
	l.Error("shown")
	assert.Equal(t, 1, logs.Len())
}

func TestErr_Nil(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "<nil>", f.Value)
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Info("x")
	assert.NotNil(t, l.With(String("k", "v")))
	assert.NotNil(t, l.Named("n"))
	assert.NoError(t, l.Sync())
}

func TestDefault_SetAndGet(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	l, _ := newObservedLogger(zapcore.InfoLevel)
	SetDefault(l)
	assert.Same(t, l, Default())

	SetDefault(nil)
	assert.Same(t, l, Default())
}

//Personal.AI order the ending
