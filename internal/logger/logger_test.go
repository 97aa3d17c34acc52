package logger

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pr-notifier/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// errorHandler always fails
type errorHandler struct{}

func (e *errorHandler) Enabled(ctx context.Context, level slog.Level) bool { return true }
func (e *errorHandler) Handle(ctx context.Context, r slog.Record) error {
	return fmt.Errorf("fake error")
}
func (e *errorHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return e }
func (e *errorHandler) WithGroup(name string) slog.Handler       { return e }

// disabledHandler is never enabled
type disabledHandler struct{}

func (d *disabledHandler) Enabled(ctx context.Context, level slog.Level) bool { return false }
func (d *disabledHandler) Handle(ctx context.Context, r slog.Record) error    { return nil }
func (d *disabledHandler) WithAttrs(attrs []slog.Attr) slog.Handler           { return d }
func (d *disabledHandler) WithGroup(name string) slog.Handler                 { return d }

func TestGetLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		expected slog.Level
	}{
		{"debug level", "debug", slog.LevelDebug},
		{"info level", "info", slog.LevelInfo},
		{"warn level", "warn", slog.LevelWarn},
		{"error level", "error", slog.LevelError},
		{"unknown level", "unknown", slog.LevelInfo},
		{"empty level", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, getLogLevel(tt.level))
		})
	}
}

func TestNewHandler_FileOnly(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "app.log")
	var console bytes.Buffer

	handler, err := newHandler(config.Log{File: logFile, Level: "info"}, &console)
	require.NoError(t, err)

	logger := slog.New(handler)
	logger.Info("cycle finished", "sent", 2)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"cycle finished"`)
	assert.Contains(t, string(data), `"sent":2`)
	assert.Empty(t, console.String())
}

func TestNewHandler_FileAndConsole(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "app.log")
	var console bytes.Buffer

	handler, err := newHandler(config.Log{File: logFile, Level: "debug", Stdout: true}, &console)
	require.NoError(t, err)
	require.IsType(t, fanout{}, handler)

	slog.New(handler).Debug("fetching pull requests")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fetching pull requests")
	assert.Contains(t, console.String(), "fetching pull requests")
}

func TestNewHandler_ConsoleWhenNoFile(t *testing.T) {
	var console bytes.Buffer

	handler, err := newHandler(config.Log{Level: "warn"}, &console)
	require.NoError(t, err)

	logger := slog.New(handler)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "shown")
}

func TestNewHandler_InvalidLogDirectory(t *testing.T) {
	// a regular file cannot be used as a directory
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	_, err := newHandler(config.Log{File: filepath.Join(blocker, "sub", "app.log")}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestInit_SetsDefault(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	logFile := filepath.Join(t.TempDir(), "init.log")
	require.NoError(t, Init(config.Log{File: logFile, Level: "info"}))

	slog.Info("hello from init")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from init")
}

func TestFanout_Enabled(t *testing.T) {
	info := slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo})
	debug := slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelDebug})

	f := fanout{info, debug}

	assert.True(t, f.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, f.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, f.Enabled(context.Background(), slog.LevelError))
}

func TestFanout_Enabled_AllDisabled(t *testing.T) {
	f := fanout{&disabledHandler{}, &disabledHandler{}}

	assert.False(t, f.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, f.Enabled(context.Background(), slog.LevelError))
}

func TestFanout_HandleSkipsDisabledSinks(t *testing.T) {
	var buf bytes.Buffer
	f := fanout{&disabledHandler{}, slog.NewJSONHandler(&buf, nil)}

	require.NoError(t, f.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "delivered", 0)))
	assert.Contains(t, buf.String(), `"msg":"delivered"`)
}

func TestFanout_HandleJoinsErrors(t *testing.T) {
	var buf bytes.Buffer
	f := fanout{&errorHandler{}, slog.NewJSONHandler(&buf, nil), &errorHandler{}}
	record := slog.NewRecord(time.Now(), slog.LevelInfo, "test", 0)

	err := f.Handle(context.Background(), record)
	require.Error(t, err)
	assert.Equal(t, "fake error\nfake error", err.Error())
	// a failing sink does not stop the others
	assert.Contains(t, buf.String(), `"msg":"test"`)
}

func TestFanout_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	f := fanout{slog.NewJSONHandler(&buf, nil)}

	h1 := f.WithAttrs([]slog.Attr{slog.String("cycle_id", "abc")})
	h2 := f.WithGroup("bitbucket")

	require.IsType(t, fanout{}, h1)
	require.IsType(t, fanout{}, h2)

	slog.New(h1).Info("tagged")
	assert.Contains(t, buf.String(), `"cycle_id":"abc"`)

	buf.Reset()
	slog.New(h2).Info("grouped", "status", 200)
	assert.Contains(t, buf.String(), `"bitbucket":{"status":200}`)
}
