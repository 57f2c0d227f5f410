package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmwatch/farmwatch/internal/logger"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestSlogLoggerLevels(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.NewSlogLogger(buf, logger.LogLevelInfo, time.UTC)

	log.Debug("hidden")
	log.Info("reading stored", logger.Float64("temperature", 24.56789), logger.Int("rows", 3))
	log.Error("save failed", logger.Error(fmt.Errorf("disk full")))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)

	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "reading stored", lines[0]["msg"])
	assert.InDelta(t, 24.568, lines[0]["temperature"], 1e-9)
	assert.InDelta(t, 3, lines[0]["rows"], 0)
	assert.Equal(t, "disk full", lines[1]["error"])
}

func TestModuleNestingAndWith(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.NewSlogLogger(buf, logger.LogLevelTrace, time.UTC).
		Module("sensors").
		Module("mqtt").
		With(logger.String("topic", "farm/sensors"))

	log.Trace("message received", logger.Duration("latency", 1500*time.Millisecond))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "TRACE", lines[0]["level"])
	assert.Equal(t, "sensors.mqtt", lines[0]["module"])
	assert.Equal(t, "farm/sensors", lines[0]["topic"])
	assert.Equal(t, "1.5s", lines[0]["latency"])
}

func TestWithContextAddsTraceID(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.NewSlogLogger(buf, logger.LogLevelInfo, time.UTC)

	ctx := logger.WithTraceID(context.Background(), "req-123")
	log.WithContext(ctx).Info("handled")
	log.WithContext(context.Background()).Info("untraced")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "req-123", lines[0]["trace_id"])
	assert.NotContains(t, lines[1], "trace_id")
}

func TestSensitiveFieldsAreRedacted(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.NewSlogLogger(buf, logger.LogLevelInfo, time.UTC)
	log.Info("connecting", logger.String("password", "hunter2"), logger.String("broker", "tcp://localhost:1883"))

	out := buf.String()
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "tcp://localhost:1883")
}

func TestNaNIsLoggedAsString(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.NewSlogLogger(buf, logger.LogLevelInfo, time.UTC)
	var nan float64
	nan = nan / nan //nolint:staticcheck // produce NaN at runtime
	log.Info("gap", logger.Float64("humidity", nan))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "NaN", lines[0]["humidity"])
}

func TestCentralLoggerModuleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "weather.log")

	cl, err := logger.NewCentralLogger(&logger.LoggingConfig{
		DefaultLevel: "debug",
		Timezone:     "UTC",
		Console:      &logger.ConsoleOutput{Enabled: false},
		FileOutput:   &logger.FileOutput{Enabled: false},
		ModuleOutputs: map[string]logger.ModuleOutput{
			"weather": {Enabled: true, FilePath: path, Level: "debug"},
		},
	})
	require.NoError(t, err)

	cl.Module("weather").Debug("poll complete", logger.String("provider", "openweather"))
	require.NoError(t, cl.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"provider":"openweather"`)
	assert.Contains(t, string(data), `"module":"weather"`)
}

func TestCentralLoggerRejectsBadTimezone(t *testing.T) {
	t.Parallel()

	_, err := logger.NewCentralLogger(&logger.LoggingConfig{
		Timezone:      "Mars/Olympus",
		Console:       &logger.ConsoleOutput{Enabled: false},
		FileOutput:    &logger.FileOutput{Enabled: false},
		ModuleOutputs: map[string]logger.ModuleOutput{},
	})
	require.Error(t, err)
}

func TestNilConfig(t *testing.T) {
	t.Parallel()

	_, err := logger.NewCentralLogger(nil)
	require.Error(t, err)
}

func TestCentralLoggerSharesWriterForSamePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "farmwatch.log")

	cl, err := logger.NewCentralLogger(&logger.LoggingConfig{
		DefaultLevel: "info",
		Timezone:     "UTC",
		Console:      &logger.ConsoleOutput{Enabled: false},
		FileOutput:   &logger.FileOutput{Enabled: true, Path: path, Level: "info"},
		ModuleOutputs: map[string]logger.ModuleOutput{
			"sensors": {Enabled: true, FilePath: filepath.Join(dir, ".", "farmwatch.log"), Level: "info"},
		},
	})
	require.NoError(t, err)

	cl.Module("api").Info("request served")
	cl.Module("sensors").Info("reading stored")
	require.NoError(t, cl.Flush())
	require.NoError(t, cl.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"module":"api"`)
	assert.Contains(t, string(data), `"module":"sensors"`)
}

func TestWithDoesNotLeakBetweenSiblings(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	base := logger.NewSlogLogger(buf, logger.LogLevelInfo, time.UTC).Module("warning")
	a := base.With(logger.String("type", "temperature_high"))
	b := base.With(logger.String("location", "orchard-1"))

	a.Info("first")
	b.Info("second")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "temperature_high", lines[0]["type"])
	assert.NotContains(t, lines[1], "type")
	assert.Equal(t, "warning", lines[1]["module"])
}
