package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes the embedded default config, optionally followed by
// extra YAML, and returns its path.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	data, err := getDefaultConfig()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if extra != "" {
		data = []byte(extra)
	}
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoadFileDefaults(t *testing.T) {
	settings, err := LoadFile(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "Default", settings.Main.Location)
	assert.True(t, settings.Output.SQLite.Enabled)
	assert.Equal(t, "farmwatch.db", settings.Output.SQLite.Path)
	assert.Equal(t, 300, settings.Sensors.Interval)
	assert.Equal(t, SensorPin{Pin: 17, Type: "DHT22"}, settings.Sensors.Pins["humidity"])
	assert.InDelta(t, 0.7, settings.Warnings.Thresholds.PestRisk, 1e-9)
	assert.InDelta(t, 20.0, settings.Warnings.Thresholds.SoilMoistureLow, 1e-9)
	assert.Equal(t, "zscore", settings.Preprocess.OutlierMethod)
	assert.Equal(t, "LJY", settings.Traceability.Prefix)
	assert.Equal(t, "16M", settings.WebServer.BodyLimit)
	assert.Same(t, settings, GetSettings())
}

func TestLoadFileMinimalUsesDefaults(t *testing.T) {
	settings, err := LoadFile(writeConfig(t, "main:\n  location: north_field\n"))
	require.NoError(t, err)

	assert.Equal(t, "north_field", settings.Main.Location)
	assert.Equal(t, 10, settings.Warnings.Interval)
	assert.Equal(t, 60, settings.Warnings.DedupWindow)
	assert.Equal(t, "tcp://localhost:1883", settings.Sensors.MQTT.Broker)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("FARMWATCH_LOCATION", "greenhouse_2")
	t.Setenv("FARMWATCH_SENSOR_INTERVAL", "60")

	settings, err := LoadFile(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "greenhouse_2", settings.Main.Location)
	assert.Equal(t, 60, settings.Sensors.Interval)
}

func TestLoadFileRejectsInvalidSettings(t *testing.T) {
	_, err := LoadFile(writeConfig(t, `
output:
  mysql:
    enabled: true
warnings:
  thresholds:
    temperature_low: 40
`))
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 2)
	assert.Contains(t, err.Error(), "exactly one database backend")
	assert.Contains(t, err.Error(), "temperature_low must be below temperature_high")
}

func TestSaveYAMLConfigRoundTrip(t *testing.T) {
	settings, err := LoadFile(writeConfig(t, ""))
	require.NoError(t, err)

	settings.Main.Location = "orchard"
	settings.Warnings.Thresholds.HumidityHigh = 85

	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, SaveYAMLConfig(path, settings))

	viper.Reset()
	reloaded, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "orchard", reloaded.Main.Location)
	assert.InDelta(t, 85.0, reloaded.Warnings.Thresholds.HumidityHigh, 1e-9)
	assert.Equal(t, settings.Sensors.Pins, reloaded.Sensors.Pins)
	assert.Equal(t, settings.Logging.DefaultLevel, reloaded.Logging.DefaultLevel)
}
