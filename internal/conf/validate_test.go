package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	return &Settings{
		Output: OutputSettings{SQLite: SQLiteSettings{Enabled: true, Path: "test.db"}},
		Sensors: SensorSettings{
			Interval: 300,
		},
		Warnings: WarningSettings{
			Thresholds: WarningThresholds{
				PestRisk: 0.7, DiseaseRisk: 0.6,
				TemperatureHigh: 35, TemperatureLow: 5,
				HumidityHigh: 90, HumidityLow: 30,
				SoilMoistureLow: 20,
			},
			Interval:    10,
			DedupWindow: 60,
		},
		Preprocess: PreprocessSettings{
			OutlierMethod: "zscore", OutlierThreshold: 3,
			Interpolation: "linear", Smoothing: "rolling_mean",
			Window: 5, Normalization: "minmax",
		},
		WebServer: WebServerSettings{Enabled: true, Listen: ":8080"},
	}
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"valid", func(*Settings) {}, ""},
		{"no backend", func(s *Settings) { s.Output.SQLite.Enabled = false }, "exactly one database backend"},
		{"two backends", func(s *Settings) {
			s.Output.Postgres = PostgresSettings{Enabled: true, Host: "db", Database: "farm"}
		}, "found 2"},
		{"risk out of range", func(s *Settings) { s.Warnings.Thresholds.DiseaseRisk = 1.5 }, "disease_risk"},
		{"humidity inverted", func(s *Settings) { s.Warnings.Thresholds.HumidityLow = 95 }, "humidity_low"},
		{"zero interval", func(s *Settings) { s.Warnings.Interval = 0 }, "warnings.interval"},
		{"unknown smoothing", func(s *Settings) { s.Preprocess.Smoothing = "lowess" }, `unknown method "lowess"`},
		{"short window", func(s *Settings) { s.Preprocess.Window = 1 }, "preprocess.window"},
		{"bad latitude", func(s *Settings) { s.Main.Latitude = 123 }, "main.latitude"},
		{"weather without key", func(s *Settings) {
			s.Sensors.Weather = WeatherSettings{Enabled: true, Provider: "openweather"}
		}, "apikey"},
		{"mqtt without broker", func(s *Settings) { s.Sensors.MQTT.Enabled = true }, "broker"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := validSettings()
			tt.mutate(s)

			err := ValidateSettings(s)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnvValidators(t *testing.T) {
	t.Parallel()

	require.NoError(t, validateEnvBool("true"))
	require.Error(t, validateEnvBool("maybe"))
	require.NoError(t, validateEnvLatitude("39.9"))
	require.Error(t, validateEnvLatitude("91"))
	require.Error(t, validateEnvLongitude("east"))
	require.NoError(t, validateEnvPositiveInt("300"))
	require.Error(t, validateEnvPositiveInt("0"))
	require.NoError(t, validateEnvBrokerURL("tcp://broker.local:1883"))
	require.Error(t, validateEnvBrokerURL("http://broker.local"))
	require.Error(t, validateEnvBrokerURL("tcp://"))
}
