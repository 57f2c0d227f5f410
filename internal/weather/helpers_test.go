package weather

import (
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"

	"github.com/farmwatch/farmwatch/internal/conf"
)

type fakeRecorder struct {
	fetches  map[string]int
	requests map[string]int
	temp     float64
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{fetches: map[string]int{}, requests: map[string]int{}}
}

func (r *fakeRecorder) RecordWeatherFetch(provider, status string, _ time.Duration) {
	r.fetches[provider+"/"+status]++
}

func (r *fakeRecorder) RecordWeatherProviderRequest(provider, statusCode string) {
	r.requests[provider+"/"+statusCode]++
}

func (r *fakeRecorder) UpdateWeatherGauges(temperature, _, _, _ float64) {
	r.temp = temperature
}

// createTestSettings creates test settings with configurable provider.
func createTestSettings(t *testing.T, provider string, opts ...func(*conf.Settings)) *conf.Settings {
	t.Helper()

	settings := &conf.Settings{}
	settings.Main.Latitude = 37.696 // Zhanhua
	settings.Main.Longitude = 118.131
	settings.Sensors.Weather = conf.WeatherSettings{
		Enabled:  true,
		Provider: provider,
		APIKey:   "test-api-key",
		Endpoint: conf.DefaultOpenWeatherEndpoint,
		Units:    "metric",
		Timeout:  5,
	}
	for _, opt := range opts {
		opt(settings)
	}
	return settings
}

func newTestService(t *testing.T, settings *conf.Settings, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithRetryDelay(time.Millisecond)}, opts...)
	s, err := NewService(settings, opts...)
	require.NoError(t, err)
	require.NotNil(t, s)
	return s
}

// setupHTTPMock activates httpmock for the duration of the test.
func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

const openWeatherURL = `=~^https://api\.openweathermap\.org/data/2\.5/weather`

func registerOpenWeatherResponder(statusCode int, body string) {
	httpmock.RegisterResponder("GET", openWeatherURL, httpmock.NewStringResponder(statusCode, body))
}

func openWeatherSuccessResponse() string {
	return `{
  "coord": { "lon": 118.131, "lat": 37.696 },
  "weather": [{ "id": 500, "main": "Rain", "description": "light rain" }],
  "main": { "temp": 21.4, "pressure": 1009, "humidity": 81 },
  "wind": { "speed": 4.12, "deg": 140 },
  "rain": { "1h": 0.6 },
  "dt": 1760590800,
  "name": "Zhanhua"
}`
}

func yrNoSuccessResponse() string {
	return `{
  "properties": {
    "timeseries": [
      {
        "time": "2026-10-16T04:00:00Z",
        "data": {
          "instant": {
            "details": {
              "air_pressure_at_sea_level": 1016.2,
              "air_temperature": 17.9,
              "relative_humidity": 66.0,
              "wind_from_direction": 35.0,
              "wind_speed": 2.7
            }
          },
          "next_1_hours": {
            "summary": { "symbol_code": "cloudy" },
            "details": { "precipitation_amount": 0.2 }
          }
        }
      }
    ]
  }
}`
}
