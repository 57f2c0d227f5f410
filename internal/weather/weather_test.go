package weather

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/errors"
)

func TestNewServiceDisabled(t *testing.T) {
	settings := createTestSettings(t, "openweather", func(s *conf.Settings) {
		s.Sensors.Weather.Enabled = false
	})
	s, err := NewService(settings)
	require.NoError(t, err)
	assert.Nil(t, s)

	settings = createTestSettings(t, "wunderground")
	_, err = NewService(settings)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestOpenWeatherFetch(t *testing.T) {
	setupHTTPMock(t)
	registerOpenWeatherResponder(http.StatusOK, openWeatherSuccessResponse())

	rec := newFakeRecorder()
	s := newTestService(t, createTestSettings(t, "openweather"), WithRecorder(rec))

	data, err := s.Current(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 21.4, data.Temperature, 0.001)
	assert.InDelta(t, 81.0, data.Humidity, 0.001)
	assert.InDelta(t, 1009.0, data.Pressure, 0.001)
	assert.InDelta(t, 4.12, data.WindSpeed, 0.001)
	assert.InDelta(t, 0.6, data.Precipitation, 0.001)
	assert.Equal(t, "light rain", data.Description)
	assert.Equal(t, "Zhanhua", data.City)
	assert.Equal(t, time.Unix(1760590800, 0), data.Time)

	assert.Equal(t, 1, rec.fetches["openweather/success"])
	assert.Equal(t, 1, rec.requests["openweather/200"])
	assert.InDelta(t, 21.4, rec.temp, 0.001)
}

func TestOpenWeatherImperialUnits(t *testing.T) {
	setupHTTPMock(t)
	registerOpenWeatherResponder(http.StatusOK, `{
  "weather": [{ "description": "clear sky" }],
  "main": { "temp": 68, "pressure": 1012, "humidity": 40 },
  "wind": { "speed": 10 },
  "dt": 1760590800
}`)

	s := newTestService(t, createTestSettings(t, "openweather", func(s *conf.Settings) {
		s.Sensors.Weather.Units = "imperial"
	}))
	data, err := s.Current(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 20.0, data.Temperature, 0.001)
	assert.InDelta(t, 4.4704, data.WindSpeed, 0.0001)
}

func TestOpenWeatherErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		category errors.ErrorCategory
		calls    int
	}{
		{"unauthorized is not retried", http.StatusUnauthorized, `{"cod":401}`, errors.CategoryHTTP, 1},
		{"server errors are retried", http.StatusServiceUnavailable, `oops`, errors.CategoryNetwork, MaxRetries},
		{"invalid json", http.StatusOK, `{invalid`, errors.CategoryValidation, 1},
		{"empty weather array", http.StatusOK, `{"weather": [], "dt": 1}`, errors.CategoryValidation, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupHTTPMock(t)
			registerOpenWeatherResponder(tt.status, tt.body)

			rec := newFakeRecorder()
			s := newTestService(t, createTestSettings(t, "openweather"), WithRecorder(rec))
			data, err := s.Current(context.Background())

			require.Error(t, err)
			assert.Nil(t, data)
			assert.True(t, errors.IsCategory(err, tt.category), "got %v", err)
			assert.Equal(t, tt.calls, httpmock.GetTotalCallCount())
			assert.Equal(t, 1, rec.fetches["openweather/error"])
		})
	}
}

func TestOpenWeatherRequiresAPIKey(t *testing.T) {
	setupHTTPMock(t)
	s := newTestService(t, createTestSettings(t, "openweather", func(s *conf.Settings) {
		s.Sensors.Weather.APIKey = ""
	}))
	_, err := s.Current(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not configured")
	assert.Zero(t, httpmock.GetTotalCallCount())
}

func TestCurrentIsCached(t *testing.T) {
	setupHTTPMock(t)
	registerOpenWeatherResponder(http.StatusOK, openWeatherSuccessResponse())

	s := newTestService(t, createTestSettings(t, "openweather"))
	for range 3 {
		_, err := s.Current(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, httpmock.GetTotalCallCount())

	uncached := newTestService(t, createTestSettings(t, "openweather"), WithCacheTTL(0))
	for range 2 {
		_, err := uncached.Current(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, httpmock.GetTotalCallCount())
}

func gzipped(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestYrNoFetchAndNotModified(t *testing.T) {
	setupHTTPMock(t)

	const lastModified = "Fri, 16 Oct 2026 04:00:00 GMT"
	first := func(req *http.Request) (*http.Response, error) {
		assert.Empty(t, req.Header.Get("If-Modified-Since"))
		resp := httpmock.NewBytesResponse(http.StatusOK, gzipped(t, yrNoSuccessResponse()))
		resp.Header.Set("Content-Encoding", "gzip")
		resp.Header.Set("Last-Modified", lastModified)
		return resp, nil
	}
	second := func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, lastModified, req.Header.Get("If-Modified-Since"))
		return httpmock.NewStringResponse(http.StatusNotModified, ""), nil
	}
	calls := 0
	httpmock.RegisterResponder("GET", `=~^https://api\.met\.no/weatherapi/locationforecast/2\.0/complete`,
		func(req *http.Request) (*http.Response, error) {
			calls++
			if calls == 1 {
				return first(req)
			}
			return second(req)
		})

	s := newTestService(t, createTestSettings(t, "yrno"), WithCacheTTL(0))
	data, err := s.Current(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 17.9, data.Temperature, 0.001)
	assert.InDelta(t, 1016.2, data.Pressure, 0.001)
	assert.InDelta(t, 0.2, data.Precipitation, 0.001)
	assert.Equal(t, "cloudy", data.Description)

	again, err := s.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, data.Time, again.Time)
	assert.Equal(t, 2, calls)
}

func TestOverlayKeepsSensorValues(t *testing.T) {
	setupHTTPMock(t)
	registerOpenWeatherResponder(http.StatusOK, openWeatherSuccessResponse())
	s := newTestService(t, createTestSettings(t, "openweather"))

	wind := 1.5
	reading := &datastore.EnvironmentData{WindSpeed: &wind}
	require.NoError(t, s.Overlay(context.Background(), reading))

	assert.InDelta(t, 1.5, *reading.WindSpeed, 0.001)
	require.NotNil(t, reading.Rainfall)
	assert.InDelta(t, 0.6, *reading.Rainfall, 0.001)
	require.NotNil(t, reading.AirPressure)
	assert.InDelta(t, 1009.0, *reading.AirPressure, 0.001)
}

func TestCancelledContextStopsRetries(t *testing.T) {
	setupHTTPMock(t)
	registerOpenWeatherResponder(http.StatusBadGateway, "")

	s, err := NewService(createTestSettings(t, "openweather"), WithRetryDelay(time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.Current(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryCancellation))
}

func TestUnitConversions(t *testing.T) {
	assert.InDelta(t, 0.0, FahrenheitToCelsius(32), 1e-9)
	assert.InDelta(t, 100.0, FahrenheitToCelsius(212), 1e-9)
	assert.InDelta(t, 0.0, KelvinToCelsius(273.15), 1e-9)
	assert.InDelta(t, 0.44704, MphToMps(1), 1e-9)
}
