package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WeatherMetrics contains Prometheus metrics for the weather overlay.
type WeatherMetrics struct {
	fetchesTotal     *prometheus.CounterVec
	fetchDuration    *prometheus.HistogramVec
	providerRequests *prometheus.CounterVec
	temperature      prometheus.Gauge
	humidity         prometheus.Gauge
	pressure         prometheus.Gauge
	windSpeed        prometheus.Gauge
}

// NewWeatherMetrics creates and registers new weather metrics
func NewWeatherMetrics(registry *prometheus.Registry) (*WeatherMetrics, error) {
	m := &WeatherMetrics{
		fetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "farmwatch_weather_fetches_total",
			Help: "Total number of weather data fetch operations",
		}, []string{"provider", "status"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "farmwatch_weather_fetch_duration_seconds",
			Help: "Time taken to fetch weather data",
			// 100ms to ~50s
			Buckets: prometheus.ExponentialBuckets(BucketStart100ms, BucketFactor2, BucketCount10),
		}, []string{"provider"}),
		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "farmwatch_weather_provider_requests_total",
			Help: "Total number of requests to weather providers",
		}, []string{"provider", "status_code"}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "farmwatch_weather_temperature_celsius",
			Help: "Current weather temperature in Celsius",
		}),
		humidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "farmwatch_weather_humidity_percentage",
			Help: "Current weather humidity percentage",
		}),
		pressure: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "farmwatch_weather_pressure_hpa",
			Help: "Current weather pressure in hPa",
		}),
		windSpeed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "farmwatch_weather_wind_speed_mps",
			Help: "Current weather wind speed in meters per second",
		}),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register weather metrics: %w", err)
	}
	return m, nil
}

// RecordWeatherFetch records a fetch outcome and its duration.
func (m *WeatherMetrics) RecordWeatherFetch(provider, status string, duration time.Duration) {
	m.fetchesTotal.WithLabelValues(provider, status).Inc()
	m.fetchDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordWeatherProviderRequest records the HTTP status of a provider call.
func (m *WeatherMetrics) RecordWeatherProviderRequest(provider, statusCode string) {
	m.providerRequests.WithLabelValues(provider, statusCode).Inc()
}

// UpdateWeatherGauges updates the current weather gauge values
func (m *WeatherMetrics) UpdateWeatherGauges(temperature, humidity, pressure, windSpeed float64) {
	m.temperature.Set(temperature)
	m.humidity.Set(humidity)
	m.pressure.Set(pressure)
	m.windSpeed.Set(windSpeed)
}

// Describe implements the Collector interface
func (m *WeatherMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.fetchesTotal.Describe(ch)
	m.fetchDuration.Describe(ch)
	m.providerRequests.Describe(ch)
	m.temperature.Describe(ch)
	m.humidity.Describe(ch)
	m.pressure.Describe(ch)
	m.windSpeed.Describe(ch)
}

// Collect implements the Collector interface
func (m *WeatherMetrics) Collect(ch chan<- prometheus.Metric) {
	m.fetchesTotal.Collect(ch)
	m.fetchDuration.Collect(ch)
	m.providerRequests.Collect(ch)
	m.temperature.Collect(ch)
	m.humidity.Collect(ch)
	m.pressure.Collect(ch)
	m.windSpeed.Collect(ch)
}
