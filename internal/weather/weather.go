// Package weather fetches current conditions from a public provider and
// overlays wind, rainfall and pressure onto collected sensor readings.
package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/logger"
)

// DefaultCacheTTL keeps provider calls well under public rate limits.
const DefaultCacheTTL = 10 * time.Minute

const currentKey = "current"

// Provider represents a weather data provider interface
type Provider interface {
	Name() string
	FetchWeather(ctx context.Context) (*WeatherData, error)
}

// WeatherData is the provider-neutral current observation in metric units.
type WeatherData struct {
	Time          time.Time
	City          string
	Temperature   float64 // °C
	Humidity      float64 // %
	Pressure      float64 // hPa
	WindSpeed     float64 // m/s
	WindDeg       int
	Precipitation float64 // mm in the last or next hour
	Description   string
}

// Recorder receives fetch and provider metrics.
type Recorder interface {
	RecordWeatherFetch(provider, status string, duration time.Duration)
	RecordWeatherProviderRequest(provider, statusCode string)
	UpdateWeatherGauges(temperature, humidity, pressure, windSpeed float64)
}

// Service handles weather data operations
type Service struct {
	provider Provider
	cache    *cache.Cache
	metrics  Recorder
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	metrics    Recorder
	ttl        time.Duration
	retryDelay time.Duration
	endpoint   string
}

// WithRecorder attaches weather metrics.
func WithRecorder(r Recorder) Option {
	return func(o *serviceOptions) { o.metrics = r }
}

// WithCacheTTL overrides DefaultCacheTTL. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *serviceOptions) { o.ttl = ttl }
}

// WithRetryDelay overrides the pause between retries.
func WithRetryDelay(d time.Duration) Option {
	return func(o *serviceOptions) { o.retryDelay = d }
}

// NewService creates a weather service for the configured provider. It
// returns nil and no error when weather is disabled.
func NewService(settings *conf.Settings, opts ...Option) (*Service, error) {
	ws := settings.Sensors.Weather
	if !ws.Enabled || ws.Provider == "none" || ws.Provider == "" {
		return nil, nil
	}

	o := serviceOptions{ttl: DefaultCacheTTL, retryDelay: RetryDelay}
	for _, opt := range opts {
		opt(&o)
	}

	fetcher := newHTTPFetcher(time.Duration(ws.Timeout) * time.Second)
	fetcher.retryDelay = o.retryDelay
	if o.metrics != nil {
		rec := o.metrics
		fetcher.observe = func(provider string, code int) {
			rec.RecordWeatherProviderRequest(provider, fmt.Sprintf("%d", code))
		}
	}

	var provider Provider
	switch ws.Provider {
	case openWeatherProviderName:
		units := ws.Units
		if units == "" {
			units = "metric"
		}
		provider = &OpenWeatherProvider{
			endpoint:  ws.Endpoint,
			apiKey:    ws.APIKey,
			units:     units,
			latitude:  settings.Main.Latitude,
			longitude: settings.Main.Longitude,
			fetcher:   fetcher,
		}
	case yrNoProviderName:
		endpoint := YrNoBaseURL
		if ws.Endpoint != "" && ws.Endpoint != conf.DefaultOpenWeatherEndpoint {
			endpoint = ws.Endpoint
		}
		provider = &YrNoProvider{
			endpoint:  endpoint,
			latitude:  settings.Main.Latitude,
			longitude: settings.Main.Longitude,
			fetcher:   fetcher,
		}
	default:
		return nil, errors.Newf("invalid weather provider: %s", ws.Provider).
			Component("weather").
			Category(errors.CategoryConfiguration).
			Context("provider", ws.Provider).
			Build()
	}

	s := &Service{provider: provider, metrics: o.metrics}
	if o.ttl > 0 {
		s.cache = cache.New(o.ttl, 2*o.ttl)
	}
	return s, nil
}

// Provider returns the active provider name.
func (s *Service) Provider() string {
	return s.provider.Name()
}

// Current returns the latest observation, served from cache within the TTL.
func (s *Service) Current(ctx context.Context) (*WeatherData, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(currentKey); ok {
			return v.(*WeatherData), nil
		}
	}

	start := time.Now()
	data, err := s.provider.FetchWeather(ctx)
	if s.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		s.metrics.RecordWeatherFetch(s.provider.Name(), status, time.Since(start))
	}
	if err != nil {
		GetLogger().Error("failed to fetch weather data from provider",
			logger.String("provider", s.provider.Name()),
			logger.Error(err))
		return nil, err
	}
	if err := validate(data); err != nil {
		return nil, err
	}

	GetLogger().Debug("fetched weather data",
		logger.String("provider", s.provider.Name()),
		logger.Float64("temp_c", data.Temperature),
		logger.Float64("wind_mps", data.WindSpeed),
		logger.Float64("pressure_hpa", data.Pressure))

	if s.metrics != nil {
		s.metrics.UpdateWeatherGauges(data.Temperature, data.Humidity, data.Pressure, data.WindSpeed)
	}
	if s.cache != nil {
		s.cache.SetDefault(currentKey, data)
	}
	return data, nil
}

// Overlay fills wind speed, rainfall and air pressure on a reading from the
// current observation. Sensor values already present are kept.
func (s *Service) Overlay(ctx context.Context, reading *datastore.EnvironmentData) error {
	data, err := s.Current(ctx)
	if err != nil {
		return err
	}
	if reading.WindSpeed == nil {
		v := data.WindSpeed
		reading.WindSpeed = &v
	}
	if reading.Rainfall == nil {
		v := data.Precipitation
		reading.Rainfall = &v
	}
	if reading.AirPressure == nil && data.Pressure > 0 {
		v := data.Pressure
		reading.AirPressure = &v
	}
	return nil
}

// validate performs basic validation on weather data
func validate(data *WeatherData) error {
	if data.Temperature < -kelvinOffset {
		return errors.Newf("temperature cannot be below absolute zero: %f", data.Temperature).
			Component("weather").
			Category(errors.CategoryValidation).
			Context("temperature", fmt.Sprintf("%.2f", data.Temperature)).
			Build()
	}
	if data.WindSpeed < 0 {
		return errors.Newf("wind speed cannot be negative: %f", data.WindSpeed).
			Component("weather").
			Category(errors.CategoryValidation).
			Context("wind_speed", fmt.Sprintf("%.2f", data.WindSpeed)).
			Build()
	}
	return nil
}
