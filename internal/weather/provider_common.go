package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/httpclient"
	"github.com/farmwatch/farmwatch/internal/logger"
)

const (
	RequestTimeout = 10 * time.Second
	UserAgent      = "FarmWatch https://github.com/farmwatch/farmwatch"
	RetryDelay     = 2 * time.Second
	MaxRetries     = 3

	maxBodyPreviewSize = 200
)

// newWeatherError creates a standardized weather error with common fields
func newWeatherError(err error, category errors.ErrorCategory, operation, provider string) error {
	return errors.New(err).
		Component("weather").
		Category(category).
		Context("operation", operation).
		Context("provider", provider).
		Build()
}

// StatusObserver receives the HTTP status of every provider request.
type StatusObserver func(provider string, statusCode int)

// httpFetcher performs GET requests with bounded retries. Non-OK responses
// and transport errors are retried, context cancellation is not.
type httpFetcher struct {
	client     *httpclient.Client
	retryDelay time.Duration
	observe    StatusObserver
}

func newHTTPFetcher(timeout time.Duration) *httpFetcher {
	if timeout <= 0 {
		timeout = RequestTimeout
	}
	return &httpFetcher{
		client:     httpclient.New(&httpclient.Config{Timeout: timeout, UserAgent: UserAgent}),
		retryDelay: RetryDelay,
	}
}

// get returns the response of the first successful attempt. Callers own the body.
// A 304 is returned to the caller as is.
func (f *httpFetcher) get(ctx context.Context, provider, url string, header http.Header) (*http.Response, error) {
	var lastErr error
	for attempt := range MaxRetries {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, newWeatherError(ctx.Err(), errors.CategoryCancellation, "weather_api_request", provider)
			case <-time.After(f.retryDelay):
			}
		}

		resp, err := f.client.Get(ctx, url, header)
		if err != nil {
			if ctx.Err() != nil {
				return nil, newWeatherError(ctx.Err(), errors.CategoryCancellation, "weather_api_request", provider)
			}
			GetLogger().Warn("weather request failed",
				logger.String("provider", provider),
				logger.Int("attempt", attempt+1),
				logger.Error(err))
			lastErr = err
			continue
		}
		if f.observe != nil {
			f.observe(provider, resp.StatusCode)
		}

		if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNotModified {
			return resp, nil
		}

		preview, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyPreviewSize))
		_ = resp.Body.Close()
		GetLogger().Warn("received non-OK status code",
			logger.String("provider", provider),
			logger.Int("status_code", resp.StatusCode),
			logger.String("response_body", string(preview)))
		lastErr = fmt.Errorf("received non-OK response (%d)", resp.StatusCode)

		// client errors will not fix themselves
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, errors.New(lastErr).
				Component("weather").
				Category(errors.CategoryHTTP).
				Context("operation", "weather_api_response").
				Context("provider", provider).
				Context("status_code", strconv.Itoa(resp.StatusCode)).
				Build()
		}
	}

	return nil, errors.New(lastErr).
		Component("weather").
		Category(errors.CategoryNetwork).
		Context("operation", "weather_api_request").
		Context("provider", provider).
		Context("max_retries", strconv.Itoa(MaxRetries)).
		Build()
}

// Unit conversion constants
const (
	celsiusToFahrenheitScale  = 9.0 / 5.0
	celsiusToFahrenheitOffset = 32.0
	kelvinOffset              = 273.15
	mphToMps                  = 0.44704
)

// FahrenheitToCelsius converts a temperature from Fahrenheit to Celsius.
func FahrenheitToCelsius(f float64) float64 {
	return (f - celsiusToFahrenheitOffset) / celsiusToFahrenheitScale
}

// KelvinToCelsius converts a temperature from Kelvin to Celsius.
func KelvinToCelsius(k float64) float64 {
	return k - kelvinOffset
}

// MphToMps converts miles per hour to meters per second.
func MphToMps(mph float64) float64 {
	return mph * mphToMps
}
