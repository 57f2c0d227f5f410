package weather

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/farmwatch/farmwatch/internal/errors"
)

const (
	YrNoBaseURL      = "https://api.met.no/weatherapi/locationforecast/2.0/complete"
	yrNoProviderName = "yrno"
)

// YrResponse represents the structure of the Yr.no API response
type YrResponse struct {
	Properties struct {
		Timeseries []struct {
			Time time.Time `json:"time"`
			Data struct {
				Instant struct {
					Details struct {
						AirPressure    float64 `json:"air_pressure_at_sea_level"`
						AirTemperature float64 `json:"air_temperature"`
						RelHumidity    float64 `json:"relative_humidity"`
						WindSpeed      float64 `json:"wind_speed"`
						WindDirection  float64 `json:"wind_from_direction"`
					} `json:"details"`
				} `json:"instant"`
				Next1Hours struct {
					Summary struct {
						SymbolCode string `json:"symbol_code"`
					} `json:"summary"`
					Details struct {
						PrecipitationAmount float64 `json:"precipitation_amount"`
					} `json:"details"`
				} `json:"next_1_hours"`
			} `json:"data"`
		} `json:"timeseries"`
	} `json:"properties"`
}

// YrNoProvider reads the met.no locationforecast. It needs no API key but
// honours Last-Modified, so an unchanged forecast returns the previous data.
type YrNoProvider struct {
	endpoint  string
	latitude  float64
	longitude float64
	fetcher   *httpFetcher

	mu           sync.Mutex
	lastModified string
	last         *WeatherData
}

func (p *YrNoProvider) Name() string { return yrNoProviderName }

// FetchWeather implements the Provider interface for YrNoProvider
func (p *YrNoProvider) FetchWeather(ctx context.Context) (*WeatherData, error) {
	apiURL := fmt.Sprintf("%s?lat=%.3f&lon=%.3f", p.endpoint, p.latitude, p.longitude)

	p.mu.Lock()
	defer p.mu.Unlock()

	header := http.Header{}
	header.Set("Accept-Encoding", "gzip")
	if p.lastModified != "" && p.last != nil {
		header.Set("If-Modified-Since", p.lastModified)
	}

	resp, err := p.fetcher.get(ctx, yrNoProviderName, apiURL, header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		GetLogger().Debug("weather data not modified since last fetch")
		cp := *p.last
		return &cp, nil
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, newWeatherError(err, errors.CategoryNetwork, "read_response_body", yrNoProviderName)
	}

	var response YrResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, newWeatherError(err, errors.CategoryValidation, "unmarshal_weather_data", yrNoProviderName)
	}
	if len(response.Properties.Timeseries) == 0 {
		return nil, newWeatherError(fmt.Errorf("no weather data available in timeseries"),
			errors.CategoryValidation, "validate_weather_response", yrNoProviderName)
	}

	current := response.Properties.Timeseries[0]
	data := &WeatherData{
		Time:          current.Time,
		Temperature:   current.Data.Instant.Details.AirTemperature,
		Humidity:      current.Data.Instant.Details.RelHumidity,
		Pressure:      current.Data.Instant.Details.AirPressure,
		WindSpeed:     current.Data.Instant.Details.WindSpeed,
		WindDeg:       int(current.Data.Instant.Details.WindDirection),
		Precipitation: current.Data.Next1Hours.Details.PrecipitationAmount,
		Description:   current.Data.Next1Hours.Summary.SymbolCode,
	}

	p.lastModified = resp.Header.Get("Last-Modified")
	cp := *data
	p.last = &cp
	return data, nil
}

// readBody reads and optionally decompresses the response body
func readBody(resp *http.Response) ([]byte, error) {
	if resp.Header.Get("Content-Encoding") != "gzip" {
		return io.ReadAll(resp.Body)
	}
	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	return io.ReadAll(gz)
}
