package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/farmwatch/farmwatch/internal/errors"
)

const openWeatherProviderName = "openweather"

// OpenWeatherResponse represents the structure of weather data returned by the OpenWeather API
type OpenWeatherResponse struct {
	Coord struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	} `json:"coord"`
	Weather []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"`
		Pressure float64 `json:"pressure"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
	Snow struct {
		OneHour float64 `json:"1h"`
	} `json:"snow"`
	Dt   int64  `json:"dt"`
	Name string `json:"name"`
}

// OpenWeatherProvider reads current conditions from the OpenWeather API.
type OpenWeatherProvider struct {
	endpoint  string
	apiKey    string
	units     string
	latitude  float64
	longitude float64
	fetcher   *httpFetcher
}

func (p *OpenWeatherProvider) Name() string { return openWeatherProviderName }

// FetchWeather implements the Provider interface for OpenWeatherProvider
func (p *OpenWeatherProvider) FetchWeather(ctx context.Context) (*WeatherData, error) {
	if p.apiKey == "" {
		return nil, newWeatherError(fmt.Errorf("OpenWeather API key not configured"),
			errors.CategoryConfiguration, "fetch_weather", openWeatherProviderName)
	}

	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.3f", p.latitude))
	q.Set("lon", fmt.Sprintf("%.3f", p.longitude))
	q.Set("appid", p.apiKey)
	q.Set("units", p.units)
	q.Set("lang", "en")

	resp, err := p.fetcher.get(ctx, openWeatherProviderName, p.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, newWeatherError(fmt.Errorf("unexpected status %d", resp.StatusCode),
			errors.CategoryHTTP, "weather_api_response", openWeatherProviderName)
	}

	var body OpenWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, newWeatherError(err, errors.CategoryValidation, "unmarshal_weather_data", openWeatherProviderName)
	}
	if len(body.Weather) == 0 {
		return nil, newWeatherError(fmt.Errorf("no weather conditions returned from API"),
			errors.CategoryValidation, "validate_weather_response", openWeatherProviderName)
	}

	temp, wind := body.Main.Temp, body.Wind.Speed
	switch p.units {
	case "imperial":
		temp = FahrenheitToCelsius(temp)
		wind = MphToMps(wind)
	case "standard":
		temp = KelvinToCelsius(temp)
	}

	return &WeatherData{
		Time:          time.Unix(body.Dt, 0),
		City:          body.Name,
		Temperature:   temp,
		Humidity:      body.Main.Humidity,
		Pressure:      body.Main.Pressure,
		WindSpeed:     wind,
		WindDeg:       body.Wind.Deg,
		Precipitation: body.Rain.OneHour + body.Snow.OneHour,
		Description:   body.Weather[0].Description,
	}, nil
}
