// conf/validate.go

package conf

import (
	"fmt"
	"slices"
	"strings"
)

// Method names accepted by the preprocessing pipeline.
var (
	OutlierMethods       = []string{"zscore", "iqr", "isolation_forest"}
	InterpolationMethods = []string{"linear", "polynomial", "spline", "knn", "forward_fill", "backward_fill"}
	SmoothingMethods     = []string{"rolling_mean", "rolling_median", "exponential", "savgol"}
	NormalizationMethods = []string{"minmax", "standard"}
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %s", strings.Join(ve.Errors, "; "))
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func(*Settings) []string{
		validateMainSettings,
		validateOutputSettings,
		validateSensorSettings,
		validateWarningSettings,
		validatePreprocessSettings,
		validateWebServerSettings,
	}
	for _, validate := range validators {
		ve.Errors = append(ve.Errors, validate(settings)...)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateMainSettings(s *Settings) []string {
	var errs []string
	if s.Main.Latitude < -90 || s.Main.Latitude > 90 {
		errs = append(errs, "main.latitude must be between -90 and 90")
	}
	if s.Main.Longitude < -180 || s.Main.Longitude > 180 {
		errs = append(errs, "main.longitude must be between -180 and 180")
	}
	return errs
}

func validateOutputSettings(s *Settings) []string {
	enabled := 0
	for _, on := range []bool{s.Output.SQLite.Enabled, s.Output.MySQL.Enabled, s.Output.Postgres.Enabled} {
		if on {
			enabled++
		}
	}

	var errs []string
	if enabled != 1 {
		errs = append(errs, fmt.Sprintf("exactly one database backend must be enabled, found %d", enabled))
	}
	if s.Output.SQLite.Enabled && s.Output.SQLite.Path == "" {
		errs = append(errs, "output.sqlite.path is required")
	}
	if s.Output.MySQL.Enabled && (s.Output.MySQL.Host == "" || s.Output.MySQL.Database == "") {
		errs = append(errs, "output.mysql requires host and database")
	}
	if s.Output.Postgres.Enabled && (s.Output.Postgres.Host == "" || s.Output.Postgres.Database == "") {
		errs = append(errs, "output.postgres requires host and database")
	}
	return errs
}

func validateSensorSettings(s *Settings) []string {
	var errs []string
	if s.Sensors.Interval <= 0 {
		errs = append(errs, "sensors.interval must be positive")
	}
	if s.Sensors.MQTT.Enabled && s.Sensors.MQTT.Broker == "" {
		errs = append(errs, "sensors.mqtt.broker is required when mqtt is enabled")
	}
	if s.Sensors.Weather.Enabled {
		switch s.Sensors.Weather.Provider {
		case "openweather":
			if s.Sensors.Weather.APIKey == "" {
				errs = append(errs, "sensors.weather.apikey is required for openweather")
			}
		case "yrno", "none", "":
		default:
			errs = append(errs, fmt.Sprintf("unknown weather provider %q", s.Sensors.Weather.Provider))
		}
	}
	return errs
}

func validateWarningSettings(s *Settings) []string {
	var errs []string
	t := s.Warnings.Thresholds

	if t.TemperatureLow >= t.TemperatureHigh {
		errs = append(errs, "warnings.thresholds.temperature_low must be below temperature_high")
	}
	if t.HumidityLow >= t.HumidityHigh {
		errs = append(errs, "warnings.thresholds.humidity_low must be below humidity_high")
	}
	if t.PestRisk < 0 || t.PestRisk > 1 {
		errs = append(errs, "warnings.thresholds.pest_risk must be between 0 and 1")
	}
	if t.DiseaseRisk < 0 || t.DiseaseRisk > 1 {
		errs = append(errs, "warnings.thresholds.disease_risk must be between 0 and 1")
	}
	if s.Warnings.Interval <= 0 {
		errs = append(errs, "warnings.interval must be positive")
	}
	if s.Warnings.DedupWindow < 0 {
		errs = append(errs, "warnings.dedupwindow cannot be negative")
	}
	return errs
}

func validatePreprocessSettings(s *Settings) []string {
	var errs []string
	p := s.Preprocess

	check := func(name, value string, allowed []string) {
		if !slices.Contains(allowed, value) {
			errs = append(errs, fmt.Sprintf("preprocess.%s: unknown method %q", name, value))
		}
	}
	check("outliermethod", p.OutlierMethod, OutlierMethods)
	check("interpolation", p.Interpolation, InterpolationMethods)
	check("smoothing", p.Smoothing, SmoothingMethods)
	check("normalization", p.Normalization, NormalizationMethods)

	if p.OutlierThreshold <= 0 {
		errs = append(errs, "preprocess.outlierthreshold must be positive")
	}
	if p.Window < 2 {
		errs = append(errs, "preprocess.window must be at least 2")
	}
	return errs
}

func validateWebServerSettings(s *Settings) []string {
	var errs []string
	if s.WebServer.Enabled && s.WebServer.Listen == "" {
		errs = append(errs, "webserver.listen is required")
	}
	if s.WebServer.MaxConnections < 0 {
		errs = append(errs, "webserver.maxconnections cannot be negative")
	}
	return errs
}
