// env.go - environment variable bindings and validation
package conf

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding ties a config key to an environment variable
type envBinding struct {
	ConfigKey string
	EnvVar    string
	Validate  func(string) error
}

func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "FARMWATCH_DEBUG", validateEnvBool},
		{"main.location", "FARMWATCH_LOCATION", nil},
		{"main.latitude", "FARMWATCH_LATITUDE", validateEnvLatitude},
		{"main.longitude", "FARMWATCH_LONGITUDE", validateEnvLongitude},
		{"main.timezone", "FARMWATCH_TIMEZONE", nil},

		{"output.sqlite.path", "FARMWATCH_SQLITE_PATH", nil},
		{"output.mysql.enabled", "FARMWATCH_MYSQL_ENABLED", validateEnvBool},
		{"output.mysql.host", "FARMWATCH_MYSQL_HOST", nil},
		{"output.mysql.username", "FARMWATCH_MYSQL_USERNAME", nil},
		{"output.mysql.password", "FARMWATCH_MYSQL_PASSWORD", nil},
		{"output.postgres.enabled", "FARMWATCH_POSTGRES_ENABLED", validateEnvBool},
		{"output.postgres.host", "FARMWATCH_POSTGRES_HOST", nil},
		{"output.postgres.password", "FARMWATCH_POSTGRES_PASSWORD", nil},

		{"sensors.simulate", "FARMWATCH_SIMULATE", validateEnvBool},
		{"sensors.interval", "FARMWATCH_SENSOR_INTERVAL", validateEnvPositiveInt},
		{"sensors.mqtt.enabled", "FARMWATCH_MQTT_ENABLED", validateEnvBool},
		{"sensors.mqtt.broker", "FARMWATCH_MQTT_BROKER", validateEnvBrokerURL},
		{"sensors.mqtt.username", "FARMWATCH_MQTT_USERNAME", nil},
		{"sensors.mqtt.password", "FARMWATCH_MQTT_PASSWORD", nil},
		{"sensors.weather.apikey", "FARMWATCH_WEATHER_APIKEY", nil},

		{"webserver.listen", "FARMWATCH_LISTEN", nil},
		{"telemetry.enabled", "FARMWATCH_TELEMETRY", validateEnvBool},
		{"telemetry.sentrydsn", "FARMWATCH_SENTRY_DSN", nil},
	}
}

// bindEnvVars binds every variable and collects validation problems.
func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate == nil {
			continue
		}
		if value := os.Getenv(binding.EnvVar); value != "" {
			if err := binding.Validate(value); err != nil {
				warnings = append(warnings, fmt.Sprintf("invalid %s value %q: %v", binding.EnvVar, value, err))
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be a boolean")
	}
	return nil
}

func validateEnvFloatRange(value string, lo, hi float64) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if f < lo || f > hi {
		return fmt.Errorf("must be between %g and %g", lo, hi)
	}
	return nil
}

func validateEnvLatitude(value string) error {
	return validateEnvFloatRange(value, -90, 90)
}

func validateEnvLongitude(value string) error {
	return validateEnvFloatRange(value, -180, 180)
}

func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive integer")
	}
	return nil
}

func validateEnvBrokerURL(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "tcp", "ssl", "ws", "wss", "mqtt", "mqtts":
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// configureEnvironmentVariables sets up environment variable support for viper
func configureEnvironmentVariables() error {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return bindEnvVars()
}
