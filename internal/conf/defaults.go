// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// DefaultOpenWeatherEndpoint is the current-conditions endpoint of OpenWeather.
const DefaultOpenWeatherEndpoint = "https://api.openweathermap.org/data/2.5/weather"

// Default sensor wiring, matching the reference Raspberry Pi build.
var defaultPins = map[string]any{
	"temperature":   map[string]any{"pin": 4, "type": "DS18B20"},
	"humidity":      map[string]any{"pin": 17, "type": "DHT22"},
	"soil_moisture": map[string]any{"pin": 18, "type": "capacitive"},
	"light":         map[string]any{"pin": 19, "type": "photoresistor"},
}

// setDefaultConfig sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "FarmWatch")
	viper.SetDefault("main.location", "Default")
	viper.SetDefault("main.latitude", 0.0)
	viper.SetDefault("main.longitude", 0.0)
	viper.SetDefault("main.timezone", "")

	viper.SetDefault("logging.defaultlevel", "info")
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.fileoutput.enabled", true)
	viper.SetDefault("logging.fileoutput.path", "logs/farmwatch.log")
	viper.SetDefault("logging.fileoutput.level", "info")

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "farmwatch.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")
	viper.SetDefault("output.mysql.database", "farmwatch")
	viper.SetDefault("output.postgres.enabled", false)
	viper.SetDefault("output.postgres.host", "localhost")
	viper.SetDefault("output.postgres.port", "5432")
	viper.SetDefault("output.postgres.database", "farmwatch")
	viper.SetDefault("output.postgres.sslmode", "disable")

	viper.SetDefault("sensors.interval", 300)
	viper.SetDefault("sensors.simulate", true)
	viper.SetDefault("sensors.sensorid", "sensor_001")
	viper.SetDefault("sensors.pins", defaultPins)

	viper.SetDefault("sensors.mqtt.enabled", false)
	viper.SetDefault("sensors.mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("sensors.mqtt.clientid", "farmwatch")
	viper.SetDefault("sensors.mqtt.topic", "farmwatch/readings")
	viper.SetDefault("sensors.mqtt.warningtopic", "farmwatch/warnings")
	viper.SetDefault("sensors.mqtt.statetopic", "farmwatch/state")
	viper.SetDefault("sensors.mqtt.retain", false)
	viper.SetDefault("sensors.mqtt.discovery.enabled", false)
	viper.SetDefault("sensors.mqtt.discovery.prefix", "homeassistant")
	viper.SetDefault("sensors.mqtt.ratelimit", 10.0)

	viper.SetDefault("sensors.weather.enabled", false)
	viper.SetDefault("sensors.weather.provider", "openweather")
	viper.SetDefault("sensors.weather.endpoint", DefaultOpenWeatherEndpoint)
	viper.SetDefault("sensors.weather.units", "metric")
	viper.SetDefault("sensors.weather.timeout", 10)

	viper.SetDefault("warnings.thresholds.pest_risk", 0.7)
	viper.SetDefault("warnings.thresholds.disease_risk", 0.6)
	viper.SetDefault("warnings.thresholds.temperature_high", 35.0)
	viper.SetDefault("warnings.thresholds.temperature_low", 5.0)
	viper.SetDefault("warnings.thresholds.humidity_high", 90.0)
	viper.SetDefault("warnings.thresholds.humidity_low", 30.0)
	viper.SetDefault("warnings.thresholds.soil_moisture_low", 20.0)
	viper.SetDefault("warnings.interval", 10)
	viper.SetDefault("warnings.dedupwindow", 60)

	viper.SetDefault("preprocess.outliermethod", "zscore")
	viper.SetDefault("preprocess.outlierthreshold", 3.0)
	viper.SetDefault("preprocess.interpolation", "linear")
	viper.SetDefault("preprocess.smoothing", "rolling_mean")
	viper.SetDefault("preprocess.window", 5)
	viper.SetDefault("preprocess.normalization", "minmax")

	viper.SetDefault("traceability.prefix", "LJY")
	viper.SetDefault("traceability.traceurl", "https://trace.langjiayuan.com/product/")

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.listen", ":8080")
	viper.SetDefault("webserver.maxconnections", 256)
	viper.SetDefault("webserver.bodylimit", "16M")

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.listen", "")
	viper.SetDefault("telemetry.sentrydsn", "")
}
