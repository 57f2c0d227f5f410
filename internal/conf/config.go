// config.go: settings struct for FarmWatch and functions to load and save it.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/farmwatch/farmwatch/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// MainSettings identifies the farm site.
type MainSettings struct {
	Name      string  // installation name
	Location  string  // location label stored on readings
	Latitude  float64 // site latitude for daylight calculation
	Longitude float64 // site longitude for daylight calculation
	Timezone  string  // IANA timezone name, empty for local
}

// SQLiteSettings contains settings for the SQLite backend.
type SQLiteSettings struct {
	Enabled bool
	Path    string // path to database file
}

// MySQLSettings contains settings for the MySQL backend.
type MySQLSettings struct {
	Enabled  bool
	Username string
	Password string
	Host     string
	Port     string
	Database string
}

// PostgresSettings contains settings for the PostgreSQL backend.
type PostgresSettings struct {
	Enabled  bool
	Host     string
	Port     string
	Username string
	Password string
	Database string
	SSLMode  string
}

// OutputSettings selects the storage backend.
type OutputSettings struct {
	SQLite   SQLiteSettings
	MySQL    MySQLSettings
	Postgres PostgresSettings
}

// SensorPin is the wiring of one physical sensor.
type SensorPin struct {
	Pin  int    `yaml:"pin"`
	Type string `yaml:"type"`
}

// MQTTSettings contains settings for reading ingestion and warning publication.
type MQTTSettings struct {
	Enabled      bool
	Broker       string // tcp://host:port
	ClientID     string
	Username     string
	Password     string
	Topic        string // topic carrying JSON readings
	WarningTopic string // topic warnings are published to
	StateTopic   string // topic collected readings are published to
	Retain       bool
	RateLimit    float64 // accepted readings per second
	Discovery    MQTTDiscoverySettings
}

// MQTTDiscoverySettings controls Home Assistant auto-discovery.
type MQTTDiscoverySettings struct {
	Enabled bool
	Prefix  string // discovery topic prefix, usually "homeassistant"
}

// WeatherSettings contains settings for the weather overlay.
type WeatherSettings struct {
	Enabled  bool
	Provider string // "openweather", "yrno" or "none"
	APIKey   string
	Endpoint string
	Units    string // standard, metric or imperial
	Timeout  int    // request timeout in seconds
}

// SensorSettings contains settings for data collection.
type SensorSettings struct {
	Interval int                  // seconds between collections
	Simulate bool                 // use simulated sensors
	SensorID string               // sensor id stored on readings
	Pins     map[string]SensorPin // sensor name to wiring
	MQTT     MQTTSettings
	Weather  WeatherSettings
}

// WarningThresholds are the limits the warning checks compare against.
type WarningThresholds struct {
	PestRisk        float64 `mapstructure:"pest_risk" yaml:"pest_risk" json:"pest_risk"`
	DiseaseRisk     float64 `mapstructure:"disease_risk" yaml:"disease_risk" json:"disease_risk"`
	TemperatureHigh float64 `mapstructure:"temperature_high" yaml:"temperature_high" json:"temperature_high"`
	TemperatureLow  float64 `mapstructure:"temperature_low" yaml:"temperature_low" json:"temperature_low"`
	HumidityHigh    float64 `mapstructure:"humidity_high" yaml:"humidity_high" json:"humidity_high"`
	HumidityLow     float64 `mapstructure:"humidity_low" yaml:"humidity_low" json:"humidity_low"`
	SoilMoistureLow float64 `mapstructure:"soil_moisture_low" yaml:"soil_moisture_low" json:"soil_moisture_low"`
}

// WarningSettings contains settings for the warning scheduler.
type WarningSettings struct {
	Thresholds  WarningThresholds
	Interval    int // minutes between scheduled checks
	DedupWindow int // minutes during which a repeated warning is suppressed
}

// PreprocessSettings are defaults for the preprocessing pipeline.
type PreprocessSettings struct {
	OutlierMethod    string
	OutlierThreshold float64
	Interpolation    string
	Smoothing        string
	Window           int
	Normalization    string
}

// TraceabilitySettings contains settings for product ids and QR codes.
type TraceabilitySettings struct {
	Prefix   string // product id prefix
	TraceURL string // public URL prefix encoded in QR codes
}

// WebServerSettings contains settings for the JSON API.
type WebServerSettings struct {
	Enabled        bool
	Listen         string // listen address, e.g. ":8080"
	MaxConnections int    // concurrent connection cap, 0 for unlimited
	BodyLimit      string // request body limit, echo size syntax
}

// TelemetrySettings contains settings for metrics and error reporting.
type TelemetrySettings struct {
	Enabled   bool   // true to expose Prometheus metrics
	Listen    string // separate metrics listener, empty mounts /metrics on the API server
	SentryDSN string // optional Sentry DSN
}

// Settings contains all configuration options for FarmWatch.
type Settings struct {
	Debug bool

	Main         MainSettings
	Logging      logger.LoggingConfig
	Output       OutputSettings
	Sensors      SensorSettings
	Warnings     WarningSettings
	Preprocess   PreprocessSettings
	Traceability TraceabilitySettings
	WebServer    WebServerSettings
	Telemetry    TelemetrySettings
}

// Location returns the configured timezone, falling back to time.Local.
func (s *Settings) Location() *time.Location {
	if s.Main.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(s.Main.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	return unmarshalAndValidate()
}

// LoadFile reads settings from an explicit config file path.
func LoadFile(path string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	viper.SetConfigFile(path)
	setDefaultConfig()
	if err := configureEnvironmentVariables(); err != nil {
		GetLogger().Warn("environment configuration issues", logger.Error(err))
	}

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return unmarshalAndValidate()
}

func unmarshalAndValidate() (*Settings, error) {
	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	// Environment problems are reported, not fatal
	if err := configureEnvironmentVariables(); err != nil {
		GetLogger().Warn("environment configuration issues", logger.Error(err))
	}

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig(configPaths[0])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded config.yaml into dir and reads it back.
func createDefaultConfig(dir string) error {
	configPath := filepath.Join(dir, "config.yaml")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	data, err := getDefaultConfig()
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil { //nolint:gosec // config is not secret until edited
		return fmt.Errorf("error writing default config file: %w", err)
	}

	GetLogger().Info("created default config file", logger.String("path", configPath))
	return viper.ReadInConfig()
}

func getDefaultConfig() ([]byte, error) {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return nil, fmt.Errorf("error reading embedded config: %w", err)
	}
	return data, nil
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, loading it on first use.
// It panics when the configuration cannot be loaded.
func Setting() *Settings {
	once.Do(func() {
		if GetSettings() == nil {
			if _, err := Load(); err != nil {
				panic(fmt.Sprintf("error loading settings: %v", err))
			}
		}
	})
	return GetSettings()
}

// SaveYAMLConfig writes settings to configPath atomically. Comments in an
// existing file are not preserved.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}

	return nil
}
