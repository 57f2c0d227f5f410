package logger

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	DefaultLevel  string                  `yaml:"defaultlevel" json:"default_level" mapstructure:"defaultlevel"` // default level for all modules
	Timezone      string                  `yaml:"timezone" json:"timezone" mapstructure:"timezone"`              // "Local", "UTC" or an IANA name
	Console       *ConsoleOutput          `yaml:"console" json:"console" mapstructure:"console"`
	FileOutput    *FileOutput             `yaml:"fileoutput" json:"file_output" mapstructure:"fileoutput"`
	ModuleOutputs map[string]ModuleOutput `yaml:"modules" json:"modules" mapstructure:"modules"`
	ModuleLevels  map[string]string       `yaml:"modulelevels" json:"module_levels" mapstructure:"modulelevels"`
}

// ConsoleOutput is human-readable text without timestamps; journald or
// docker add their own.
type ConsoleOutput struct {
	Enabled bool   `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	Level   string `yaml:"level" json:"level" mapstructure:"level"`
}

// FileOutput is JSON with RFC3339 timestamps.
type FileOutput struct {
	Enabled bool   `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" json:"path" mapstructure:"path"`
	Level   string `yaml:"level" json:"level" mapstructure:"level"`
}

// ModuleOutput routes one module to its own file
type ModuleOutput struct {
	Enabled     bool   `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	FilePath    string `yaml:"filepath" json:"file_path" mapstructure:"filepath"`
	Level       string `yaml:"level" json:"level" mapstructure:"level"`
	ConsoleAlso bool   `yaml:"consolealso" json:"console_also" mapstructure:"consolealso"`
}

const (
	DefaultLogLevel       = "info"
	DefaultLogPath        = "logs/farmwatch.log"
	DefaultAccessLogPath  = "logs/access.log"
	DefaultSensorsLogPath = "logs/sensors.log"
	DefaultWeatherLogPath = "logs/weather.log"
)

func ensureModuleOutput(cfg *LoggingConfig, module, filePath string) {
	if _, exists := cfg.ModuleOutputs[module]; !exists {
		cfg.ModuleOutputs[module] = ModuleOutput{
			Enabled:  true,
			FilePath: filePath,
			Level:    DefaultLogLevel,
		}
	}
}

// applyConfigDefaults fills nil sections. Console and file output are on by
// default; the high-volume modules get their own files.
func applyConfigDefaults(cfg *LoggingConfig) {
	if cfg == nil {
		return
	}

	if cfg.DefaultLevel == "" {
		cfg.DefaultLevel = DefaultLogLevel
	}

	if cfg.Console == nil {
		cfg.Console = &ConsoleOutput{Enabled: true, Level: DefaultLogLevel}
	}

	if cfg.FileOutput == nil {
		cfg.FileOutput = &FileOutput{Enabled: true, Path: DefaultLogPath, Level: DefaultLogLevel}
	}

	if cfg.ModuleOutputs == nil {
		cfg.ModuleOutputs = make(map[string]ModuleOutput)
		ensureModuleOutput(cfg, "api", DefaultAccessLogPath)
		ensureModuleOutput(cfg, "sensors", DefaultSensorsLogPath)
		ensureModuleOutput(cfg, "weather", DefaultWeatherLogPath)
	}
}
