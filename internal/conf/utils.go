// conf/utils.go helpers for locating configuration files
package conf

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/farmwatch/farmwatch/internal/errors"
)

// GetDefaultConfigPaths returns the configuration directories for the current OS.
// When one of them already holds config.yaml, only that directory is returned.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategorySystem).
			Context("operation", "get_home_directory").
			Build()
	}

	var configPaths []string
	switch runtime.GOOS {
	case "windows":
		exePath, err := os.Executable()
		if err != nil {
			return nil, errors.New(err).
				Component("conf").
				Category(errors.CategorySystem).
				Context("operation", "get_executable_path").
				Build()
		}
		configPaths = []string{
			filepath.Dir(exePath),
			filepath.Join(homeDir, "AppData", "Roaming", "farmwatch"),
		}
	default:
		configPaths = []string{
			filepath.Join(homeDir, ".config", "farmwatch"),
			"/etc/farmwatch",
		}
	}

	for _, path := range configPaths {
		if _, err := os.Stat(filepath.Join(path, "config.yaml")); err == nil {
			return []string{path}, nil
		}
	}

	return configPaths, nil
}

// FindConfigFile locates an existing config.yaml.
func FindConfigFile() (string, error) {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return "", err
	}

	for _, path := range configPaths {
		configFilePath := filepath.Join(path, "config.yaml")
		if _, err := os.Stat(configFilePath); err == nil {
			return configFilePath, nil
		}
	}

	return "", errors.Newf("config file not found").
		Component("conf").
		Category(errors.CategoryFileIO).
		Context("operation", "find_config_file").
		Build()
}
