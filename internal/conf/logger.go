// Package conf loads, validates and saves FarmWatch settings.
package conf

import "github.com/farmwatch/farmwatch/internal/logger"

// GetLogger returns the config module logger. It is fetched from the global
// logger on each call because settings load before logging is configured.
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}
