package weather

import "github.com/farmwatch/farmwatch/internal/logger"

// GetLogger returns the weather module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("weather")
}
