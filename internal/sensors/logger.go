package sensors

import "github.com/farmwatch/farmwatch/internal/logger"

// GetLogger returns the sensors module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("sensors")
}
