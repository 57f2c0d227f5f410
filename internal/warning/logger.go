package warning

import "github.com/farmwatch/farmwatch/internal/logger"

// GetLogger returns the warning module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("warning")
}
