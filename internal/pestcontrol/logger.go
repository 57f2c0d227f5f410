package pestcontrol

import "github.com/farmwatch/farmwatch/internal/logger"

// GetLogger returns the pestcontrol module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("pestcontrol")
}
