package traceability

import "github.com/farmwatch/farmwatch/internal/logger"

// GetLogger returns the traceability module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("traceability")
}
