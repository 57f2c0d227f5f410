package market

import "github.com/farmwatch/farmwatch/internal/logger"

// GetLogger returns the market module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("market")
}
