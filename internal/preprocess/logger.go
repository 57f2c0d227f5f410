// Package preprocess cleans and featurizes environmental time series:
// outlier removal, gap filling, smoothing, normalization and derived
// features, plus a data quality report.
package preprocess

import "github.com/farmwatch/farmwatch/internal/logger"

// GetLogger returns the preprocess module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("preprocess")
}
