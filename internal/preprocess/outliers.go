package preprocess

import (
	"math"

	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/logger"
)

// Outlier detection methods.
const (
	OutlierZScore          = "zscore"
	OutlierIQR             = "iqr"
	OutlierIsolationForest = "isolation_forest"
)

// DefaultOutlierThreshold is the z-score cutoff used when none is given.
const DefaultOutlierThreshold = 3.0

// DetectOutliers returns a mask of values in column flagged by method.
// Missing values are never flagged. A missing or all-NaN column yields an
// all-false mask.
func DetectOutliers(f *Frame, column, method string, threshold float64) ([]bool, error) {
	mask := make([]bool, f.Len())

	switch method {
	case OutlierZScore, OutlierIQR, OutlierIsolationForest:
	default:
		return nil, errors.Newf("unknown outlier detection method: %s", method).
			Component("preprocess").
			Category(errors.CategoryValidation).
			Context("method", method).
			Build()
	}

	values, ok := f.Columns[column]
	if !ok || countNaN(values) == len(values) {
		return mask, nil
	}
	if threshold <= 0 {
		threshold = DefaultOutlierThreshold
	}

	switch method {
	case OutlierZScore:
		zscoreMask(values, threshold, mask)
	case OutlierIQR:
		iqrMask(values, mask)
	case OutlierIsolationForest:
		isolationForestMask(values, mask)
	}
	return mask, nil
}

func zscoreMask(values []float64, threshold float64, mask []bool) {
	m := mean(values)
	sd := populationStd(values)
	if math.IsNaN(sd) || sd == 0 {
		return
	}
	for i, v := range values {
		if !math.IsNaN(v) && math.Abs(v-m)/sd > threshold {
			mask[i] = true
		}
	}
}

func iqrMask(values []float64, mask []bool) {
	q1 := quantile(values, 0.25)
	q3 := quantile(values, 0.75)
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr
	for i, v := range values {
		if !math.IsNaN(v) && (v < lower || v > upper) {
			mask[i] = true
		}
	}
}

// isolationForestMask fills gaps with the mean, then flags the most
// anomalous tenth of the observed values.
func isolationForestMask(values []float64, mask []bool) {
	m := mean(values)
	filled := make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			filled[i] = m
		} else {
			filled[i] = v
		}
	}

	forest := newIsolationForest(filled, defaultForestTrees, defaultForestSample, forestSeed)
	scores := make([]float64, len(filled))
	for i, v := range filled {
		scores[i] = forest.score(v)
	}
	cutoff := quantile(scores, 1-defaultContamination)
	for i, s := range scores {
		if !math.IsNaN(values[i]) && s > cutoff {
			mask[i] = true
		}
	}
}

// RemoveOutliers replaces flagged values with NaN and returns the number
// removed per column. Nil columns means all sensor columns.
func RemoveOutliers(f *Frame, columns []string, method string, threshold float64) (map[string]int, error) {
	if columns == nil {
		columns = SensorColumns
	}

	counts := make(map[string]int)
	total := 0
	for _, col := range columns {
		if !f.Has(col) {
			continue
		}
		mask, err := DetectOutliers(f, col, method, threshold)
		if err != nil {
			return nil, err
		}
		values := f.Columns[col]
		n := 0
		for i, flagged := range mask {
			if flagged {
				values[i] = math.NaN()
				n++
			}
		}
		if n > 0 {
			counts[col] = n
			total += n
			GetLogger().Debug("outliers detected",
				logger.String("column", col),
				logger.String("method", method),
				logger.Int("count", n))
		}
	}

	GetLogger().Info("outliers removed",
		logger.String("method", method),
		logger.Int("total", total))
	return counts, nil
}
