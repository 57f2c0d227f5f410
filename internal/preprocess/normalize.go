package preprocess

import (
	"math"

	"github.com/farmwatch/farmwatch/internal/errors"
)

// Normalization methods.
const (
	NormalizeMinMax   = "minmax"
	NormalizeStandard = "standard"
)

// Scaler holds the per-column parameters fitted by Normalize.
// A scaled value is (x - Offset) / Scale.
type Scaler struct {
	Method string             `json:"method"`
	Offset map[string]float64 `json:"offset"`
	Scale  map[string]float64 `json:"scale"`
}

// Normalize scales the sensor columns of f in place and returns the scaler.
// Constant columns map to 0.
func Normalize(f *Frame, method string) (*Scaler, error) {
	if method != NormalizeMinMax && method != NormalizeStandard {
		return nil, errors.Newf("unknown normalization method: %s", method).
			Component("preprocess").
			Category(errors.CategoryValidation).
			Context("method", method).
			Build()
	}

	s := &Scaler{
		Method: method,
		Offset: make(map[string]float64),
		Scale:  make(map[string]float64),
	}
	for _, col := range f.presentSensorColumns() {
		values := f.Columns[col]
		var offset, scale float64
		switch method {
		case NormalizeMinMax:
			lo, hi := minMax(values)
			offset, scale = lo, hi-lo
		case NormalizeStandard:
			offset, scale = mean(values), populationStd(values)
		}
		if math.IsNaN(offset) {
			continue
		}
		if scale == 0 || math.IsNaN(scale) {
			scale = 1
		}
		s.Offset[col] = offset
		s.Scale[col] = scale
		for i, v := range values {
			if !math.IsNaN(v) {
				values[i] = (v - offset) / scale
			}
		}
	}
	return s, nil
}

// Transform applies the fitted scaling to a single value of column.
func (s *Scaler) Transform(column string, v float64) float64 {
	scale, ok := s.Scale[column]
	if !ok {
		return v
	}
	return (v - s.Offset[column]) / scale
}

// Inverse maps a scaled value of column back to its original unit.
func (s *Scaler) Inverse(column string, v float64) float64 {
	scale, ok := s.Scale[column]
	if !ok {
		return v
	}
	return v*scale + s.Offset[column]
}
