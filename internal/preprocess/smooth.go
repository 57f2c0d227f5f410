package preprocess

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/farmwatch/farmwatch/internal/errors"
)

// Smoothing methods.
const (
	SmoothRollingMean   = "rolling_mean"
	SmoothRollingMedian = "rolling_median"
	SmoothExponential   = "exponential"
	SmoothSavGol        = "savgol"
)

const (
	// SmoothedSuffix is appended to a column name for its smoothed copy.
	SmoothedSuffix = "_smoothed"

	savgolPolyOrder = 2
)

// Smooth adds a <column>_smoothed column for every sensor column.
func Smooth(f *Frame, window int, method string) error {
	switch method {
	case SmoothRollingMean, SmoothRollingMedian, SmoothExponential, SmoothSavGol:
	default:
		return errors.Newf("unknown smoothing method: %s", method).
			Component("preprocess").
			Category(errors.CategoryValidation).
			Context("method", method).
			Build()
	}
	if window < 1 {
		return errors.Newf("smoothing window must be positive, got %d", window).
			Component("preprocess").
			Category(errors.CategoryValidation).
			Build()
	}

	for _, col := range f.presentSensorColumns() {
		values := f.Columns[col]
		var smoothed []float64
		switch method {
		case SmoothRollingMean:
			smoothed = centeredRolling(values, window, mean)
		case SmoothRollingMedian:
			smoothed = centeredRolling(values, window, func(w []float64) float64 { return quantile(w, 0.5) })
		case SmoothExponential:
			smoothed = ewma(values, window)
		case SmoothSavGol:
			smoothed = savitzkyGolay(forwardFill(values), window, savgolPolyOrder)
		}
		f.Set(col+SmoothedSuffix, smoothed)
	}
	return nil
}

// centeredRolling applies agg to a centered window. A window that runs past
// either end or contains NaN yields NaN. For even windows the extra value
// is taken from the left.
func centeredRolling(values []float64, window int, agg func([]float64) float64) []float64 {
	n := len(values)
	out := nanSlice(n)
	offset := (window - 1) / 2
	for i := range n {
		end := i + offset + 1
		start := end - window
		if start < 0 || end > n {
			continue
		}
		w := values[start:end]
		if countNaN(w) > 0 {
			continue
		}
		out[i] = agg(w)
	}
	return out
}

// trailingRolling applies agg to the window ending at each row. Rows without
// a full window of observed values are NaN.
func trailingRolling(values []float64, window int, agg func([]float64) float64) []float64 {
	n := len(values)
	out := nanSlice(n)
	for i := window - 1; i < n; i++ {
		w := values[i-window+1 : i+1]
		if countNaN(w) > 0 {
			continue
		}
		out[i] = agg(w)
	}
	return out
}

// ewma is the adjusted exponentially weighted mean with alpha = 2/(span+1).
// NaN inputs are skipped but still age the weights of earlier values.
func ewma(values []float64, span int) []float64 {
	alpha := 2.0 / (float64(span) + 1)
	decay := 1 - alpha
	out := nanSlice(len(values))

	num, den := 0.0, 0.0
	for i, v := range values {
		num *= decay
		den *= decay
		if !math.IsNaN(v) {
			num += v
			den++
		}
		if den > 0 {
			out[i] = num / den
		}
	}
	return out
}

// savitzkyGolay fits a polynomial of order poly over each window by least
// squares. Edge rows use the fit of the first and last full window. Series
// shorter than the window are returned unchanged.
func savitzkyGolay(values []float64, window, poly int) []float64 {
	if window%2 == 0 {
		window++
	}
	n := len(values)
	if n < window || window <= poly || countNaN(values) > 0 {
		return slices.Clone(values)
	}

	half := window / 2
	out := make([]float64, n)
	for center := half; center < n-half; center++ {
		coeffs, ok := polyFit(values[center-half:center+half+1], poly)
		if !ok {
			return slices.Clone(values)
		}
		out[center] = polyEval(coeffs, float64(half))
	}

	head, ok := polyFit(values[:window], poly)
	if !ok {
		return slices.Clone(values)
	}
	for i := range half {
		out[i] = polyEval(head, float64(i))
	}
	tail, ok := polyFit(values[n-window:], poly)
	if !ok {
		return slices.Clone(values)
	}
	for i := n - half; i < n; i++ {
		out[i] = polyEval(tail, float64(i-(n-window)))
	}
	return out
}

// polyFit returns least squares coefficients c0..c(poly) for ys at x = 0..len-1.
func polyFit(ys []float64, poly int) ([]float64, bool) {
	rows, cols := len(ys), poly+1
	a := mat.NewDense(rows, cols, nil)
	for i := range rows {
		x := 1.0
		for j := range cols {
			a.Set(i, j, x)
			x *= float64(i)
		}
	}
	b := mat.NewVecDense(rows, slices.Clone(ys))

	var c mat.VecDense
	if err := c.SolveVec(a, b); err != nil {
		return nil, false
	}
	return c.RawVector().Data, true
}

func polyEval(coeffs []float64, x float64) float64 {
	y := 0.0
	for i := len(coeffs) - 1; i >= 0; i-- {
		y = y*x + coeffs[i]
	}
	return y
}
