package preprocess

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/interp"

	"github.com/farmwatch/farmwatch/internal/errors"
	"github.com/farmwatch/farmwatch/internal/logger"
)

// Interpolation methods.
const (
	InterpLinear     = "linear"
	InterpPolynomial = "polynomial"
	InterpSpline     = "spline"
	InterpKNN        = "knn"
	InterpForward    = "forward_fill"
	InterpBackward   = "backward_fill"
)

const knnNeighbors = 5

// InterpolateMissing fills NaN values of every sensor column with method.
// Row positions are the x axis. Values still missing afterwards are set to
// the column mean; an all-NaN column stays NaN.
func InterpolateMissing(f *Frame, method string) error {
	switch method {
	case InterpLinear, InterpPolynomial, InterpSpline, InterpKNN, InterpForward, InterpBackward:
	default:
		return errors.Newf("unknown interpolation method: %s", method).
			Component("preprocess").
			Category(errors.CategoryValidation).
			Context("method", method).
			Build()
	}

	// knn distances use the columns as they were before any filling
	var snapshot *Frame
	if method == InterpKNN {
		snapshot = f.Clone()
	}

	for _, col := range f.presentSensorColumns() {
		values := f.Columns[col]
		missing := countNaN(values)
		if missing == 0 || missing == len(values) {
			continue
		}
		GetLogger().Debug("interpolating missing values",
			logger.String("column", col),
			logger.String("method", method),
			logger.Int("missing", missing))

		var filled []float64
		switch method {
		case InterpLinear:
			filled = interpolateLinear(values)
		case InterpPolynomial:
			filled = interpolatePolynomial(values)
		case InterpSpline:
			filled = interpolateSpline(values)
		case InterpKNN:
			filled = interpolateKNN(snapshot, col)
		case InterpForward:
			filled = forwardFill(values)
		case InterpBackward:
			filled = backwardFill(values)
		}
		f.Columns[col] = fillWithMean(filled)
	}
	return nil
}

// knownPoints returns the positions and values of non-NaN entries.
func knownPoints(values []float64) (xs, ys []float64) {
	for i, v := range values {
		if !math.IsNaN(v) {
			xs = append(xs, float64(i))
			ys = append(ys, v)
		}
	}
	return xs, ys
}

// interpolateGaps fills NaN values after the first known point using
// estimate for interior gaps and the last known value for trailing gaps.
// Leading gaps are left for the mean fill.
func interpolateGaps(values []float64, estimate func(x float64) float64) []float64 {
	out := slices.Clone(values)
	first, last := -1, -1
	for i, v := range values {
		if !math.IsNaN(v) {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return out
	}
	for i := first + 1; i < len(out); i++ {
		if !math.IsNaN(out[i]) {
			continue
		}
		if i > last {
			out[i] = values[last]
		} else {
			out[i] = estimate(float64(i))
		}
	}
	return out
}

func interpolateLinear(values []float64) []float64 {
	xs, ys := knownPoints(values)
	if len(xs) < 2 {
		return interpolateGaps(values, func(float64) float64 { return math.NaN() })
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return slices.Clone(values)
	}
	return interpolateGaps(values, pl.Predict)
}

// interpolatePolynomial fits a quadratic through the three known points
// nearest each gap position.
func interpolatePolynomial(values []float64) []float64 {
	xs, ys := knownPoints(values)
	if len(xs) < 3 {
		return interpolateLinear(values)
	}
	return interpolateGaps(values, func(x float64) float64 {
		// index of first known point to the right of x
		right, _ := slices.BinarySearch(xs, x)
		lo := max(0, right-2)
		if right < len(xs) && right-1 >= 0 && x-xs[right-1] > xs[right]-x {
			lo = right - 1
		}
		lo = min(lo, len(xs)-3)
		return lagrange(xs[lo:lo+3], ys[lo:lo+3], x)
	})
}

func lagrange(xs, ys []float64, x float64) float64 {
	total := 0.0
	for i := range xs {
		term := ys[i]
		for j := range xs {
			if i != j {
				term *= (x - xs[j]) / (xs[i] - xs[j])
			}
		}
		total += term
	}
	return total
}

// interpolateSpline evaluates a natural cubic spline through the known points.
func interpolateSpline(values []float64) []float64 {
	xs, ys := knownPoints(values)
	if len(xs) < 3 {
		return interpolateLinear(values)
	}
	var nc interp.NaturalCubic
	if err := nc.Fit(xs, ys); err != nil {
		GetLogger().Warn("spline fit failed, using linear interpolation", logger.Error(err))
		return interpolateLinear(values)
	}
	return interpolateGaps(values, nc.Predict)
}

// interpolateKNN averages column values of the k nearest rows, measured by
// NaN-Euclidean distance over the other sensor columns.
func interpolateKNN(f *Frame, col string) []float64 {
	target := f.Columns[col]
	out := slices.Clone(target)
	cols := f.presentSensorColumns()

	type neighbor struct {
		dist  float64
		value float64
	}

	for i, v := range target {
		if !math.IsNaN(v) {
			continue
		}
		var neighbors []neighbor
		for j, candidate := range target {
			if j == i || math.IsNaN(candidate) {
				continue
			}
			d := nanEuclidean(f, cols, i, j)
			if math.IsNaN(d) {
				continue
			}
			neighbors = append(neighbors, neighbor{dist: d, value: candidate})
		}
		if len(neighbors) == 0 {
			continue
		}
		slices.SortStableFunc(neighbors, func(a, b neighbor) int {
			switch {
			case a.dist < b.dist:
				return -1
			case a.dist > b.dist:
				return 1
			}
			return 0
		})
		k := min(knnNeighbors, len(neighbors))
		sum := 0.0
		for _, n := range neighbors[:k] {
			sum += n.value
		}
		out[i] = sum / float64(k)
	}
	return out
}

// nanEuclidean is the distance between rows i and j over coordinates present
// in both, scaled up for the coordinates that were skipped.
func nanEuclidean(f *Frame, cols []string, i, j int) float64 {
	sum := 0.0
	shared := 0
	for _, c := range cols {
		a, b := f.Columns[c][i], f.Columns[c][j]
		if math.IsNaN(a) || math.IsNaN(b) {
			continue
		}
		d := a - b
		sum += d * d
		shared++
	}
	if shared == 0 {
		return math.NaN()
	}
	return math.Sqrt(float64(len(cols)) / float64(shared) * sum)
}

func forwardFill(values []float64) []float64 {
	out := slices.Clone(values)
	last := math.NaN()
	for i, v := range out {
		if math.IsNaN(v) {
			out[i] = last
		} else {
			last = v
		}
	}
	return out
}

func backwardFill(values []float64) []float64 {
	out := slices.Clone(values)
	next := math.NaN()
	for i := len(out) - 1; i >= 0; i-- {
		if math.IsNaN(out[i]) {
			out[i] = next
		} else {
			next = out[i]
		}
	}
	return out
}

func fillWithMean(values []float64) []float64 {
	if countNaN(values) == 0 {
		return values
	}
	m := mean(values)
	if math.IsNaN(m) {
		return values
	}
	for i, v := range values {
		if math.IsNaN(v) {
			values[i] = m
		}
	}
	return values
}
