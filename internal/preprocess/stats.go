package preprocess

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// present returns the non-NaN values of xs.
func present(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

// countNaN counts missing values.
func countNaN(xs []float64) int {
	n := 0
	for _, x := range xs {
		if math.IsNaN(x) {
			n++
		}
	}
	return n
}

// mean of non-NaN values; NaN when there are none.
func mean(xs []float64) float64 {
	vals := present(xs)
	if len(vals) == 0 {
		return math.NaN()
	}
	return stat.Mean(vals, nil)
}

// sampleStd is the n-1 standard deviation of non-NaN values.
func sampleStd(xs []float64) float64 {
	vals := present(xs)
	if len(vals) < 2 {
		return math.NaN()
	}
	return stat.StdDev(vals, nil)
}

// populationStd is the n standard deviation of non-NaN values.
func populationStd(xs []float64) float64 {
	vals := present(xs)
	switch len(vals) {
	case 0:
		return math.NaN()
	case 1:
		return 0
	}
	_, variance := stat.MeanVariance(vals, nil)
	n := float64(len(vals))
	return math.Sqrt(variance * (n - 1) / n)
}

// quantile uses linear interpolation between closest ranks over non-NaN values.
func quantile(xs []float64, q float64) float64 {
	vals := present(xs)
	if len(vals) == 0 {
		return math.NaN()
	}
	slices.Sort(vals)
	return sortedQuantile(vals, q)
}

func sortedQuantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func minMax(xs []float64) (lo, hi float64) {
	lo, hi = math.NaN(), math.NaN()
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		if math.IsNaN(lo) || x < lo {
			lo = x
		}
		if math.IsNaN(hi) || x > hi {
			hi = x
		}
	}
	return lo, hi
}

// round2 rounds to two decimals.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
