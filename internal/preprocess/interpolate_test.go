package preprocess

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertFloats(t *testing.T, want, got []float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if math.IsNaN(want[i]) {
			assert.True(t, math.IsNaN(got[i]), "index %d: want NaN, got %v", i, got[i])
			continue
		}
		assert.InDelta(t, want[i], got[i], 1e-6, "index %d", i)
	}
}

func TestInterpolateMissing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		in     []float64
		want   []float64
	}{
		{"linear interior", InterpLinear, []float64{1, nan, 3, nan, nan, 6}, []float64{1, 2, 3, 4, 5, 6}},
		{"linear trailing holds last", InterpLinear, []float64{1, 2, nan}, []float64{1, 2, 2}},
		{"linear leading gets mean", InterpLinear, []float64{nan, 2, 4}, []float64{3, 2, 4}},
		{"polynomial quadratic", InterpPolynomial, []float64{0, 1, nan, 9, 16, 25}, []float64{0, 1, 4, 9, 16, 25}},
		{"spline linear data", InterpSpline, []float64{0, 2, nan, 6, 8}, []float64{0, 2, 4, 6, 8}},
		{"forward fill", InterpForward, []float64{nan, 1, nan, 3}, []float64{5.0 / 3, 1, 1, 3}},
		{"backward fill", InterpBackward, []float64{1, nan, 3, nan}, []float64{1, 3, 3, 7.0 / 3}},
		{"all missing stays missing", InterpLinear, []float64{nan, nan}, []float64{nan, nan}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := frameOf(map[string][]float64{ColTemperature: tt.in})
			require.NoError(t, InterpolateMissing(f, tt.method))
			assertFloats(t, tt.want, f.Columns[ColTemperature])
		})
	}
}

func TestInterpolateKNN(t *testing.T) {
	t.Parallel()

	f := frameOf(map[string][]float64{
		ColTemperature: {1, 2, 3, 4, 5, 6, 100},
		ColHumidity:    {10, 20, 30, 40, 50, nan, 1000},
	})
	require.NoError(t, InterpolateMissing(f, InterpKNN))

	// the five rows closest in temperature are 5, 4, 3, 2 and 1
	assert.InDelta(t, 30.0, f.Columns[ColHumidity][5], 1e-9)
	assert.InDelta(t, 6.0, f.Columns[ColTemperature][5], 1e-9)
}

func TestInterpolateUnknownMethod(t *testing.T) {
	t.Parallel()

	f := frameOf(map[string][]float64{ColTemperature: {1, nan}})
	require.Error(t, InterpolateMissing(f, "cubic"))
}

func TestNanEuclidean(t *testing.T) {
	t.Parallel()

	f := frameOf(map[string][]float64{
		ColTemperature: {0, 3},
		ColHumidity:    {0, nan},
	})
	// one of two coordinates present, so the squared distance is doubled
	got := nanEuclidean(f, []string{ColTemperature, ColHumidity}, 0, 1)
	assert.InDelta(t, math.Sqrt(18), got, 1e-9)
}
