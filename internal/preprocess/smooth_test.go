package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmooth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		window int
		in     []float64
		want   []float64
	}{
		{"rolling mean", SmoothRollingMean, 3, []float64{1, 2, 3, 4, 5}, []float64{nan, 2, 3, 4, nan}},
		{"rolling mean even window", SmoothRollingMean, 4, []float64{1, 2, 3, 4, 5}, []float64{nan, nan, 2.5, 3.5, nan}},
		{"rolling mean skips windows with gaps", SmoothRollingMean, 3, []float64{1, nan, 3, 4, 5}, []float64{nan, nan, nan, 4, nan}},
		{"rolling median", SmoothRollingMedian, 3, []float64{1, 10, 2, 3, 4}, []float64{nan, 2, 3, 3, nan}},
		{"exponential", SmoothExponential, 3, []float64{1, 2, 3}, []float64{1, 2.5 / 1.5, 4.25 / 1.75}},
		{"savgol keeps quadratic", SmoothSavGol, 5,
			[]float64{0, 1, 4, 9, 16, 25, 36, 49, 64, 81},
			[]float64{0, 1, 4, 9, 16, 25, 36, 49, 64, 81}},
		{"savgol short series unchanged", SmoothSavGol, 5, []float64{3, 1, 2}, []float64{3, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := frameOf(map[string][]float64{ColTemperature: tt.in})
			require.NoError(t, Smooth(f, tt.window, tt.method))
			assertFloats(t, tt.want, f.Columns[ColTemperature+SmoothedSuffix])
			assertFloats(t, tt.in, f.Columns[ColTemperature])
		})
	}
}

func TestSavGolReducesNoise(t *testing.T) {
	t.Parallel()

	in := []float64{10, 12, 10, 12, 10, 12, 10, 12, 10, 12, 10}
	f := frameOf(map[string][]float64{ColHumidity: in})
	require.NoError(t, Smooth(f, 5, SmoothSavGol))

	out := f.Columns[ColHumidity+SmoothedSuffix]
	for i := 2; i < len(out)-2; i++ {
		assert.Less(t, abs(out[i]-11), abs(in[i]-11), "index %d", i)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func TestSmoothValidation(t *testing.T) {
	t.Parallel()

	f := frameOf(map[string][]float64{ColTemperature: {1, 2, 3}})
	require.Error(t, Smooth(f, 3, "lowess"))
	require.Error(t, Smooth(f, 0, SmoothRollingMean))
}
