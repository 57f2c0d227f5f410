package preprocess

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMinMax(t *testing.T) {
	t.Parallel()

	f := frameOf(map[string][]float64{
		ColTemperature: {0, 5, 10},
		ColHumidity:    {3, 3, 3},
		ColRainfall:    {nan, 2, 4},
	})
	s, err := Normalize(f, NormalizeMinMax)
	require.NoError(t, err)

	assertFloats(t, []float64{0, 0.5, 1}, f.Columns[ColTemperature])
	assertFloats(t, []float64{0, 0, 0}, f.Columns[ColHumidity])
	assertFloats(t, []float64{nan, 0, 1}, f.Columns[ColRainfall])

	assert.InDelta(t, 5.0, s.Inverse(ColTemperature, 0.5), 1e-9)
	assert.InDelta(t, 0.25, s.Transform(ColTemperature, 2.5), 1e-9)
	assert.InDelta(t, 7.0, s.Inverse("unknown", 7), 1e-9)
}

func TestNormalizeStandard(t *testing.T) {
	t.Parallel()

	f := frameOf(map[string][]float64{ColTemperature: {1, 2, 3}})
	s, err := Normalize(f, NormalizeStandard)
	require.NoError(t, err)

	z := 1 / math.Sqrt(2.0/3.0)
	assertFloats(t, []float64{-z, 0, z}, f.Columns[ColTemperature])
	for _, v := range []float64{1, 2, 3} {
		assert.InDelta(t, v, s.Inverse(ColTemperature, s.Transform(ColTemperature, v)), 1e-9)
	}
}

func TestNormalizeUnknownMethod(t *testing.T) {
	t.Parallel()

	_, err := Normalize(frameOf(map[string][]float64{ColTemperature: {1}}), "robust")
	require.Error(t, err)
}
