package preprocess

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmwatch/farmwatch/internal/errors"
)

func countTrue(mask []bool) int {
	n := 0
	for _, m := range mask {
		if m {
			n++
		}
	}
	return n
}

func TestDetectOutliersZScore(t *testing.T) {
	t.Parallel()

	values := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 100}
	f := frameOf(map[string][]float64{ColTemperature: values})

	mask, err := DetectOutliers(f, ColTemperature, OutlierZScore, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, countTrue(mask))
	assert.True(t, mask[9])

	// |100-19| / 29.71 is about 2.73
	mask, err = DetectOutliers(f, ColTemperature, OutlierZScore, 3)
	require.NoError(t, err)
	assert.Zero(t, countTrue(mask))
}

func TestDetectOutliersZScoreUsesPopulationStd(t *testing.T) {
	t.Parallel()

	// mean 1.125, population std 2.844: z of the last value is 3.12,
	// while the n-1 std (2.970) would give 2.99
	values := []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 3.5, 10}
	f := frameOf(map[string][]float64{ColTemperature: values})

	mask, err := DetectOutliers(f, ColTemperature, OutlierZScore, 3)
	require.NoError(t, err)
	assert.True(t, mask[11])
	assert.False(t, mask[10])
	assert.Equal(t, 1, countTrue(mask))
}

func TestDetectOutliersIgnoresMissing(t *testing.T) {
	t.Parallel()

	f := frameOf(map[string][]float64{ColHumidity: {50, nan, 51, 49, 50, nan, 500, 50, 51, 49, 50, 50}})
	mask, err := DetectOutliers(f, ColHumidity, OutlierZScore, 2)
	require.NoError(t, err)
	assert.False(t, mask[1])
	assert.False(t, mask[5])
	assert.True(t, mask[6])
}

func TestDetectOutliersIQR(t *testing.T) {
	t.Parallel()

	f := frameOf(map[string][]float64{ColSoilMoisture: {1, 2, 3, 4, 5, 6, 7, 8, 9, 100}})
	mask, err := DetectOutliers(f, ColSoilMoisture, OutlierIQR, 0)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, false, false, false, false, false, false, false, true}, mask)
}

func TestDetectOutliersIsolationForest(t *testing.T) {
	t.Parallel()

	values := make([]float64, 0, 51)
	for i := range 50 {
		values = append(values, 20+float64(i%5)*0.1)
	}
	values = append(values, 500)
	f := frameOf(map[string][]float64{ColTemperature: values})

	mask, err := DetectOutliers(f, ColTemperature, OutlierIsolationForest, 0)
	require.NoError(t, err)
	assert.True(t, mask[50])
	assert.LessOrEqual(t, countTrue(mask), 6)

	again, err := DetectOutliers(f, ColTemperature, OutlierIsolationForest, 0)
	require.NoError(t, err)
	assert.Equal(t, mask, again, "seeded forest is deterministic")
}

func TestDetectOutliersEdgeCases(t *testing.T) {
	t.Parallel()

	f := frameOf(map[string][]float64{ColTemperature: {nan, nan, nan}})

	mask, err := DetectOutliers(f, ColTemperature, OutlierZScore, 3)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, false}, mask)

	mask, err = DetectOutliers(f, ColRainfall, OutlierIQR, 3)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, false}, mask)

	_, err = DetectOutliers(f, ColTemperature, "dbscan", 3)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestRemoveOutliers(t *testing.T) {
	t.Parallel()

	f := frameOf(map[string][]float64{
		ColTemperature: {10, 10, 10, 10, 10, 10, 10, 10, 10, 100},
		ColHumidity:    {50, 50, 50, 50, 50, 50, 50, 50, 50, 50},
	})
	counts, err := RemoveOutliers(f, nil, OutlierZScore, 2)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{ColTemperature: 1}, counts)
	assert.True(t, math.IsNaN(f.Columns[ColTemperature][9]), "outlier replaced by NaN")
}
