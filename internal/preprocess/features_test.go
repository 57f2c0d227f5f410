package preprocess

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonOf(t *testing.T) {
	t.Parallel()

	want := map[time.Month]string{
		time.January: SeasonWinter, time.February: SeasonWinter, time.March: SeasonSpring,
		time.May: SeasonSpring, time.June: SeasonSummer, time.August: SeasonSummer,
		time.September: SeasonAutumn, time.November: SeasonAutumn, time.December: SeasonWinter,
	}
	for m, s := range want {
		assert.Equal(t, s, SeasonOf(m), m.String())
	}
}

func TestCreateFeatures(t *testing.T) {
	t.Parallel()

	temps := make([]float64, 30)
	hums := make([]float64, 30)
	for i := range temps {
		temps[i] = float64(i)
		hums[i] = 50
	}
	f := frameOf(map[string][]float64{ColTemperature: temps, ColHumidity: hums})

	CreateFeatures(f, func(ts time.Time) bool { return ts.Hour() >= 6 && ts.Hour() < 18 })

	assert.InDelta(t, 5.0, f.Columns["hour"][5], 0)
	assert.InDelta(t, 0.0, f.Columns["day_of_week"][0], 0, "2024-06-03 is a Monday")
	assert.InDelta(t, 1.0, f.Columns["day_of_week"][24], 0)
	assert.InDelta(t, 6.0, f.Columns["month"][0], 0)
	assert.Equal(t, SeasonSummer, f.Labels["season"][0])

	assert.True(t, math.IsNaN(f.Columns["temperature_ma_24h"][22]))
	assert.InDelta(t, 11.5, f.Columns["temperature_ma_24h"][23], 1e-9)
	assert.True(t, math.IsNaN(f.Columns["temperature_ma_7d"][29]))

	assert.True(t, math.IsNaN(f.Columns["temperature_diff"][0]))
	assert.InDelta(t, 1.0, f.Columns["temperature_diff"][1], 1e-9)
	assert.InDelta(t, 24.0, f.Columns["temperature_diff_24h"][24], 1e-9)

	assert.InDelta(t, -7.95, f.Columns["heat_index"][0], 1e-9)

	assert.InDelta(t, math.Sqrt(50), f.Columns["temperature_std_24h"][23], 1e-9)
	assert.InDelta(t, 0.0, f.Columns["temperature_min_24h"][23], 0)
	assert.InDelta(t, 23.0, f.Columns["temperature_max_24h"][23], 0)
	assert.InDelta(t, 0.0, f.Columns["humidity_std_24h"][29], 1e-9)

	assert.InDelta(t, 0.0, f.Columns["is_daylight"][5], 0)
	assert.InDelta(t, 1.0, f.Columns["is_daylight"][6], 0)

	_, hasSoil := f.Columns["soil_moisture_ma_24h"]
	assert.False(t, hasSoil)
}

func TestCreateFeaturesWithoutDaylight(t *testing.T) {
	t.Parallel()

	f := frameOf(map[string][]float64{ColTemperature: {1, 2}})
	CreateFeatures(f, nil)
	require.False(t, f.Has("is_daylight"))
	require.False(t, f.Has("heat_index"))
}

func TestHeatIndex(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 0.5*(30+61+(30-68)*1.2+80*0.094), HeatIndex(30, 80), 1e-12)
}
