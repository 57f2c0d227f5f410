package preprocess

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmwatch/farmwatch/internal/conf"
	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/errors"
)

type runCounter struct {
	runs map[string]int
	rows int
}

func (r *runCounter) RecordPreprocessRun(status string, rows int, _ time.Duration) {
	r.runs[status]++
	r.rows = rows
}

func TestProcessEmptyRange(t *testing.T) {
	t.Parallel()

	p := New(&fakeSource{})
	res, err := p.Process(context.Background(), monday, monday.Add(time.Hour), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Frame.Len())
	assert.Equal(t, 0, res.RowsLoaded)
}

func TestProcessDefaultPipeline(t *testing.T) {
	t.Parallel()

	rows := hourlyReadings(200)
	rows[180].Temperature = nil
	rows[190].Humidity = f64(10000)

	rec := &runCounter{runs: map[string]int{}}
	p := New(&fakeSource{rows: rows}, WithRecorder(rec))
	res, err := p.Process(context.Background(), monday, monday.Add(300*time.Hour), DefaultOptions())
	require.NoError(t, err)

	// the 7 day moving average needs 168 rows of history
	assert.Equal(t, 200, res.RowsLoaded)
	assert.Equal(t, 33, res.Frame.Len())
	assert.Equal(t, 167, res.RowsDropped)
	assert.Equal(t, 1, res.OutliersRemoved[ColHumidity])

	for name, col := range res.Frame.Columns {
		for i, v := range col {
			require.False(t, math.IsNaN(v), "%s[%d] is NaN", name, i)
		}
	}
	// the removed outlier was replaced by an interpolated value
	assert.Less(t, res.Frame.Columns[ColHumidity][190-167], 100.0)
	assert.Equal(t, 1, rec.runs["success"])
	assert.Equal(t, 33, rec.rows)
}

func TestProcessAllSteps(t *testing.T) {
	t.Parallel()

	opts := OptionsFromSettings(conf.PreprocessSettings{
		OutlierMethod:    OutlierIQR,
		OutlierThreshold: 3,
		Interpolation:    InterpSpline,
		Smoothing:        SmoothExponential,
		Window:           3,
		Normalization:    NormalizeMinMax,
	})
	opts.Smooth = true
	opts.Normalize = true

	p := New(&fakeSource{rows: hourlyReadings(180)},
		WithDaylight(func(ts time.Time) bool { return ts.Hour() >= 6 && ts.Hour() < 18 }))
	res, err := p.Process(context.Background(), monday, monday.Add(200*time.Hour), opts)
	require.NoError(t, err)
	require.NotNil(t, res.Scaler)
	require.Positive(t, res.Frame.Len())

	assert.True(t, res.Frame.Has("is_daylight"))
	assert.True(t, res.Frame.Has(ColTemperature+SmoothedSuffix))
	for _, v := range res.Frame.Columns[ColTemperature] {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestProcessErrors(t *testing.T) {
	t.Parallel()

	rec := &runCounter{runs: map[string]int{}}
	p := New(&fakeSource{rows: hourlyReadings(10)}, WithRecorder(rec))

	opts := DefaultOptions()
	opts.InterpolationMethod = "magic"
	_, err := p.Process(context.Background(), monday, monday.Add(24*time.Hour), opts)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	failing := New(&fakeSource{err: fmt.Errorf("database is locked")})
	_, err = failing.Process(context.Background(), monday, monday.Add(time.Hour), DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryPreprocessing))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Process(ctx, monday, monday.Add(time.Hour), DefaultOptions())
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 2, rec.runs["error"])
}

func TestQualityReport(t *testing.T) {
	t.Parallel()

	rows := []datastore.EnvironmentData{
		{Timestamp: monday.Add(2 * time.Hour), Temperature: f64(30), Humidity: f64(60)},
		{Timestamp: monday, Temperature: f64(10)},
		{Timestamp: monday.Add(time.Hour), Temperature: f64(20), Humidity: f64(70)},
		{Timestamp: monday.Add(3 * time.Hour), Temperature: f64(40), Humidity: f64(80)},
	}
	p := New(&fakeSource{rows: rows})
	r, err := p.QualityReport(context.Background(), monday, monday.Add(24*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 4, r.TotalRecords)
	require.NotNil(t, r.DateRange)
	assert.Equal(t, "2024-06-03 00:00:00", r.DateRange.Start)
	assert.Equal(t, "2024-06-03 03:00:00", r.DateRange.End)

	assert.Equal(t, CountStat{Count: 1, Percentage: 25}, r.MissingValues[ColHumidity])
	assert.Equal(t, CountStat{Count: 4, Percentage: 100}, r.MissingValues[ColRainfall])
	assert.Equal(t, 0, r.Outliers[ColTemperature].Count)

	st := r.Statistics[ColTemperature]
	assert.InDelta(t, 25.0, *st.Mean, 1e-9)
	assert.InDelta(t, 12.91, *st.Std, 1e-9)
	assert.InDelta(t, 10.0, *st.Min, 0)
	assert.InDelta(t, 40.0, *st.Max, 0)
	assert.InDelta(t, 17.5, *st.Q25, 1e-9)
	assert.InDelta(t, 32.5, *st.Q75, 1e-9)
	assert.Nil(t, r.Statistics[ColRainfall].Mean)
}

func TestAggregateHourly(t *testing.T) {
	t.Parallel()

	f := NewFrame()
	f.Timestamps = []time.Time{
		monday.Add(5 * time.Minute),
		monday.Add(20 * time.Minute),
		monday.Add(50 * time.Minute),
		monday.Add(70 * time.Minute),
	}
	f.Set(ColTemperature, []float64{10, 20, 30, 40})
	f.Set(ColRainfall, []float64{1, 2, nan, nan})

	points := AggregateHourly(f)
	require.Len(t, points, 2)
	assert.True(t, points[0].Hour.Equal(monday))
	assert.Equal(t, 3, points[0].Count)
	assert.InDelta(t, 20.0, *points[0].Temperature, 1e-9)
	assert.InDelta(t, 3.0, *points[0].Rainfall, 1e-9)
	assert.Nil(t, points[1].Rainfall)
	assert.Nil(t, points[1].Humidity)
}

func TestFrameRecordsAndDrop(t *testing.T) {
	t.Parallel()

	f := FrameFromEnvironment([]datastore.EnvironmentData{
		{Timestamp: monday.Add(time.Hour), Temperature: f64(2), Location: "b"},
		{Timestamp: monday, Temperature: f64(1), Location: "a"},
	})
	require.Equal(t, 2, f.Len())
	assert.Equal(t, "a", f.Labels["location"][0])

	recs := f.Records()
	assert.InDelta(t, 1.0, recs[0][ColTemperature], 0)
	assert.Nil(t, recs[0][ColHumidity])

	assert.Equal(t, 2, f.DropIncomplete())
	assert.Equal(t, 0, f.Len())
}
