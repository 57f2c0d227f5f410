package preprocess

import (
	"maps"
	"math"
	"slices"
	"time"

	"github.com/farmwatch/farmwatch/internal/datastore"
)

// Sensor column names.
const (
	ColTemperature    = "temperature"
	ColHumidity       = "humidity"
	ColSoilMoisture   = "soil_moisture"
	ColLightIntensity = "light_intensity"
	ColWindSpeed      = "wind_speed"
	ColRainfall       = "rainfall"
	ColAirPressure    = "air_pressure"
)

// SensorColumns are the raw measurement columns, in storage order.
var SensorColumns = []string{
	ColTemperature,
	ColHumidity,
	ColSoilMoisture,
	ColLightIntensity,
	ColWindSpeed,
	ColRainfall,
	ColAirPressure,
}

// Frame is a time-indexed table of float64 columns. Missing values are NaN.
// Labels holds string columns such as location and season.
type Frame struct {
	Timestamps []time.Time
	Columns    map[string][]float64
	Labels     map[string][]string
}

// NewFrame returns an empty frame.
func NewFrame() *Frame {
	return &Frame{
		Columns: make(map[string][]float64),
		Labels:  make(map[string][]string),
	}
}

// FrameFromEnvironment builds a frame from stored readings sorted by timestamp.
// Nil measurements become NaN.
func FrameFromEnvironment(rows []datastore.EnvironmentData) *Frame {
	rows = slices.Clone(rows)
	slices.SortStableFunc(rows, func(a, b datastore.EnvironmentData) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	f := NewFrame()
	n := len(rows)
	f.Timestamps = make([]time.Time, n)
	for _, col := range SensorColumns {
		f.Columns[col] = make([]float64, n)
	}
	f.Labels["location"] = make([]string, n)
	f.Labels["sensor_id"] = make([]string, n)

	for i := range rows {
		r := &rows[i]
		f.Timestamps[i] = r.Timestamp
		f.Columns[ColTemperature][i] = valueOrNaN(r.Temperature)
		f.Columns[ColHumidity][i] = valueOrNaN(r.Humidity)
		f.Columns[ColSoilMoisture][i] = valueOrNaN(r.SoilMoisture)
		f.Columns[ColLightIntensity][i] = valueOrNaN(r.LightIntensity)
		f.Columns[ColWindSpeed][i] = valueOrNaN(r.WindSpeed)
		f.Columns[ColRainfall][i] = valueOrNaN(r.Rainfall)
		f.Columns[ColAirPressure][i] = valueOrNaN(r.AirPressure)
		f.Labels["location"][i] = r.Location
		f.Labels["sensor_id"][i] = r.SensorID
	}
	return f
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Timestamps)
}

// Has reports whether the numeric column exists.
func (f *Frame) Has(col string) bool {
	_, ok := f.Columns[col]
	return ok
}

// Set adds or replaces a numeric column. values must have Len() entries.
func (f *Frame) Set(col string, values []float64) {
	f.Columns[col] = values
}

// ColumnNames returns numeric column names, sensor columns first then the
// rest sorted.
func (f *Frame) ColumnNames() []string {
	names := make([]string, 0, len(f.Columns))
	for _, col := range SensorColumns {
		if f.Has(col) {
			names = append(names, col)
		}
	}
	extra := slices.Sorted(maps.Keys(f.Columns))
	for _, col := range extra {
		if !slices.Contains(SensorColumns, col) {
			names = append(names, col)
		}
	}
	return names
}

// presentSensorColumns returns the sensor columns present in f.
func (f *Frame) presentSensorColumns() []string {
	var cols []string
	for _, col := range SensorColumns {
		if f.Has(col) {
			cols = append(cols, col)
		}
	}
	return cols
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	c := NewFrame()
	c.Timestamps = slices.Clone(f.Timestamps)
	for k, v := range f.Columns {
		c.Columns[k] = slices.Clone(v)
	}
	for k, v := range f.Labels {
		c.Labels[k] = slices.Clone(v)
	}
	return c
}

// DropIncomplete removes rows with a NaN in any numeric column and returns
// the number of rows removed.
func (f *Frame) DropIncomplete() int {
	n := f.Len()
	keep := make([]bool, n)
	kept := 0
	for i := range n {
		keep[i] = true
		for _, v := range f.Columns {
			if math.IsNaN(v[i]) {
				keep[i] = false
				break
			}
		}
		if keep[i] {
			kept++
		}
	}
	if kept == n {
		return 0
	}

	f.Timestamps = filter(f.Timestamps, keep)
	for k, v := range f.Columns {
		f.Columns[k] = filter(v, keep)
	}
	for k, v := range f.Labels {
		f.Labels[k] = filter(v, keep)
	}
	return n - kept
}

func filter[T any](s []T, keep []bool) []T {
	out := make([]T, 0, len(s))
	for i, v := range s {
		if keep[i] {
			out = append(out, v)
		}
	}
	return out
}

// Records converts the frame to one map per row. NaN becomes nil so the
// result encodes as JSON.
func (f *Frame) Records() []map[string]any {
	out := make([]map[string]any, f.Len())
	for i := range out {
		row := make(map[string]any, len(f.Columns)+len(f.Labels)+1)
		row["timestamp"] = f.Timestamps[i]
		for k, v := range f.Columns {
			if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
				row[k] = nil
			} else {
				row[k] = v[i]
			}
		}
		for k, v := range f.Labels {
			row[k] = v[i]
		}
		out[i] = row
	}
	return out
}
