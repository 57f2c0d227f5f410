package preprocess

import (
	"math"
	"time"

	"github.com/farmwatch/farmwatch/internal/datastore"
)

var nan = math.NaN()

var monday = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

// frameOf builds an hourly frame from the given columns.
func frameOf(cols map[string][]float64) *Frame {
	f := NewFrame()
	n := 0
	for k, v := range cols {
		f.Columns[k] = append([]float64(nil), v...)
		n = len(v)
	}
	f.Timestamps = make([]time.Time, n)
	for i := range n {
		f.Timestamps[i] = monday.Add(time.Duration(i) * time.Hour)
	}
	return f
}

type fakeSource struct {
	rows []datastore.EnvironmentData
	err  error
}

func (s *fakeSource) GetEnvironmentData(start, end time.Time) ([]datastore.EnvironmentData, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []datastore.EnvironmentData
	for _, r := range s.rows {
		if !r.Timestamp.Before(start) && !r.Timestamp.After(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func f64(v float64) *float64 { return &v }

// hourlyReadings returns n complete readings with smooth daily cycles.
func hourlyReadings(n int) []datastore.EnvironmentData {
	rows := make([]datastore.EnvironmentData, n)
	for i := range rows {
		phase := float64(i) / 24 * 2 * math.Pi
		rows[i] = datastore.EnvironmentData{
			Timestamp:      monday.Add(time.Duration(i) * time.Hour),
			Temperature:    f64(20 + 5*math.Sin(phase)),
			Humidity:       f64(60 + 10*math.Cos(phase)),
			SoilMoisture:   f64(50 + 2*math.Sin(phase/7)),
			LightIntensity: f64(500 + 400*math.Sin(phase)),
			WindSpeed:      f64(3 + math.Cos(phase)),
			Rainfall:       f64(1 + 0.5*math.Sin(phase)),
			AirPressure:    f64(1013 + 3*math.Sin(phase/3)),
			Location:       "greenhouse",
			SensorID:       "sensor_001",
		}
	}
	return rows
}
