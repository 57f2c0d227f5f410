package preprocess

import (
	"math"
	"time"
)

// HourlyPoint is the aggregate of all readings in one hour. Nil means no
// reading in the hour reported the measurement.
type HourlyPoint struct {
	Hour           time.Time `json:"hour"`
	Count          int       `json:"count"`
	Temperature    *float64  `json:"temperature"`
	Humidity       *float64  `json:"humidity"`
	SoilMoisture   *float64  `json:"soil_moisture"`
	LightIntensity *float64  `json:"light_intensity"`
	WindSpeed      *float64  `json:"wind_speed"`
	Rainfall       *float64  `json:"rainfall"`
	AirPressure    *float64  `json:"air_pressure"`
}

// AggregateHourly buckets rows by hour. Rainfall is summed, every other
// measurement is averaged. Points are in ascending hour order.
func AggregateHourly(f *Frame) []HourlyPoint {
	var points []HourlyPoint
	i := 0
	for i < f.Len() {
		hour := f.Timestamps[i].Truncate(time.Hour)
		j := i
		for j < f.Len() && f.Timestamps[j].Truncate(time.Hour).Equal(hour) {
			j++
		}

		p := HourlyPoint{Hour: hour, Count: j - i}
		p.Temperature = bucketMean(f, ColTemperature, i, j)
		p.Humidity = bucketMean(f, ColHumidity, i, j)
		p.SoilMoisture = bucketMean(f, ColSoilMoisture, i, j)
		p.LightIntensity = bucketMean(f, ColLightIntensity, i, j)
		p.WindSpeed = bucketMean(f, ColWindSpeed, i, j)
		p.Rainfall = bucketSum(f, ColRainfall, i, j)
		p.AirPressure = bucketMean(f, ColAirPressure, i, j)
		points = append(points, p)
		i = j
	}
	return points
}

func bucketMean(f *Frame, col string, from, to int) *float64 {
	values, ok := f.Columns[col]
	if !ok {
		return nil
	}
	m := mean(values[from:to])
	if math.IsNaN(m) {
		return nil
	}
	m = round2(m)
	return &m
}

func bucketSum(f *Frame, col string, from, to int) *float64 {
	values, ok := f.Columns[col]
	if !ok {
		return nil
	}
	sum, n := 0.0, 0
	for _, v := range values[from:to] {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	sum = round2(sum)
	return &sum
}
