// Package sensors collects environment readings from local sensors and MQTT.
package sensors

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/suncalc"
)

// Sensor names. They match the reading fields they fill.
const (
	Temperature    = "temperature"
	Humidity       = "humidity"
	SoilMoisture   = "soil_moisture"
	LightIntensity = "light_intensity"
	WindSpeed      = "wind_speed"
	Rainfall       = "rainfall"
	AirPressure    = "air_pressure"
)

// Sensor reads one measurement at time t.
type Sensor interface {
	Name() string
	Read(ctx context.Context, t time.Time) (float64, error)
}

// DaylightFunc reports whether t is during daylight.
type DaylightFunc func(t time.Time) bool

// simulated draws from a fixed distribution. rng is shared and guarded.
type simulated struct {
	name string
	mu   *sync.Mutex
	rng  *rand.Rand
	draw func(r *rand.Rand, t time.Time) float64
}

func (s *simulated) Name() string { return s.name }

func (s *simulated) Read(ctx context.Context, t time.Time) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	v := s.draw(s.rng, t)
	s.mu.Unlock()
	return round2(v), nil
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// NewSimulatedSensors returns the seven simulated field sensors. Temperature
// follows the 06-18 day window; light follows daylight.
func NewSimulatedSensors(rng *rand.Rand, daylight DaylightFunc) []Sensor {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if daylight == nil {
		daylight = suncalc.IsDaytimeHour
	}
	mu := &sync.Mutex{}
	mk := func(name string, draw func(*rand.Rand, time.Time) float64) Sensor {
		return &simulated{name: name, mu: mu, rng: rng, draw: draw}
	}

	return []Sensor{
		mk(Temperature, func(r *rand.Rand, t time.Time) float64 {
			var base float64
			if suncalc.IsDaytimeHour(t) {
				base = 25 + float64(t.Hour()-12)*0.5
			} else {
				base = 18 + uniform(r, -2, 2)
			}
			return base + uniform(r, -3, 3)
		}),
		mk(Humidity, func(r *rand.Rand, _ time.Time) float64 { return uniform(r, 45, 85) }),
		mk(SoilMoisture, func(r *rand.Rand, _ time.Time) float64 { return uniform(r, 40, 85) }),
		mk(LightIntensity, func(r *rand.Rand, t time.Time) float64 {
			if daylight(t) {
				return uniform(r, 600, 1200)
			}
			return uniform(r, 0, 50)
		}),
		mk(WindSpeed, func(r *rand.Rand, _ time.Time) float64 { return uniform(r, 0, 12) }),
		mk(Rainfall, func(r *rand.Rand, _ time.Time) float64 {
			if r.Float64() < 0.15 {
				return uniform(r, 0.1, 8)
			}
			return 0
		}),
		mk(AirPressure, func(r *rand.Rand, _ time.Time) float64 { return uniform(r, 990, 1030) }),
	}
}

// assign stores v in the reading field named by sensor.
func assign(d *datastore.EnvironmentData, sensor string, v float64) bool {
	switch sensor {
	case Temperature:
		d.Temperature = &v
	case Humidity:
		d.Humidity = &v
	case SoilMoisture:
		d.SoilMoisture = &v
	case LightIntensity:
		d.LightIntensity = &v
	case WindSpeed:
		d.WindSpeed = &v
	case Rainfall:
		d.Rainfall = &v
	case AirPressure:
		d.AirPressure = &v
	default:
		return false
	}
	return true
}

// pinKey maps sensor names to the keys used in sensors.pins.
func pinKey(sensor string) string {
	if sensor == LightIntensity {
		return "light"
	}
	return sensor
}
